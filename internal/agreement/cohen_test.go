package agreement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCohenKappaPerfectAgreement(t *testing.T) {
	seq := []string{"per", "org", "loc", "per", "org"}
	res, err := CohenKappa(seq, seq, WeightNone)
	require.NoError(t, err)
	require.InDelta(t, 1.0, res.Coefficient, 1e-9)
	require.Equal(t, "Almost Perfect", res.Interpretation)
	require.Equal(t, 5, res.NItems)
}

func TestCohenKappaKnownValue(t *testing.T) {
	// 3 yes/yes, 2 yes/no, 1 no/yes, 4 no/no: po=0.7, pe=0.5, kappa=0.4.
	seqA := []string{"yes", "yes", "yes", "yes", "yes", "no", "no", "no", "no", "no"}
	seqB := []string{"yes", "yes", "yes", "no", "no", "yes", "no", "no", "no", "no"}
	res, err := CohenKappa(seqA, seqB, WeightNone)
	require.NoError(t, err)
	require.InDelta(t, 0.7, res.ObservedAgreement, 1e-9)
	require.InDelta(t, 0.5, res.ExpectedAgreement, 1e-9)
	require.InDelta(t, 0.4, res.Coefficient, 1e-9)
	require.Equal(t, "Fair", res.Interpretation)
	require.NotNil(t, res.StandardError)
	require.LessOrEqual(t, res.CILower, res.Coefficient)
	require.GreaterOrEqual(t, res.CIUpper, res.Coefficient)
}

func TestCohenKappaCompleteDisagreement(t *testing.T) {
	res, err := CohenKappa([]string{"a", "b"}, []string{"b", "a"}, WeightNone)
	require.NoError(t, err)
	require.InDelta(t, -1.0, res.Coefficient, 1e-9)
	require.Equal(t, "Poor", res.Interpretation)
}

func TestCohenKappaWeightedSoftensAdjacentDisagreement(t *testing.T) {
	// All disagreements are between adjacent ordinal categories, so
	// linear weighting must raise the coefficient and quadratic must
	// raise it further.
	seqA := []string{"1", "1", "2", "2", "3", "3", "1", "2", "3", "2"}
	seqB := []string{"1", "2", "2", "3", "3", "2", "1", "2", "3", "1"}

	unweighted, err := CohenKappa(seqA, seqB, WeightNone)
	require.NoError(t, err)
	linear, err := CohenKappa(seqA, seqB, WeightLinear)
	require.NoError(t, err)
	quadratic, err := CohenKappa(seqA, seqB, WeightQuadratic)
	require.NoError(t, err)

	require.Greater(t, linear.Coefficient, unweighted.Coefficient)
	require.Greater(t, quadratic.Coefficient, linear.Coefficient)
}

func TestCohenKappaInvalidInput(t *testing.T) {
	var invalid *InvalidInputError

	_, err := CohenKappa(nil, nil, WeightNone)
	require.Error(t, err)
	require.True(t, errors.As(err, &invalid))

	_, err = CohenKappa([]string{"a"}, []string{"a", "b"}, WeightNone)
	require.Error(t, err)
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, "sequences", invalid.Field)
}
