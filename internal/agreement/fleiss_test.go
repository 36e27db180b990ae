package agreement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFleissKappaPerfectAgreement(t *testing.T) {
	seqs := [][]string{
		{"x", "x", "y", "y"},
		{"x", "x", "y", "y"},
		{"x", "x", "y", "y"},
	}
	res, err := FleissKappa(seqs)
	require.NoError(t, err)
	require.InDelta(t, 1.0, res.Coefficient, 1e-9)
	require.Equal(t, "Almost Perfect", res.Interpretation)
}

func TestFleissKappaKnownValue(t *testing.T) {
	// Item 1 rated x,x,y and item 2 rated y,y,y:
	// po=2/3, pe=5/9, kappa=0.25.
	seqs := [][]string{
		{"x", "y"},
		{"x", "y"},
		{"y", "y"},
	}
	res, err := FleissKappa(seqs)
	require.NoError(t, err)
	require.InDelta(t, 2.0/3.0, res.ObservedAgreement, 1e-9)
	require.InDelta(t, 5.0/9.0, res.ExpectedAgreement, 1e-9)
	require.InDelta(t, 0.25, res.Coefficient, 1e-9)
	require.Equal(t, "Fair", res.Interpretation)
}

func TestFleissKappaCompleteDisagreement(t *testing.T) {
	seqs := [][]string{
		{"x", "y"},
		{"y", "x"},
	}
	res, err := FleissKappa(seqs)
	require.NoError(t, err)
	require.InDelta(t, -1.0, res.Coefficient, 1e-9)
	require.Equal(t, "Poor", res.Interpretation)
}

func TestFleissKappaInvalidInput(t *testing.T) {
	var invalid *InvalidInputError

	_, err := FleissKappa([][]string{{"a", "b"}})
	require.Error(t, err)
	require.True(t, errors.As(err, &invalid))

	_, err = FleissKappa([][]string{{"a"}, {"a", "b"}})
	require.Error(t, err)

	_, err = FleissKappa([][]string{{}, {}})
	require.Error(t, err)
}
