package agreement

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlphaPerfectAgreement(t *testing.T) {
	seqs := [][]float64{
		{1, 2, 3, 4},
		{1, 2, 3, 4},
	}
	res, err := KrippendorffAlpha(seqs, AlphaOptions{})
	require.NoError(t, err)
	require.InDelta(t, 1.0, res.Coefficient, 1e-9)
	require.InDelta(t, 0.0, res.ObservedDisagreement, 1e-9)
	require.Equal(t, "High", res.Interpretation)
}

func TestAlphaCompleteDisagreementNominal(t *testing.T) {
	// Do=1, De=2/3 over the pooled pairs, alpha=-0.5.
	seqs := [][]float64{
		{1, 1},
		{2, 2},
	}
	res, err := KrippendorffAlpha(seqs, AlphaOptions{Metric: MetricNominal})
	require.NoError(t, err)
	require.InDelta(t, 1.0, res.ObservedDisagreement, 1e-9)
	require.InDelta(t, 2.0/3.0, res.ExpectedDisagreement, 1e-9)
	require.InDelta(t, -0.5, res.Coefficient, 1e-9)
	require.Equal(t, "Poor", res.Interpretation)
}

func TestAlphaMissingValuesExcluded(t *testing.T) {
	seqs := [][]float64{
		{1, math.NaN(), 3},
		{1, 2, 3},
	}
	res, err := KrippendorffAlpha(seqs, AlphaOptions{})
	require.NoError(t, err)
	// The solo judgment on item 2 forms no pair and cannot disagree.
	require.InDelta(t, 1.0, res.Coefficient, 1e-9)
}

func TestAlphaSentinelMissingValue(t *testing.T) {
	missing := -1.0
	seqs := [][]float64{
		{1, -1, 3},
		{1, 2, 3},
	}
	res, err := KrippendorffAlpha(seqs, AlphaOptions{MissingValue: &missing})
	require.NoError(t, err)
	require.InDelta(t, 1.0, res.Coefficient, 1e-9)
}

func TestAlphaOrdinalRanks(t *testing.T) {
	// Off-by-one ordinal judgments: Do=1, De=4/3, alpha=0.25.
	seqs := [][]float64{
		{1, 2},
		{2, 3},
	}
	res, err := KrippendorffAlpha(seqs, AlphaOptions{Metric: MetricOrdinal})
	require.NoError(t, err)
	require.InDelta(t, 0.25, res.Coefficient, 1e-9)
}

func TestAlphaIntervalPenalizesDistance(t *testing.T) {
	near := [][]float64{
		{1, 2, 3},
		{2, 3, 4},
	}
	far := [][]float64{
		{1, 2, 3},
		{4, 5, 6},
	}
	resNear, err := KrippendorffAlpha(near, AlphaOptions{Metric: MetricInterval})
	require.NoError(t, err)
	resFar, err := KrippendorffAlpha(far, AlphaOptions{Metric: MetricInterval})
	require.NoError(t, err)
	require.Greater(t, resNear.Coefficient, resFar.Coefficient)
}

func TestAlphaBootstrapReproducible(t *testing.T) {
	seqs := [][]float64{
		{1, 2, 1, 3, 2, 1, 3, 3, 2, 1},
		{1, 2, 2, 3, 2, 1, 3, 1, 2, 1},
	}
	run := func(seed int64) Result {
		res, err := KrippendorffAlpha(seqs, AlphaOptions{
			BootstrapIterations: 200,
			Rand:                rand.New(rand.NewSource(seed)),
		})
		require.NoError(t, err)
		return res
	}
	first := run(42)
	second := run(42)
	require.Equal(t, first.CILower, second.CILower)
	require.Equal(t, first.CIUpper, second.CIUpper)
	require.LessOrEqual(t, first.CILower, first.CIUpper)

	other := run(7)
	require.Equal(t, first.Coefficient, other.Coefficient)
}

func TestAlphaInvalidInput(t *testing.T) {
	_, err := KrippendorffAlpha([][]float64{{1, 2}}, AlphaOptions{})
	require.Error(t, err)

	_, err = KrippendorffAlpha([][]float64{{1}, {1, 2}}, AlphaOptions{})
	require.Error(t, err)

	_, err = KrippendorffAlpha([][]float64{{math.NaN()}, {math.NaN()}}, AlphaOptions{})
	require.Error(t, err)
}
