package agreement

import (
	"math"
	"math/rand"
	"sort"
	"strconv"
	"time"
)

// Metric selects the Krippendorff distance function.
type Metric string

const (
	MetricNominal  Metric = "nominal"
	MetricOrdinal  Metric = "ordinal"
	MetricInterval Metric = "interval"
	MetricRatio    Metric = "ratio"
)

// AlphaOptions configure the Krippendorff alpha computation. The
// bootstrap is the only non-deterministic part of the engine, so the
// random source is injectable for reproducible runs.
type AlphaOptions struct {
	Metric Metric
	// MissingValue, when set, marks judgments to exclude. NaN is
	// always treated as missing.
	MissingValue *float64
	// BootstrapIterations caps the resampling used for the confidence
	// interval; 0 disables the interval entirely.
	BootstrapIterations int
	Rand                *rand.Rand
}

// KrippendorffAlpha computes Krippendorff's alpha over two or more
// annotators' numeric judgment sequences of equal length. Items where
// fewer than two annotators supplied a value contribute nothing to the
// observed disagreement.
func KrippendorffAlpha(seqs [][]float64, opts AlphaOptions) (Result, error) {
	if len(seqs) < 2 {
		return Result{}, invalidInput("sequences", "requires at least 2 annotators")
	}
	items := len(seqs[0])
	if items == 0 {
		return Result{}, invalidInput("sequences", "must be non-empty")
	}
	for _, s := range seqs[1:] {
		if len(s) != items {
			return Result{}, invalidInput("sequences", "must have equal length")
		}
	}
	if opts.Metric == "" {
		opts.Metric = MetricNominal
	}

	units := buildUnits(seqs, items, opts.MissingValue)
	pool := poolValues(units)
	if len(pool) == 0 {
		return Result{}, invalidInput("sequences", "no non-missing values")
	}

	dist := distanceFunc(opts.Metric, pool)
	alpha, observed, expected := computeAlpha(units, pool, dist)

	res := Result{
		Method:               MethodKrippendorff,
		Coefficient:          alpha,
		ObservedDisagreement: observed,
		ExpectedDisagreement: expected,
		NItems:               items,
		Categories:           formatPool(pool),
		Interpretation:       interpretAlpha(alpha),
		CILower:              alpha,
		CIUpper:              alpha,
	}

	if opts.BootstrapIterations > 0 {
		rng := opts.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		lower, upper := bootstrapCI(units, dist, opts.BootstrapIterations, rng)
		res.CILower = lower
		res.CIUpper = upper
	}
	return res, nil
}

// buildUnits collects the non-missing values per item.
func buildUnits(seqs [][]float64, items int, missing *float64) [][]float64 {
	units := make([][]float64, items)
	for i := 0; i < items; i++ {
		for _, seq := range seqs {
			v := seq[i]
			if math.IsNaN(v) {
				continue
			}
			if missing != nil && v == *missing {
				continue
			}
			units[i] = append(units[i], v)
		}
	}
	return units
}

func poolValues(units [][]float64) []float64 {
	var pool []float64
	for _, u := range units {
		pool = append(pool, u...)
	}
	return pool
}

// computeAlpha derives alpha from within-unit pair disagreement versus
// disagreement over all pairs of the pooled values. Alpha is 1.0 when
// the expected disagreement is zero.
func computeAlpha(units [][]float64, pool []float64, dist func(a, b float64) float64) (alpha, observed, expected float64) {
	var obsSum float64
	var obsPairs int
	for _, u := range units {
		for i := 0; i < len(u); i++ {
			for j := i + 1; j < len(u); j++ {
				obsSum += dist(u[i], u[j])
				obsPairs++
			}
		}
	}
	if obsPairs > 0 {
		observed = obsSum / float64(obsPairs)
	}

	var expSum float64
	var expPairs int
	for i := 0; i < len(pool); i++ {
		for j := i + 1; j < len(pool); j++ {
			expSum += dist(pool[i], pool[j])
			expPairs++
		}
	}
	if expPairs > 0 {
		expected = expSum / float64(expPairs)
	}

	if expected == 0 {
		return 1.0, observed, expected
	}
	return 1 - observed/expected, observed, expected
}

// bootstrapCI resamples items with replacement and takes the empirical
// 2.5/97.5 percentiles of the recomputed alphas. Percentiles are over
// an unordered multiset, so the result is iteration-order independent.
func bootstrapCI(units [][]float64, dist func(a, b float64) float64, iterations int, rng *rand.Rand) (lower, upper float64) {
	alphas := make([]float64, 0, iterations)
	resampled := make([][]float64, len(units))
	for it := 0; it < iterations; it++ {
		for i := range resampled {
			resampled[i] = units[rng.Intn(len(units))]
		}
		pool := poolValues(resampled)
		if len(pool) == 0 {
			continue
		}
		a, _, _ := computeAlpha(resampled, pool, dist)
		alphas = append(alphas, a)
	}
	if len(alphas) == 0 {
		return 0, 0
	}
	sort.Float64s(alphas)
	return percentile(alphas, 0.025), percentile(alphas, 0.975)
}

// percentile returns the linearly interpolated p-th percentile of a
// sorted sample.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// distanceFunc returns the squared-difference function for the metric.
// Ordinal distance is computed over ranks within the observed value
// set rather than raw magnitudes.
func distanceFunc(metric Metric, pool []float64) func(a, b float64) float64 {
	switch metric {
	case MetricInterval:
		return func(a, b float64) float64 {
			d := a - b
			return d * d
		}
	case MetricRatio:
		return func(a, b float64) float64 {
			if a+b == 0 {
				return 0
			}
			d := (a - b) / (a + b)
			return d * d
		}
	case MetricOrdinal:
		ranks := rankMap(pool)
		return func(a, b float64) float64 {
			d := ranks[a] - ranks[b]
			return d * d
		}
	default: // nominal
		return func(a, b float64) float64 {
			if a == b {
				return 0
			}
			return 1
		}
	}
}

func rankMap(pool []float64) map[float64]float64 {
	distinct := map[float64]bool{}
	for _, v := range pool {
		distinct[v] = true
	}
	values := make([]float64, 0, len(distinct))
	for v := range distinct {
		values = append(values, v)
	}
	sort.Float64s(values)
	ranks := make(map[float64]float64, len(values))
	for i, v := range values {
		ranks[v] = float64(i)
	}
	return ranks
}

func formatPool(pool []float64) []string {
	distinct := map[float64]bool{}
	for _, v := range pool {
		distinct[v] = true
	}
	values := make([]float64, 0, len(distinct))
	for v := range distinct {
		values = append(values, v)
	}
	sort.Float64s(values)
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}
