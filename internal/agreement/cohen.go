package agreement

import (
	"math"
	"sort"
)

// Weighting selects the penalty matrix for Cohen's kappa. Linear and
// quadratic weighting reduce the penalty for disagreements between
// adjacent categories.
type Weighting string

const (
	WeightNone      Weighting = "none"
	WeightLinear    Weighting = "linear"
	WeightQuadratic Weighting = "quadratic"
)

// CohenKappa computes Cohen's kappa between two annotators' judgment
// sequences. Sequences must be non-empty and of equal length. The
// category set is the union of observed categories, in sorted order.
func CohenKappa(seqA, seqB []string, weighting Weighting) (Result, error) {
	if len(seqA) == 0 || len(seqB) == 0 {
		return Result{}, invalidInput("sequences", "must be non-empty")
	}
	if len(seqA) != len(seqB) {
		return Result{}, invalidInput("sequences", "must have equal length")
	}
	if weighting == "" {
		weighting = WeightNone
	}

	categories := categoryUnion(seqA, seqB)
	k := len(categories)
	index := make(map[string]int, k)
	for i, c := range categories {
		index[c] = i
	}

	n := float64(len(seqA))
	matrix := make([][]float64, k)
	for i := range matrix {
		matrix[i] = make([]float64, k)
	}
	for i := range seqA {
		matrix[index[seqA[i]]][index[seqB[i]]]++
	}

	rowMarginals := make([]float64, k)
	colMarginals := make([]float64, k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			rowMarginals[i] += matrix[i][j]
			colMarginals[j] += matrix[i][j]
		}
	}

	weights := weightMatrix(k, weighting)
	var po, pe float64
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			po += weights[i][j] * matrix[i][j] / n
			pe += weights[i][j] * rowMarginals[i] * colMarginals[j] / (n * n)
		}
	}

	kappa := 1.0
	if pe < 1 {
		kappa = (po - pe) / (1 - pe)
	}

	res := Result{
		Method:            MethodCohen,
		Coefficient:       kappa,
		ObservedAgreement: po,
		ExpectedAgreement: pe,
		NItems:            len(seqA),
		Categories:        categories,
		Interpretation:    interpretKappa(kappa),
	}
	if pe < 1 {
		se := math.Sqrt(po * (1 - po) / (n * (1 - pe) * (1 - pe)))
		res.StandardError = &se
		res.CILower = clamp(kappa-1.96*se, -1, 1)
		res.CIUpper = clamp(kappa+1.96*se, -1, 1)
	} else {
		res.CILower = kappa
		res.CIUpper = kappa
	}
	return res, nil
}

// weightMatrix builds the symmetric k x k agreement weight matrix.
// Unweighted kappa is the identity matrix; linear and quadratic
// weights decay with category index distance.
func weightMatrix(k int, weighting Weighting) [][]float64 {
	weights := make([][]float64, k)
	for i := range weights {
		weights[i] = make([]float64, k)
		for j := range weights[i] {
			switch {
			case i == j:
				weights[i][j] = 1
			case weighting == WeightLinear && k > 1:
				weights[i][j] = 1 - math.Abs(float64(i-j))/float64(k-1)
			case weighting == WeightQuadratic && k > 1:
				d := float64(i - j)
				span := float64(k - 1)
				weights[i][j] = 1 - (d*d)/(span*span)
			}
		}
	}
	return weights
}

func categoryUnion(seqs ...[]string) []string {
	seen := map[string]bool{}
	for _, seq := range seqs {
		for _, v := range seq {
			seen[v] = true
		}
	}
	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return categories
}
