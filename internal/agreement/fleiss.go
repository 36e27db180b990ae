package agreement

import "math"

// FleissKappa computes Fleiss' kappa over two or more annotators'
// judgment sequences. All sequences must be non-empty and of equal
// length; each item is assumed to be rated by every annotator.
func FleissKappa(seqs [][]string) (Result, error) {
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

	categories := categoryUnion(seqs...)
	k := len(categories)
	index := make(map[string]int, k)
	for i, c := range categories {
		index[c] = i
	}

	// counts[i][j] = how many annotators assigned category j to item i
	counts := make([][]float64, items)
	for i := range counts {
		counts[i] = make([]float64, k)
	}
	for _, seq := range seqs {
		for i, v := range seq {
			counts[i][index[v]]++
		}
	}

	bigN := float64(items)
	raters := float64(len(seqs))

	var po float64
	for i := 0; i < items; i++ {
		for j := 0; j < k; j++ {
			po += counts[i][j] * (counts[i][j] - 1)
		}
	}
	po /= bigN * raters * (raters - 1)

	proportions := make([]float64, k)
	for j := 0; j < k; j++ {
		for i := 0; i < items; i++ {
			proportions[j] += counts[i][j]
		}
		proportions[j] /= bigN * raters
	}
	var pe, pCubed float64
	for _, p := range proportions {
		pe += p * p
		pCubed += p * p * p
	}

	kappa := 1.0
	if pe < 1 {
		kappa = (po - pe) / (1 - pe)
	}

	res := Result{
		Method:            MethodFleiss,
		Coefficient:       kappa,
		ObservedAgreement: po,
		ExpectedAgreement: pe,
		NItems:            items,
		Categories:        categories,
		Interpretation:    interpretKappa(kappa),
	}
	if pe < 1 {
		// Fleiss (1971) large-sample variance.
		variance := 2 / (bigN * raters * (raters - 1)) *
			(pe - (2*raters-3)*pe*pe + 2*(raters-2)*pCubed) /
			((1 - pe) * (1 - pe))
		if variance < 0 {
			variance = 0
		}
		se := math.Sqrt(variance)
		res.StandardError = &se
		res.CILower = clamp(kappa-1.96*se, -1, 1)
		res.CIUpper = clamp(kappa+1.96*se, -1, 1)
	} else {
		res.CILower = kappa
		res.CIUpper = kappa
	}
	return res, nil
}
