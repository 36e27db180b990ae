// Package span computes overlap geometry between labeled text spans.
// Spans are half-open character intervals [Start, End).
package span

// Kind classifies how two spans overlap.
type Kind string

const (
	// Identical means both spans have the same bounds.
	Identical Kind = "identical"
	// Complete means the overlap covers one span's full length.
	Complete Kind = "complete"
	// Nested means one span's bounds fully contain the other's.
	Nested Kind = "nested"
	// Partial is any other overlap.
	Partial Kind = "partial"
)

// Info describes the intersection of two spans.
type Info struct {
	Start  int `json:"start"`
	End    int `json:"end"`
	Length int `json:"length"`
	// PctA and PctB are the fraction of each span covered by the
	// intersection, in [0,1].
	PctA float64 `json:"pct_a"`
	PctB float64 `json:"pct_b"`
	Kind Kind    `json:"kind"`
}

// Ratio returns the larger of the two coverage fractions.
func (i Info) Ratio() float64 {
	if i.PctA >= i.PctB {
		return i.PctA
	}
	return i.PctB
}

// Overlap computes the intersection of [startA,endA) and [startB,endB).
// The second return is false when the spans do not overlap, i.e. when
// endA <= startB or endB <= startA. Swapping the argument pairs swaps
// PctA and PctB and changes nothing else.
func Overlap(startA, endA, startB, endB int) (Info, bool) {
	if endA <= startB || endB <= startA {
		return Info{}, false
	}
	start := max(startA, startB)
	end := min(endA, endB)
	length := end - start
	lenA := endA - startA
	lenB := endB - startB

	info := Info{
		Start:  start,
		End:    end,
		Length: length,
		PctA:   float64(length) / float64(lenA),
		PctB:   float64(length) / float64(lenB),
	}
	info.Kind = classify(startA, endA, startB, endB, length, lenA, lenB)
	return info, true
}

// Gap returns the number of characters between two non-overlapping
// spans, and 0 when they overlap or touch.
func Gap(startA, endA, startB, endB int) int {
	switch {
	case endA <= startB:
		return startB - endA
	case endB <= startA:
		return startA - endB
	default:
		return 0
	}
}

// classify applies the kind rules in priority order: identical bounds,
// then full-length coverage of either span, then containment, else
// partial.
func classify(startA, endA, startB, endB, length, lenA, lenB int) Kind {
	switch {
	case startA == startB && endA == endB:
		return Identical
	case length == lenA || length == lenB:
		return Complete
	case (startA <= startB && endB <= endA) || (startB <= startA && endA <= endB):
		return Nested
	default:
		return Partial
	}
}
