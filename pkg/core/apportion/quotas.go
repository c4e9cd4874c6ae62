package apportion

import "math"

// TotalWeight sums every weight, zero and nonzero alike.
func TotalWeight(weights []float64) float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	return total
}

// GetQuotas divides each weight by the divisor. Zero weights are excluded
// and map to nil.
func GetQuotas(weights []float64, divisor float64) []*float64 {
	quotas := make([]*float64, len(weights))
	for i, w := range weights {
		if w == 0 {
			continue
		}
		q := w / divisor
		quotas[i] = &q
	}
	return quotas
}

// Floor rounds each quota toward negative infinity, passing nil through.
func Floor(quotas []*float64) []*int {
	floored := make([]*int, len(quotas))
	for i, q := range quotas {
		if q == nil {
			continue
		}
		f := int(math.Floor(*q))
		floored[i] = &f
	}
	return floored
}

// Sum adds the non-nil entries. Excluded entries contribute nothing.
func Sum(values []*int) int {
	total := 0
	for _, v := range values {
		if v != nil {
			total += *v
		}
	}
	return total
}

// eligibleCount returns how many weights are positive
func eligibleCount(weights []float64) int {
	n := 0
	for _, w := range weights {
		if w > 0 {
			n++
		}
	}
	return n
}
