package apportion

import (
	"fmt"
	"math"
)

// Violation describes one broken guarantee in an outcome
type Violation struct {
	// Index is the group the violation concerns, -1 for the whole outcome
	Index       int
	Description string
}

// Verify checks an outcome against the weights and capacity it was computed
// for. An empty slice means every guarantee holds: one entry per weight,
// nil exactly where the weight is zero, every entry equal to
// minimumPerGroup + floor(weight/Divisor), and entries summing to capacity.
func Verify(weights []float64, capacity, minimumPerGroup int, outcome *Outcome) []Violation {
	var violations []Violation

	if len(outcome.Allocations) != len(weights) {
		return append(violations, Violation{
			Index:       -1,
			Description: fmt.Sprintf("%d allocations for %d weights", len(outcome.Allocations), len(weights)),
		})
	}

	if sum := Sum(outcome.Allocations); sum != capacity {
		violations = append(violations, Violation{
			Index:       -1,
			Description: fmt.Sprintf("allocations sum to %d, capacity %d", sum, capacity),
		})
	}

	for i, w := range weights {
		a := outcome.Allocations[i]
		switch {
		case w == 0 && a != nil:
			violations = append(violations, Violation{Index: i, Description: "zero weight was allocated"})
		case w != 0 && a == nil:
			violations = append(violations, Violation{Index: i, Description: "positive weight was excluded"})
		case a != nil && outcome.Divisor > 0:
			expected := minimumPerGroup + int(math.Floor(w/outcome.Divisor))
			if *a != expected {
				violations = append(violations, Violation{
					Index:       i,
					Description: fmt.Sprintf("allocated %d, divisor %g gives %d", *a, outcome.Divisor, expected),
				})
			}
		}
	}

	return violations
}
