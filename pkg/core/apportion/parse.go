package apportion

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// ParseWeights coerces text weights to numbers. A blank entry is an empty
// cell and parses as weight 0. Every entry that fails to parse is reported.
func ParseWeights(values []string) ([]float64, error) {
	weights := make([]float64, len(values))
	var errs error

	for i, raw := range values {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}

		w, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
			errs = multierr.Append(errs, fmt.Errorf("%w: weight %d is %q", ErrNonNumericInput, i, raw))
			continue
		}
		weights[i] = w
	}

	if errs != nil {
		return nil, errs
	}

	return weights, nil
}

// ParseCapacity coerces a text capacity to a whole number of units.
func ParseCapacity(value string) (int, error) {
	text := strings.TrimSpace(value)
	capacity, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: capacity is %q", ErrNonNumericInput, value)
	}
	return capacity, nil
}
