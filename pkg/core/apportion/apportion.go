// Package apportion splits a fixed number of indivisible units across groups
// in proportion to each group's weight, using Jefferson's (D'Hondt) method.
//
// Allocations are returned as []*int. A nil entry marks a zero-weight group
// that was excluded from the computation, which is distinct from a
// positive-weight group that was allocated 0 units.
package apportion

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

const (
	// DefaultStepDivisions sets the divisor step to totalWeight/10000
	DefaultStepDivisions = 10000

	// DefaultMaxIterations bounds the number of divisor steps
	DefaultMaxIterations = 1_000_000

	// maxRefinements bounds the bisection run after an overshoot
	maxRefinements = 128
)

// Config contains the inputs for a single apportionment
type Config struct {
	// Weights are the group weights, parallel-indexed to the result
	Weights []float64

	// Capacity is the total number of units to distribute
	Capacity int

	// StepDivisions controls the divisor step: totalWeight / StepDivisions.
	// Zero selects DefaultStepDivisions.
	StepDivisions int

	// MaxIterations bounds the divisor search. Zero selects DefaultMaxIterations.
	MaxIterations int

	// MinimumPerGroup is reserved for every non-excluded group before the
	// remaining capacity is apportioned
	MinimumPerGroup int

	// Logger receives per-iteration diagnostics at debug level. Nil disables logging.
	Logger *zap.Logger
}

// Outcome represents the result of an apportionment
type Outcome struct {
	// Allocations holds the units per group, nil for excluded groups.
	// The non-nil entries sum to the capacity.
	Allocations []*int

	// Quotas are weight/Divisor per group, nil for excluded groups
	Quotas []*float64

	// StandardDivisor is the starting divisor, totalWeight/capacity.
	// Zero when the minimum per group used up the whole capacity.
	StandardDivisor float64

	// Divisor is the divisor the search stopped at
	Divisor float64

	// Step is the fixed amount the divisor was decreased by on each iteration
	Step float64

	// Iterations is the number of fixed divisor steps taken
	Iterations int

	// Refinements is the number of bisection rounds used after an overshoot
	Refinements int
}

// Apportion distributes capacity units across the weights with default settings
func Apportion(weights []float64, capacity int) ([]*int, error) {
	outcome, err := Run(Config{Weights: weights, Capacity: capacity})
	if err != nil {
		return nil, err
	}
	return outcome.Allocations, nil
}

// Run validates the config and runs the divisor search
func Run(config Config) (*Outcome, error) {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	stepDivisions := config.StepDivisions
	if stepDivisions <= 0 {
		stepDivisions = DefaultStepDivisions
	}
	maxIterations := config.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	if err := validateWeights(config.Weights); err != nil {
		return nil, err
	}
	if config.Capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, config.Capacity)
	}

	if total := TotalWeight(config.Weights); math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: total weight overflows", ErrNonNumericInput)
	}

	eligible := eligibleCount(config.Weights)
	if eligible == 0 {
		return nil, fmt.Errorf("%w: %d weights given, capacity %d", ErrNoEligibleWeights, len(config.Weights), config.Capacity)
	}

	if config.MinimumPerGroup < 0 {
		return nil, fmt.Errorf("minimum per group must be non-negative, got %d", config.MinimumPerGroup)
	}
	reserved := eligible * config.MinimumPerGroup
	if reserved > config.Capacity {
		return nil, fmt.Errorf("%w: %d groups need %d units, capacity %d",
			ErrInsufficientCapacity, eligible, reserved, config.Capacity)
	}
	remaining := config.Capacity - reserved

	var outcome *Outcome
	if remaining == 0 {
		logger.Debug("Minimum per group uses the whole capacity", zap.Int("reserved", reserved))
		outcome = minimumOnly(config.Weights)
	} else {
		var err error
		outcome, err = search(config.Weights, remaining, stepDivisions, maxIterations, logger)
		if err != nil {
			return nil, err
		}
	}

	if config.MinimumPerGroup > 0 {
		for _, a := range outcome.Allocations {
			if a != nil {
				*a += config.MinimumPerGroup
			}
		}
	}

	return outcome, nil
}

// search decreases the divisor from the standard divisor in fixed steps until
// the floored quotas sum to capacity
func search(weights []float64, capacity, stepDivisions, maxIterations int, logger *zap.Logger) (*Outcome, error) {
	total := TotalWeight(weights)
	standard := total / float64(capacity)
	step := total / float64(stepDivisions)

	logger.Debug("Starting divisor search",
		zap.Float64("total_weight", total),
		zap.Int("capacity", capacity),
		zap.Float64("standard_divisor", standard),
		zap.Float64("step", step))

	if !(standard > 0) || !(step > 0) {
		return nil, fmt.Errorf("%w: total weight %g gives divisor %g and step %g",
			ErrNonNumericInput, total, standard, step)
	}

	previous := standard
	for k := 0; k <= maxIterations; k++ {
		// Computed from k rather than accumulated so the divisor does not drift
		divisor := standard - float64(k)*step
		if divisor <= 0 {
			// The floored sum grows without bound as the divisor approaches 0,
			// so 0 bounds the bisection from below
			outcome, err := refine(weights, capacity, 0, previous, logger)
			if err != nil {
				return nil, err
			}
			outcome.StandardDivisor = standard
			outcome.Step = step
			outcome.Iterations = k
			return outcome, nil
		}

		quotas := GetQuotas(weights, divisor)
		allocations := Floor(quotas)
		allocated := Sum(allocations)

		logger.Debug("Divisor step",
			zap.Int("iteration", k),
			zap.Float64("divisor", divisor),
			zap.Int("allocated", allocated))

		if allocated == capacity {
			return &Outcome{
				Allocations:     allocations,
				Quotas:          quotas,
				StandardDivisor: standard,
				Divisor:         divisor,
				Step:            step,
				Iterations:      k,
			}, nil
		}

		if allocated > capacity {
			if k == 0 {
				return nil, fmt.Errorf("%w: standard divisor allocates %d units, capacity %d",
					ErrNonConvergence, allocated, capacity)
			}
			outcome, err := refine(weights, capacity, divisor, previous, logger)
			if err != nil {
				return nil, err
			}
			outcome.StandardDivisor = standard
			outcome.Step = step
			outcome.Iterations = k
			return outcome, nil
		}

		previous = divisor
	}

	return nil, fmt.Errorf("%w: no exact divisor within %d steps", ErrNonConvergence, maxIterations)
}

// refine bisects between a divisor that over-allocates (low) and one that
// under-allocates (high). It fails when groups tie so that no divisor hits
// capacity exactly.
func refine(weights []float64, capacity int, low, high float64, logger *zap.Logger) (*Outcome, error) {
	for round := 1; round <= maxRefinements; round++ {
		mid := low + (high-low)/2
		if mid <= low || mid >= high {
			break
		}

		quotas := GetQuotas(weights, mid)
		allocations := Floor(quotas)
		allocated := Sum(allocations)

		logger.Debug("Divisor refinement",
			zap.Int("round", round),
			zap.Float64("divisor", mid),
			zap.Int("allocated", allocated))

		switch {
		case allocated == capacity:
			return &Outcome{
				Allocations: allocations,
				Quotas:      quotas,
				Divisor:     mid,
				Refinements: round,
			}, nil
		case allocated > capacity:
			low = mid
		default:
			high = mid
		}
	}

	return nil, fmt.Errorf("%w: tied groups jump past capacity %d between divisors %g and %g",
		ErrNonConvergence, capacity, low, high)
}

// minimumOnly builds the outcome when the reserved minimum is the whole capacity
func minimumOnly(weights []float64) *Outcome {
	outcome := &Outcome{
		Allocations: make([]*int, len(weights)),
		Quotas:      make([]*float64, len(weights)),
	}
	for i, w := range weights {
		if w == 0 {
			continue
		}
		units := 0
		quota := 0.0
		outcome.Allocations[i] = &units
		outcome.Quotas[i] = &quota
	}
	return outcome
}

func validateWeights(weights []float64) error {
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight %d is %v", ErrNonNumericInput, i, w)
		}
		if w < 0 {
			return fmt.Errorf("%w: weight %d is %v", ErrNegativeWeight, i, w)
		}
	}
	return nil
}
