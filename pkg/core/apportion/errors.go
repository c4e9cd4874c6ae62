package apportion

import "errors"

var (
	// ErrInvalidCapacity is returned when the capacity is zero or negative,
	// which leaves the standard divisor undefined.
	ErrInvalidCapacity = errors.New("capacity must be positive")

	// ErrNoEligibleWeights is returned when no weight is positive.
	ErrNoEligibleWeights = errors.New("no positive weights to apportion")

	// ErrNonNumericInput is returned when a weight or capacity cannot be
	// coerced to a finite number.
	ErrNonNumericInput = errors.New("non-numeric input")

	// ErrNegativeWeight is returned when a weight is below zero.
	ErrNegativeWeight = errors.New("weight must be non-negative")

	// ErrInsufficientCapacity is returned when the per-group minimum
	// reserves more units than the capacity holds.
	ErrInsufficientCapacity = errors.New("capacity cannot cover the minimum per group")

	// ErrNonConvergence is returned when the divisor search stops without
	// the allocations summing to the capacity.
	ErrNonConvergence = errors.New("divisor search did not converge")
)
