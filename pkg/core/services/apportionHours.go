package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/ipl-apportion/pkg/core/apportion"
)

var validate = validator.New()

// GroupWeight is a named group (e.g. a lab slot) and its weight (e.g. enrolment)
type GroupWeight struct {
	Name   string  `yaml:"name" json:"name" validate:"required"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// ApportionRequest describes one apportionment of hours across groups.
// Capacity is taken from Capacity when non-zero, otherwise it is
// sessions × HoursPerSession, with sessions counted from SessionRule when set.
type ApportionRequest struct {
	Groups []GroupWeight `validate:"dive"`

	Capacity        int
	Sessions        int `validate:"gte=0"`
	HoursPerSession int `validate:"gte=0"`

	// SessionRule is an RFC 5545 RRULE, counted within TermStart..TermEnd when both are set
	SessionRule string
	TermStart   time.Time
	TermEnd     time.Time

	MinimumPerGroup int `validate:"gte=0"`
	StepDivisions   int `validate:"gte=0"`
	MaxIterations   int `validate:"gte=0"`
}

// GroupAllocation is the outcome for one group. Units is nil when the group
// has zero weight and was excluded.
type GroupAllocation struct {
	Name   string   `json:"name"`
	Weight float64  `json:"weight"`
	Units  *int     `json:"units"`
	Quota  *float64 `json:"quota"`
}

// ApportionResult represents the result of apportioning hours
type ApportionResult struct {
	RunID           string            `json:"runId"`
	Sessions        int               `json:"sessions"`
	HoursPerSession int               `json:"hoursPerSession"`
	Capacity        int               `json:"capacity"`
	StandardDivisor float64           `json:"standardDivisor"`
	Divisor         float64           `json:"divisor"`
	Step            float64           `json:"step"`
	Iterations      int               `json:"iterations"`
	Refinements     int               `json:"refinements"`
	Groups          []GroupAllocation `json:"groups"`
}

// ApportionHours resolves the capacity for the request and apportions it
// across the groups using Jefferson's method
func ApportionHours(ctx context.Context, logger *zap.Logger, req ApportionRequest) (*ApportionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid apportion request: %w", err)
	}

	runID := uuid.New().String()
	logger = logger.With(zap.String("run_id", runID))

	sessions, capacity, err := resolveCapacity(logger, req)
	if err != nil {
		return nil, err
	}

	weights := make([]float64, len(req.Groups))
	for i, g := range req.Groups {
		weights[i] = g.Weight
	}

	logger.Info("Apportioning hours",
		zap.Int("groups", len(req.Groups)),
		zap.Int("capacity", capacity),
		zap.Int("minimum_per_group", req.MinimumPerGroup))

	outcome, err := apportion.Run(apportion.Config{
		Weights:         weights,
		Capacity:        capacity,
		StepDivisions:   req.StepDivisions,
		MaxIterations:   req.MaxIterations,
		MinimumPerGroup: req.MinimumPerGroup,
		Logger:          logger,
	})
	if err != nil {
		logger.Warn("Apportionment failed", zap.Error(err))
		return nil, fmt.Errorf("failed to apportion %d hours: %w", capacity, err)
	}

	if violations := apportion.Verify(weights, capacity, req.MinimumPerGroup, outcome); len(violations) > 0 {
		for _, v := range violations {
			logger.Error("Apportionment check failed", zap.Int("index", v.Index), zap.String("description", v.Description))
		}
		return nil, fmt.Errorf("apportionment of %d hours failed %d checks: %s", capacity, len(violations), violations[0].Description)
	}

	groups := make([]GroupAllocation, len(req.Groups))
	for i, g := range req.Groups {
		groups[i] = GroupAllocation{
			Name:   g.Name,
			Weight: g.Weight,
			Units:  outcome.Allocations[i],
			Quota:  outcome.Quotas[i],
		}
	}

	logger.Info("Apportionment complete",
		zap.Float64("divisor", outcome.Divisor),
		zap.Int("iterations", outcome.Iterations),
		zap.Int("refinements", outcome.Refinements))

	return &ApportionResult{
		RunID:           runID,
		Sessions:        sessions,
		HoursPerSession: req.HoursPerSession,
		Capacity:        capacity,
		StandardDivisor: outcome.StandardDivisor,
		Divisor:         outcome.Divisor,
		Step:            outcome.Step,
		Iterations:      outcome.Iterations,
		Refinements:     outcome.Refinements,
		Groups:          groups,
	}, nil
}

// resolveCapacity returns the session count (zero when Capacity was given
// directly) and the capacity to apportion
func resolveCapacity(logger *zap.Logger, req ApportionRequest) (int, int, error) {
	if req.Capacity != 0 {
		logger.Debug("Using explicit capacity", zap.Int("capacity", req.Capacity))
		return 0, req.Capacity, nil
	}

	sessions := req.Sessions
	if req.SessionRule != "" {
		var err error
		sessions, err = CountSessions(req.SessionRule, req.TermStart, req.TermEnd)
		if err != nil {
			return 0, 0, err
		}
		logger.Debug("Counted sessions from rule",
			zap.String("rule", req.SessionRule),
			zap.Int("sessions", sessions))
	}

	capacity, err := Capacity(sessions, req.HoursPerSession)
	if err != nil {
		return 0, 0, err
	}

	return sessions, capacity, nil
}
