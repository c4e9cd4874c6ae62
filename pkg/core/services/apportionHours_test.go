package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jakechorley/ipl-apportion/pkg/core/apportion"
)

func groups(weights ...float64) []GroupWeight {
	result := make([]GroupWeight, len(weights))
	for i, w := range weights {
		result[i] = GroupWeight{Name: string(rune('A' + i)), Weight: w}
	}
	return result
}

func TestApportionHours_SessionsTimesHours(t *testing.T) {
	result, err := ApportionHours(context.Background(), zap.NewNop(), ApportionRequest{
		Groups:          groups(100, 50, 50),
		Sessions:        2,
		HoursPerSession: 2,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.Sessions)
	assert.Equal(t, 4, result.Capacity)
	assert.Equal(t, 50.0, result.StandardDivisor)

	require.Len(t, result.Groups, 3)
	assert.Equal(t, "A", result.Groups[0].Name)
	require.NotNil(t, result.Groups[0].Units)
	assert.Equal(t, 2, *result.Groups[0].Units)
	assert.Equal(t, 1, *result.Groups[1].Units)
	assert.Equal(t, 1, *result.Groups[2].Units)
}

func TestApportionHours_ExplicitCapacityWins(t *testing.T) {
	result, err := ApportionHours(context.Background(), zap.NewNop(), ApportionRequest{
		Groups:          groups(0, 100),
		Capacity:        3,
		Sessions:        10,
		HoursPerSession: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Capacity)
	assert.Equal(t, 0, result.Sessions)
	assert.Nil(t, result.Groups[0].Units)
	assert.Nil(t, result.Groups[0].Quota)
	require.NotNil(t, result.Groups[1].Units)
	assert.Equal(t, 3, *result.Groups[1].Units)
}

func TestApportionHours_SessionRule(t *testing.T) {
	result, err := ApportionHours(context.Background(), zap.NewNop(), ApportionRequest{
		Groups:          groups(70, 30),
		SessionRule:     "DTSTART=20250106T090000Z;FREQ=WEEKLY;COUNT=5",
		HoursPerSession: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Sessions)
	assert.Equal(t, 5, result.Capacity)
	assert.Equal(t, 4, *result.Groups[0].Units)
	assert.Equal(t, 1, *result.Groups[1].Units)
}

func TestApportionHours_MinimumPerGroup(t *testing.T) {
	result, err := ApportionHours(context.Background(), zap.NewNop(), ApportionRequest{
		Groups:          groups(100, 0, 50, 50),
		Capacity:        7,
		MinimumPerGroup: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, *result.Groups[0].Units)
	assert.Nil(t, result.Groups[1].Units)
	assert.Equal(t, 2, *result.Groups[2].Units)
	assert.Equal(t, 2, *result.Groups[3].Units)
}

func TestApportionHours_ZeroCapacity(t *testing.T) {
	_, err := ApportionHours(context.Background(), zap.NewNop(), ApportionRequest{
		Groups:          groups(100),
		Sessions:        0,
		HoursPerSession: 3,
	})
	assert.ErrorIs(t, err, apportion.ErrInvalidCapacity)
}

func TestApportionHours_NegativeCapacity(t *testing.T) {
	_, err := ApportionHours(context.Background(), zap.NewNop(), ApportionRequest{
		Groups:          groups(100),
		Capacity:        -5,
		Sessions:        2,
		HoursPerSession: 3,
	})
	assert.ErrorIs(t, err, apportion.ErrInvalidCapacity)
}

func TestApportionHours_NoEligibleWeights(t *testing.T) {
	_, err := ApportionHours(context.Background(), zap.NewNop(), ApportionRequest{
		Groups:   groups(0, 0),
		Capacity: 5,
	})
	assert.ErrorIs(t, err, apportion.ErrNoEligibleWeights)
}

func TestApportionHours_MissingGroupName(t *testing.T) {
	_, err := ApportionHours(context.Background(), zap.NewNop(), ApportionRequest{
		Groups:   []GroupWeight{{Name: "", Weight: 10}},
		Capacity: 5,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid apportion request")
}

func TestApportionHours_NegativeSessions(t *testing.T) {
	_, err := ApportionHours(context.Background(), zap.NewNop(), ApportionRequest{
		Groups:          groups(10),
		Sessions:        -1,
		HoursPerSession: 2,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid apportion request")
}

func TestApportionHours_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ApportionHours(ctx, zap.NewNop(), ApportionRequest{
		Groups:   groups(10),
		Capacity: 1,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApportionHours_LogsRunID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	result, err := ApportionHours(context.Background(), zap.New(core), ApportionRequest{
		Groups:   groups(70, 30),
		Capacity: 5,
	})
	require.NoError(t, err)

	complete := logs.FilterMessage("Apportionment complete").All()
	require.Len(t, complete, 1)
	assert.Equal(t, result.RunID, complete[0].ContextMap()["run_id"])
}

func TestApportionHours_DistinctRunIDs(t *testing.T) {
	req := ApportionRequest{Groups: groups(1, 2), Capacity: 3}

	first, err := ApportionHours(context.Background(), zap.NewNop(), req)
	require.NoError(t, err)
	second, err := ApportionHours(context.Background(), zap.NewNop(), req)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Groups, second.Groups)
}

func TestCountSessions_Bounded(t *testing.T) {
	count, err := CountSessions("DTSTART=20250106T090000Z;FREQ=WEEKLY;BYDAY=MO,WE;COUNT=20", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 20, count)
}

func TestCountSessions_TermWindow(t *testing.T) {
	from := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)

	// Mondays Jan 6, 13, 20, 27 and Feb 3
	count, err := CountSessions("DTSTART=20250106T090000Z;FREQ=WEEKLY;BYDAY=MO", from, to)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestCountSessions_Unbounded(t *testing.T) {
	_, err := CountSessions("FREQ=WEEKLY;BYDAY=MO", time.Time{}, time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no COUNT or UNTIL")
}

func TestCountSessions_InvalidRule(t *testing.T) {
	_, err := CountSessions("NOT_A_RULE", time.Time{}, time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid session rule")
}

func TestCountSessions_ReversedWindow(t *testing.T) {
	from := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	_, err := CountSessions("FREQ=DAILY", from, to)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before term start")
}

func TestCapacity(t *testing.T) {
	capacity, err := Capacity(4, 3)
	require.NoError(t, err)
	assert.Equal(t, 12, capacity)

	_, err = Capacity(-1, 3)
	assert.Error(t, err)
}
