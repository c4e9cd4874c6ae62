package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/ipl-apportion/internal/config"
	"github.com/jakechorley/ipl-apportion/pkg/core/apportion"
	"github.com/jakechorley/ipl-apportion/pkg/core/services"
)

func newTestApp() *AppContext {
	return &AppContext{
		Cfg:    config.Default(),
		Logger: zap.NewNop(),
		Ctx:    context.Background(),
	}
}

func intPtr(v int) *int {
	return &v
}

func TestApportionCmd_Table(t *testing.T) {
	app := newTestApp()
	cmd := ApportionCmd(app)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--sessions", "2", "--hours", "2", "Mon 09:00=100", "Mon 10:00=50", "Mon 11:00=50", "Mon 12:00=0"})

	require.NoError(t, cmd.Execute())

	output := out.String()
	assert.Contains(t, output, "Apportionment Results")
	assert.Contains(t, output, "Capacity:         4 (2 sessions × 2 hours)")
	assert.Contains(t, output, "Mon 09:00")
	assert.Contains(t, output, "Mon 12:00")
	assert.Contains(t, output, "Hours")
}

func TestApportionCmd_JSON(t *testing.T) {
	app := newTestApp()
	app.JSON = true
	cmd := ApportionCmd(app)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--capacity", "5", "70", "30", "0"})

	require.NoError(t, cmd.Execute())

	var result services.ApportionResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))

	assert.Equal(t, 5, result.Capacity)
	require.Len(t, result.Groups, 3)
	assert.Equal(t, "Group 1", result.Groups[0].Name)
	assert.Equal(t, intPtr(4), result.Groups[0].Units)
	assert.Equal(t, intPtr(1), result.Groups[1].Units)
	assert.Nil(t, result.Groups[2].Units)
}

func TestApportionCmd_Grid(t *testing.T) {
	app := newTestApp()
	cmd := ApportionCmd(app)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--capacity", "7", "--columns", "7", "1", "1", "1", "1", "1", "1", "1"})

	require.NoError(t, cmd.Execute())

	output := out.String()
	assert.Contains(t, output, "Mon")
	assert.Contains(t, output, "Sun")
}

func TestApportionCmd_InvalidCapacity(t *testing.T) {
	app := newTestApp()
	cmd := ApportionCmd(app)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"100"})

	err := cmd.Execute()
	assert.ErrorIs(t, err, apportion.ErrInvalidCapacity)
}

func TestApportionCmd_NonNumericWeight(t *testing.T) {
	app := newTestApp()
	cmd := ApportionCmd(app)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--capacity", "3", "A=ten", "B=20"})

	err := cmd.Execute()
	assert.ErrorIs(t, err, apportion.ErrNonNumericInput)
}

func TestApportionCmd_BadZeroDisplay(t *testing.T) {
	app := newTestApp()
	cmd := ApportionCmd(app)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--capacity", "3", "--zero-display", "dash", "10"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero-display")
}

func TestBuildRequest_FromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.HoursPerSession = 2
	cfg.SessionRule = "FREQ=WEEKLY;BYDAY=MO"
	cfg.TermStart = "2025-01-06"
	cfg.TermEnd = "2025-02-03"
	cfg.MinimumPerGroup = 1
	cfg.Groups = []config.Group{{Name: "Mon 09:00", Weight: 319}}

	req, err := buildRequest(cfg, apportionOptions{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, req.HoursPerSession)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO", req.SessionRule)
	assert.Equal(t, 2025, req.TermStart.Year())
	assert.False(t, req.TermEnd.IsZero())
	assert.Equal(t, 1, req.MinimumPerGroup)
	assert.Equal(t, 10000, req.StepDivisions)
	assert.Equal(t, []services.GroupWeight{{Name: "Mon 09:00", Weight: 319}}, req.Groups)
}

func TestBuildRequest_FlagsOverrideConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Sessions = 10
	cfg.HoursPerSession = 2
	cfg.SessionRule = "FREQ=WEEKLY;COUNT=3"
	cfg.Groups = []config.Group{{Name: "ignored", Weight: 1}}

	sessions, hours, minimum := 4, 3, 2
	req, err := buildRequest(cfg, apportionOptions{
		sessions:        &sessions,
		hoursPerSession: &hours,
		minimumPerGroup: &minimum,
	}, []string{"A=10", "20"})
	require.NoError(t, err)

	assert.Equal(t, 4, req.Sessions)
	assert.Empty(t, req.SessionRule, "Explicit sessions replace the configured rule")
	assert.Equal(t, 3, req.HoursPerSession)
	assert.Equal(t, 2, req.MinimumPerGroup)
	assert.Equal(t, []services.GroupWeight{
		{Name: "A", Weight: 10},
		{Name: "Group 2", Weight: 20},
	}, req.Groups)
}

func TestBuildRequest_SessionsAndRuleConflict(t *testing.T) {
	sessions, rule := 4, "FREQ=WEEKLY;COUNT=3"
	_, err := buildRequest(config.Default(), apportionOptions{
		sessions:    &sessions,
		sessionRule: &rule,
	}, []string{"10"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--sessions and --rule cannot be used together")
}

func TestBuildRequest_GroupsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.yaml")
	content := `
groups:
  - name: "Tue 14:00"
    weight: 42
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	req, err := buildRequest(config.Default(), apportionOptions{groupsFile: path}, nil)
	require.NoError(t, err)
	assert.Equal(t, []services.GroupWeight{{Name: "Tue 14:00", Weight: 42}}, req.Groups)
}

func TestBuildRequest_NoGroups(t *testing.T) {
	_, err := buildRequest(config.Default(), apportionOptions{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no groups given")
}

func TestParseGroupArgs_BlankWeightIsExcluded(t *testing.T) {
	groups, err := parseGroupArgs([]string{"Wed 09:00=", "12"})
	require.NoError(t, err)

	assert.Equal(t, []services.GroupWeight{
		{Name: "Wed 09:00", Weight: 0},
		{Name: "Group 2", Weight: 12},
	}, groups)
}
