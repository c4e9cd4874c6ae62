package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ipl-apportion/internal/config"
	"github.com/jakechorley/ipl-apportion/pkg/core/apportion"
	"github.com/jakechorley/ipl-apportion/pkg/core/services"
)

// apportionOptions holds the flag values that were explicitly set
type apportionOptions struct {
	capacity        *int
	sessions        *int
	hoursPerSession *int
	sessionRule     *string
	minimumPerGroup *int
	groupsFile      string
}

// ApportionCmd creates the apportion command
func ApportionCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apportion [weight | name=weight ...]",
		Short: "Apportion hours across groups in proportion to their weights",
		Long: `Apportion a fixed number of hours across groups (e.g. lab slots) in proportion
to each group's weight (e.g. enrolment) using Jefferson's method.

Groups come from the arguments, from --groups-file, or from the config file.
A group with weight 0 is excluded and shown as an empty cell.
The hours to distribute are --capacity, or sessions × --hours, where sessions
is --sessions or the number of occurrences of --rule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := apportionOptions{}
			opts.groupsFile, _ = cmd.Flags().GetString("groups-file")
			if cmd.Flags().Changed("capacity") {
				v, _ := cmd.Flags().GetInt("capacity")
				opts.capacity = &v
			}
			if cmd.Flags().Changed("sessions") {
				v, _ := cmd.Flags().GetInt("sessions")
				opts.sessions = &v
			}
			if cmd.Flags().Changed("hours") {
				v, _ := cmd.Flags().GetInt("hours")
				opts.hoursPerSession = &v
			}
			if cmd.Flags().Changed("rule") {
				v, _ := cmd.Flags().GetString("rule")
				opts.sessionRule = &v
			}
			if cmd.Flags().Changed("minimum") {
				v, _ := cmd.Flags().GetInt("minimum")
				opts.minimumPerGroup = &v
			}

			columns := app.Cfg.GridColumns
			if cmd.Flags().Changed("columns") {
				columns, _ = cmd.Flags().GetInt("columns")
			}
			zeroDisplay := app.Cfg.ZeroDisplay
			if cmd.Flags().Changed("zero-display") {
				zeroDisplay, _ = cmd.Flags().GetString("zero-display")
			}
			if zeroDisplay != config.ZeroDisplayZero && zeroDisplay != config.ZeroDisplayBlank {
				return fmt.Errorf("zero-display must be %q or %q, got %q", config.ZeroDisplayZero, config.ZeroDisplayBlank, zeroDisplay)
			}

			req, err := buildRequest(app.Cfg, opts, args)
			if err != nil {
				return err
			}

			app.Logger.Debug("apportion command",
				zap.Int("groups", len(req.Groups)),
				zap.Int("capacity", req.Capacity),
				zap.Int("sessions", req.Sessions),
				zap.Int("hours_per_session", req.HoursPerSession),
				zap.String("session_rule", req.SessionRule))

			result, err := services.ApportionHours(app.Ctx, app.Logger, req)
			if err != nil {
				return fmt.Errorf("apportionment failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if app.JSON {
				return renderJSON(out, result)
			}

			renderSummary(out, result)
			if columns > 0 {
				renderGrid(out, result, columns, zeroDisplay)
			} else {
				renderTable(out, result, zeroDisplay)
			}

			return nil
		},
	}

	cmd.Flags().Int("capacity", 0, "Total hours to distribute (overrides sessions × hours)")
	cmd.Flags().Int("sessions", 0, "Number of sessions")
	cmd.Flags().Int("hours", 0, "Hours per session")
	cmd.Flags().String("rule", "", "RRULE whose occurrences count the sessions")
	cmd.Flags().Int("minimum", 0, "Hours every non-excluded group receives before apportioning the rest")
	cmd.Flags().String("groups-file", "", "YAML file with a top-level groups list")
	cmd.Flags().Int("columns", 0, "Render the result as a grid with this many columns (7 = week)")
	cmd.Flags().String("zero-display", "", "How a group allocated nothing is shown: zero or blank")

	return cmd
}

// buildRequest merges the config, the explicitly set flags and the group arguments
func buildRequest(cfg *config.Config, opts apportionOptions, args []string) (services.ApportionRequest, error) {
	req := services.ApportionRequest{
		Sessions:        cfg.Sessions,
		HoursPerSession: cfg.HoursPerSession,
		SessionRule:     cfg.SessionRule,
		MinimumPerGroup: cfg.MinimumPerGroup,
		StepDivisions:   cfg.StepDivisions,
		MaxIterations:   cfg.MaxIterations,
	}

	start, end, err := cfg.TermWindow()
	if err != nil {
		return req, err
	}
	req.TermStart, req.TermEnd = start, end

	if opts.sessions != nil && opts.sessionRule != nil {
		return req, fmt.Errorf("--sessions and --rule cannot be used together")
	}

	if opts.capacity != nil {
		req.Capacity = *opts.capacity
	}
	if opts.sessions != nil {
		req.Sessions = *opts.sessions
		// An explicit session count replaces the configured rule
		req.SessionRule = ""
	}
	if opts.hoursPerSession != nil {
		req.HoursPerSession = *opts.hoursPerSession
	}
	if opts.sessionRule != nil {
		req.SessionRule = *opts.sessionRule
	}
	if opts.minimumPerGroup != nil {
		req.MinimumPerGroup = *opts.minimumPerGroup
	}

	switch {
	case len(args) > 0:
		req.Groups, err = parseGroupArgs(args)
		if err != nil {
			return req, err
		}
	case opts.groupsFile != "":
		groups, err := config.LoadGroupsFromPath(opts.groupsFile)
		if err != nil {
			return req, err
		}
		req.Groups = toGroupWeights(groups)
	case len(cfg.Groups) > 0:
		req.Groups = toGroupWeights(cfg.Groups)
	default:
		return req, fmt.Errorf("no groups given: pass weights as arguments, use --groups-file, or add groups to the config")
	}

	return req, nil
}

// parseGroupArgs reads "weight" or "name=weight" arguments. Unnamed groups
// are numbered from 1.
func parseGroupArgs(args []string) ([]services.GroupWeight, error) {
	names := make([]string, len(args))
	raw := make([]string, len(args))
	for i, arg := range args {
		name, value, found := strings.Cut(arg, "=")
		if !found {
			name, value = fmt.Sprintf("Group %d", i+1), arg
		}
		names[i] = strings.TrimSpace(name)
		raw[i] = value
	}

	weights, err := apportion.ParseWeights(raw)
	if err != nil {
		return nil, err
	}

	groups := make([]services.GroupWeight, len(args))
	for i := range args {
		groups[i] = services.GroupWeight{Name: names[i], Weight: weights[i]}
	}
	return groups, nil
}

func toGroupWeights(groups []config.Group) []services.GroupWeight {
	result := make([]services.GroupWeight, len(groups))
	for i, g := range groups {
		result[i] = services.GroupWeight{Name: g.Name, Weight: g.Weight}
	}
	return result
}
