package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ipl-apportion/pkg/core/services"
)

// SessionsCmd creates the sessions command
func SessionsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions <rrule>",
		Short: "Count the sessions a recurrence rule produces",
		Long: `Count the occurrences of an RFC 5545 recurrence rule, e.g.
"DTSTART=20250106T090000Z;FREQ=WEEKLY;BYDAY=MO,WE;COUNT=20".

Without --from and --to the rule must carry COUNT or UNTIL.
With --hours the resulting capacity (sessions × hours) is shown too.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseDateFlag(cmd, "from")
			if err != nil {
				return err
			}
			to, err := parseDateFlag(cmd, "to")
			if err != nil {
				return err
			}
			if from.IsZero() != to.IsZero() {
				return fmt.Errorf("--from and --to must be given together")
			}
			if !to.IsZero() {
				to = to.Add(24*time.Hour - time.Nanosecond)
			}
			hours, _ := cmd.Flags().GetInt("hours")

			app.Logger.Debug("sessions command",
				zap.String("rule", args[0]),
				zap.Time("from", from),
				zap.Time("to", to))

			count, err := services.CountSessions(args[0], from, to)
			if err != nil {
				return err
			}

			capacity, err := services.Capacity(count, hours)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if app.JSON {
				data, err := json.MarshalIndent(map[string]int{
					"sessions":        count,
					"hoursPerSession": hours,
					"capacity":        capacity,
				}, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode result: %w", err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			fmt.Fprintf(out, "Sessions: %d\n", count)
			if hours > 0 {
				fmt.Fprintf(out, "Capacity: %d (%d sessions × %d hours)\n", capacity, count, hours)
			}

			return nil
		},
	}

	cmd.Flags().String("from", "", "Count occurrences on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Count occurrences on or before this date (YYYY-MM-DD)")
	cmd.Flags().Int("hours", 0, "Hours per session, to show the resulting capacity")

	return cmd
}

// parseDateFlag parses an optional YYYY-MM-DD flag value
func parseDateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be a date (YYYY-MM-DD): %w", name, err)
	}
	return t, nil
}
