package services

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// CountSessions counts the occurrences of an RFC 5545 recurrence rule.
// When from and to are both set, occurrences within [from, to] are counted.
// Otherwise the rule must be bounded by COUNT or UNTIL.
func CountSessions(rule string, from, to time.Time) (int, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return 0, fmt.Errorf("invalid session rule: %w", err)
	}

	if !from.IsZero() && !to.IsZero() {
		if to.Before(from) {
			return 0, fmt.Errorf("term end %s is before term start %s",
				to.Format("2006-01-02"), from.Format("2006-01-02"))
		}
		return len(r.Between(from, to, true)), nil
	}

	if r.OrigOptions.Count == 0 && r.OrigOptions.Until.IsZero() {
		return 0, fmt.Errorf("session rule %q has no COUNT or UNTIL and no term window was given", rule)
	}

	return len(r.All()), nil
}

// Capacity multiplies the number of sessions by the hours each one needs
func Capacity(sessions, hoursPerSession int) (int, error) {
	if sessions < 0 || hoursPerSession < 0 {
		return 0, fmt.Errorf("sessions and hours per session must be non-negative, got %d and %d",
			sessions, hoursPerSession)
	}
	return sessions * hoursPerSession, nil
}
