package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/noteline/internal/domain"
	"github.com/spf13/pflag"
)

// dateValue is a pflag.Value holding an optional YYYY-MM-DD date.
type dateValue struct {
	t   *time.Time
	set bool
}

var _ pflag.Value = (*dateValue)(nil)

func newDateValue(p *time.Time) *dateValue {
	return &dateValue{t: p}
}

func (d *dateValue) Set(s string) error {
	t, err := domain.ParseDate(s)
	if err != nil {
		return fmt.Errorf("use YYYY-MM-DD format")
	}
	*d.t = t
	d.set = true
	return nil
}

func (d *dateValue) String() string {
	if d.t == nil || d.t.IsZero() {
		return ""
	}
	return domain.FormatDate(*d.t)
}

func (d *dateValue) Type() string { return "date" }

// ptr returns the date when the flag was given, nil otherwise.
func (d *dateValue) ptr() *time.Time {
	if !d.set {
		return nil
	}
	t := *d.t
	return &t
}

func parseTaskStatus(s string) (domain.TaskStatus, error) {
	st := domain.TaskStatus(strings.ToLower(s))
	if !domain.ValidTaskStatuses[st] {
		return "", fmt.Errorf("invalid task status %q (todo, in-progress, done, cancelled)", s)
	}
	return st, nil
}

func parseMilestoneStatus(s string) (domain.MilestoneStatus, error) {
	st := domain.MilestoneStatus(strings.ToLower(s))
	if !domain.ValidMilestoneStatuses[st] {
		return "", fmt.Errorf("invalid milestone status %q (pending, completed)", s)
	}
	return st, nil
}

func parsePriority(s string) (domain.Priority, error) {
	p := domain.Priority(strings.ToLower(s))
	if !domain.ValidPriorities[p] {
		return "", fmt.Errorf("invalid priority %q (low, medium, high)", s)
	}
	return p, nil
}

func parseProgress(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v > 100 {
		return 0, fmt.Errorf("progress must be a whole number from 0 to 100")
	}
	return v, nil
}

// optionalString returns nil for an unset or blank value.
func optionalString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
