package payload

import (
	"fmt"

	"github.com/alexanderramin/noteline/internal/domain"
)

// ValidateProject checks a decoded payload for shape errors before conversion.
// Returns a slice of all validation errors found.
func ValidateProject(p *ProjectPayload) []error {
	var errs []error

	if p.ProjectID == "" {
		errs = append(errs, fmt.Errorf("projectId is required"))
	}
	if p.Title == "" {
		errs = append(errs, fmt.Errorf("title is required"))
	}
	if p.CreatedAt.IsZero() {
		errs = append(errs, fmt.Errorf("createdAt is required"))
	}
	if p.UpdatedAt.IsZero() {
		errs = append(errs, fmt.Errorf("updatedAt is required"))
	} else if p.UpdatedAt.Before(p.CreatedAt) {
		errs = append(errs, fmt.Errorf("updatedAt %s is before createdAt %s", p.UpdatedAt, p.CreatedAt))
	}

	ids := make(map[string]bool, len(p.Items))
	for i := range p.Items {
		errs = append(errs, validateItem(fmt.Sprintf("items[%d]", i), &p.Items[i], ids)...)
	}

	return errs
}

func validateItem(prefix string, it *ItemPayload, ids map[string]bool) []error {
	var errs []error

	if it.ID == "" {
		errs = append(errs, fmt.Errorf("%s.id is required", prefix))
	} else if ids[it.ID] {
		errs = append(errs, fmt.Errorf("%s.id: duplicate id %q", prefix, it.ID))
	} else {
		ids[it.ID] = true
	}
	if it.Title == "" {
		errs = append(errs, fmt.Errorf("%s.title is required", prefix))
	}

	switch domain.ItemType(it.Type) {
	case domain.ItemTask:
		errs = append(errs, validateTask(prefix, it)...)
	case domain.ItemMilestone:
		errs = append(errs, validateMilestone(prefix, it)...)
	case "":
		errs = append(errs, fmt.Errorf("%s.type is required", prefix))
	default:
		errs = append(errs, fmt.Errorf("%s.type: invalid value %q", prefix, it.Type))
	}

	for j, h := range it.History {
		if h.At.IsZero() {
			errs = append(errs, fmt.Errorf("%s.history[%d].at is required", prefix, j))
		}
	}

	return errs
}

func validateTask(prefix string, it *ItemPayload) []error {
	var errs []error

	start, startErr := validateRequiredDate(prefix+".start", it.Start)
	end, endErr := validateRequiredDate(prefix+".end", it.End)
	if startErr != nil {
		errs = append(errs, startErr)
	}
	if endErr != nil {
		errs = append(errs, endErr)
	}
	if startErr == nil && endErr == nil && end < start {
		errs = append(errs, fmt.Errorf("%s.end %q must not be before start %q", prefix, end, start))
	}

	if it.Status == nil {
		errs = append(errs, fmt.Errorf("%s.status is required", prefix))
	} else if !domain.ValidTaskStatuses[domain.TaskStatus(*it.Status)] {
		errs = append(errs, fmt.Errorf("%s.status: invalid value %q", prefix, *it.Status))
	}
	if it.Priority != nil && !domain.ValidPriorities[domain.Priority(*it.Priority)] {
		errs = append(errs, fmt.Errorf("%s.priority: invalid value %q", prefix, *it.Priority))
	}
	if it.Progress != nil && (*it.Progress < 0 || *it.Progress > 100) {
		errs = append(errs, fmt.Errorf("%s.progress %d must be between 0 and 100", prefix, *it.Progress))
	}
	if it.DurationDays != nil && *it.DurationDays < 0 {
		errs = append(errs, fmt.Errorf("%s.durationDays must not be negative", prefix))
	}
	if it.Date != nil {
		errs = append(errs, fmt.Errorf("%s.date is not valid for a task", prefix))
	}

	return errs
}

func validateMilestone(prefix string, it *ItemPayload) []error {
	var errs []error

	if _, err := validateRequiredDate(prefix+".date", it.Date); err != nil {
		errs = append(errs, err)
	}
	if it.Status != nil && !domain.ValidMilestoneStatuses[domain.MilestoneStatus(*it.Status)] {
		errs = append(errs, fmt.Errorf("%s.status: invalid value %q", prefix, *it.Status))
	}
	if it.Start != nil || it.End != nil || it.Dependencies != nil {
		errs = append(errs, fmt.Errorf("%s: task fields are not valid for a milestone", prefix))
	}

	return errs
}

// validateRequiredDate returns the normalized date string so callers can
// compare dates lexically.
func validateRequiredDate(field string, s *string) (string, error) {
	if s == nil || *s == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	d, err := domain.ParseDate(*s)
	if err != nil {
		return "", fmt.Errorf("%s: invalid date format %q (expected YYYY-MM-DD)", field, *s)
	}
	return domain.FormatDate(d), nil
}
