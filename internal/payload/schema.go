// Package payload defines the serialized form of a project, used by export,
// import and whole-store snapshots. It mirrors the domain model field for
// field; dates travel as YYYY-MM-DD strings and timestamps as RFC 3339.
package payload

import "time"

// ProjectPayload is the top-level JSON structure for a single project.
type ProjectPayload struct {
	ProjectID   string        `json:"projectId"`
	Title       string        `json:"title"`
	Description *string       `json:"description,omitempty"`
	Items       []ItemPayload `json:"items"`
	Tags        []string      `json:"tags"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// ItemPayload is a tagged variant: Type selects which of the variant fields
// are meaningful. Task-only and milestone-only fields are omitted for the
// other variant.
type ItemPayload struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Title    string           `json:"title"`
	NotePath *string          `json:"notePath,omitempty"`
	Labels   []string         `json:"labels"`
	History  []HistoryPayload `json:"history"`

	// Task
	Start        *string   `json:"start,omitempty"`
	End          *string   `json:"end,omitempty"`
	DurationDays *int      `json:"durationDays,omitempty"`
	Assignee     *string   `json:"assignee,omitempty"`
	Dependencies *[]string `json:"dependencies,omitempty"`
	Priority     *string   `json:"priority,omitempty"`
	Progress     *int      `json:"progress,omitempty"`

	// Milestone
	Date *string `json:"date,omitempty"`

	// Required for tasks, optional for milestones.
	Status *string `json:"status,omitempty"`
}

// HistoryPayload is one audit entry.
type HistoryPayload struct {
	By      string            `json:"by"`
	At      time.Time         `json:"at"`
	Changes string            `json:"changes"`
	Before  map[string]string `json:"before"`
	After   map[string]string `json:"after"`
}
