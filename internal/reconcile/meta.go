package reconcile

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/noteline/internal/domain"
)

// Metadata block keys.
const (
	KeyID           = "timelineId"
	KeyType         = "timelineType"
	KeyStart        = "timelineStart"
	KeyEnd          = "timelineEnd"
	KeyDate         = "timelineDate"
	KeyStatus       = "timelineStatus"
	KeyAssignee     = "timelineAssignee"
	KeyLabels       = "timelineLabels"
	KeyDependencies = "timelineDependencies"
	KeyPriority     = "timelinePriority"
	KeyProgress     = "timelineProgress"
)

// MetaKeys lists every metadata key in the order it is written to a new note.
var MetaKeys = []string{
	KeyID, KeyType, KeyStart, KeyEnd, KeyDate, KeyStatus,
	KeyAssignee, KeyLabels, KeyDependencies, KeyPriority, KeyProgress,
}

var taskOnlyKeys = []string{KeyStart, KeyEnd, KeyAssignee, KeyDependencies, KeyPriority, KeyProgress}

// NoteMeta is the normalized view of a note's metadata block. Nil and empty
// fields were absent from the block or held a value that could not be read.
type NoteMeta struct {
	ID           string
	Type         domain.ItemType
	Start        *time.Time
	End          *time.Time
	Date         *time.Time
	Status       *string
	Assignee     *string
	Labels       []string
	Dependencies []string
	Priority     *domain.Priority
	Progress     *int
}

// MetaPatch is a merge into a metadata block: keys in Set are written, keys
// in Unset are removed, and every other key is left alone.
type MetaPatch struct {
	Set   map[string]any
	Unset []string
}

// ParseMeta normalizes a raw metadata block. Unknown keys are ignored and
// unreadable values are dropped.
func ParseMeta(raw map[string]any) *NoteMeta {
	m := &NoteMeta{
		ID:           scalarString(raw[KeyID]),
		Start:        dateValue(raw[KeyStart]),
		End:          dateValue(raw[KeyEnd]),
		Date:         dateValue(raw[KeyDate]),
		Labels:       listValue(raw[KeyLabels]),
		Dependencies: listValue(raw[KeyDependencies]),
		Progress:     progressValue(raw[KeyProgress]),
	}
	// Enum values are matched case-insensitively; notes are typed by hand.
	switch t := domain.ItemType(strings.ToLower(scalarString(raw[KeyType]))); t {
	case domain.ItemTask, domain.ItemMilestone:
		m.Type = t
	}
	if s := strings.ToLower(scalarString(raw[KeyStatus])); s != "" {
		m.Status = &s
	}
	if s := scalarString(raw[KeyAssignee]); s != "" {
		m.Assignee = &s
	}
	if p := domain.Priority(strings.ToLower(scalarString(raw[KeyPriority]))); domain.ValidPriorities[p] {
		m.Priority = &p
	}
	return m
}

// MetaFromItem builds the complete metadata block for it. Keys that do not
// apply to the item, or whose field is unset, are listed for removal.
func MetaFromItem(it domain.Item) MetaPatch {
	b := it.Base()
	set := map[string]any{
		KeyID:     b.ID,
		KeyType:   string(it.Type()),
		KeyLabels: listOrEmpty(b.Labels),
	}
	var unset []string

	switch v := it.(type) {
	case *domain.Task:
		set[KeyStart] = domain.FormatDate(v.Start)
		set[KeyEnd] = domain.FormatDate(v.End)
		set[KeyStatus] = string(v.Status)
		set[KeyDependencies] = listOrEmpty(v.Dependencies)
		unset = append(unset, KeyDate)
		if v.Assignee != nil {
			set[KeyAssignee] = *v.Assignee
		} else {
			unset = append(unset, KeyAssignee)
		}
		if v.Priority != nil {
			set[KeyPriority] = string(*v.Priority)
		} else {
			unset = append(unset, KeyPriority)
		}
		if v.Progress != nil {
			set[KeyProgress] = *v.Progress
		} else {
			unset = append(unset, KeyProgress)
		}
	case *domain.Milestone:
		set[KeyDate] = domain.FormatDate(v.Date)
		unset = append(unset, taskOnlyKeys...)
		if v.Status != nil {
			set[KeyStatus] = string(*v.Status)
		} else {
			unset = append(unset, KeyStatus)
		}
	}
	return MetaPatch{Set: set, Unset: unset}
}

func listOrEmpty(vals []string) []string {
	if vals == nil {
		return []string{}
	}
	return vals
}

func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case time.Time:
		return domain.FormatDate(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any, []string, map[string]any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func dateValue(v any) *time.Time {
	switch x := v.(type) {
	case time.Time:
		d := time.Date(x.Year(), x.Month(), x.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	case string:
		s := strings.TrimSpace(x)
		// Accept full timestamps by keeping only the calendar part.
		if len(s) > len(domain.DateLayout) && (s[len(domain.DateLayout)] == 'T' || s[len(domain.DateLayout)] == ' ') {
			s = s[:len(domain.DateLayout)]
		}
		d, err := domain.ParseDate(s)
		if err != nil {
			return nil
		}
		return &d
	}
	return nil
}

// listValue accepts a YAML sequence or a single comma-separated string.
func listValue(v any) []string {
	var parts []string
	switch x := v.(type) {
	case nil:
		return nil
	case []string:
		parts = x
	case []any:
		parts = make([]string, 0, len(x))
		for _, e := range x {
			parts = append(parts, scalarString(e))
		}
	case string:
		parts = strings.Split(x, ",")
	default:
		parts = []string{scalarString(x)}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func progressValue(v any) *int {
	var n int
	switch x := v.(type) {
	case int:
		n = x
	case int64:
		n = int(x)
	case uint64:
		n = int(x)
	case float64:
		if x != math.Trunc(x) {
			return nil
		}
		n = int(x)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(x), "%")))
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	if n < 0 || n > 100 {
		return nil
	}
	return &n
}
