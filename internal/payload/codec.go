package payload

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexanderramin/noteline/internal/domain"
)

// ErrMalformed is wrapped by every decode failure: syntax errors, wrong
// shapes and validation failures alike.
var ErrMalformed = errors.New("malformed project payload")

// EncodeProject serializes a single project as indented JSON.
func EncodeProject(p *domain.Project) ([]byte, error) {
	data, err := json.MarshalIndent(FromProject(p), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding project %s: %w", p.ProjectID, err)
	}
	return data, nil
}

// EncodeProjects serializes a list of projects as an indented JSON array.
func EncodeProjects(projects []*domain.Project) ([]byte, error) {
	out := make([]ProjectPayload, 0, len(projects))
	for _, p := range projects {
		out = append(out, FromProject(p))
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding projects: %w", err)
	}
	return data, nil
}

// DecodeProject parses and validates a single project payload. Nothing is
// returned unless the whole payload is well-formed.
func DecodeProject(data []byte) (*domain.Project, error) {
	var p ProjectPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return toValidProject(&p)
}

// DecodeProjects parses and validates a JSON array of project payloads.
// Duplicate project ids are rejected.
func DecodeProjects(data []byte) ([]*domain.Project, error) {
	var raw []ProjectPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected a JSON array of projects", ErrMalformed)
	}

	seen := make(map[string]bool, len(raw))
	projects := make([]*domain.Project, 0, len(raw))
	for i := range raw {
		if seen[raw[i].ProjectID] {
			return nil, fmt.Errorf("%w: [%d]: duplicate projectId %q", ErrMalformed, i, raw[i].ProjectID)
		}
		seen[raw[i].ProjectID] = true

		p, err := toValidProject(&raw[i])
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func toValidProject(p *ProjectPayload) (*domain.Project, error) {
	if errs := ValidateProject(p); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, errors.Join(errs...))
	}
	project, err := ToProject(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return project, nil
}
