package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/noteline/internal/domain"
)

// resolveProjectID resolves a project reference, which can be:
//   - A full project ID
//   - A unique ID prefix (the list view shows the first 8 characters)
//   - A project title, case-insensitive
func resolveProjectID(app *App, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("project ID is required")
	}

	projects := app.Store.GetProjects()

	for _, p := range projects {
		if p.ProjectID == input {
			return p.ProjectID, nil
		}
	}

	var matches []string
	for _, p := range projects {
		if strings.HasPrefix(p.ProjectID, input) {
			matches = append(matches, p.ProjectID)
		}
	}
	if len(matches) == 0 {
		for _, p := range projects {
			if strings.EqualFold(p.Title, input) {
				matches = append(matches, p.ProjectID)
			}
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("project not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("project reference %q is ambiguous (%d matches)", input, len(matches))
	}
}

// resolveItem resolves an item reference within a project by exact ID or
// unique ID prefix.
func resolveItem(app *App, projectID, input string) (domain.Item, error) {
	if input == "" {
		return nil, fmt.Errorf("item ID is required")
	}
	p, ok := app.Store.GetProject(projectID)
	if !ok {
		return nil, fmt.Errorf("project not found: %q", projectID)
	}
	if it, _ := p.FindItem(input); it != nil {
		return it, nil
	}

	var matches []domain.Item
	for _, it := range p.Items {
		if strings.HasPrefix(it.Base().ID, input) {
			matches = append(matches, it)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("item not found in %s: %q", p.Title, input)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("item ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}
