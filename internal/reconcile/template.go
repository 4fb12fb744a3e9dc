package reconcile

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/noteline/internal/domain"
)

// DefaultNoteBody is used when no template is configured.
const DefaultNoteBody = "## Description\n\n## Notes\n\n"

var unsafeFileChars = strings.NewReplacer(
	`\`, "_", "/", "_", ":", "_", "*", "_", "?", "_", `"`, "_", "<", "_", ">", "_", "|", "_",
)

// SafeFileName turns an item title into a note file name.
func SafeFileName(title string) string {
	return unsafeFileChars.Replace(strings.TrimSpace(title)) + ".md"
}

// RenderNote builds the initial content of a note mirroring it: a metadata
// block, a heading with the title, then the template body.
func RenderNote(it domain.Item, template string) (string, error) {
	fm, err := renderFrontmatter(MetaFromItem(it).Set)
	if err != nil {
		return "", err
	}
	body := template
	if strings.TrimSpace(body) == "" {
		body = DefaultNoteBody
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.WriteString(fm)
	sb.WriteString("---\n\n")
	fmt.Fprintf(&sb, "# %s\n\n", it.Base().Title)
	sb.WriteString(body)
	return sb.String(), nil
}

// renderFrontmatter encodes the set keys in MetaKeys order.
func renderFrontmatter(set map[string]any) (string, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range MetaKeys {
		v, ok := set[key]
		if !ok {
			continue
		}
		var val yaml.Node
		if err := val.Encode(v); err != nil {
			return "", fmt.Errorf("encoding %s: %w", key, err)
		}
		if val.Kind == yaml.SequenceNode {
			val.Style = yaml.FlowStyle
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, &val)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding frontmatter: %w", err)
	}
	return string(out), nil
}
