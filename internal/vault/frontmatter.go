package vault

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/noteline/internal/reconcile"
)

// ErrMalformedFrontmatter is returned for a note whose opening "---" is
// never closed or whose block is not a YAML mapping. It is the engine's
// ErrMalformedMeta, so callers of either package can match it.
var ErrMalformedFrontmatter = reconcile.ErrMalformedMeta

const delimiter = "---"

// note is a markdown file split into its frontmatter block and body.
type note struct {
	meta    *yaml.Node // mapping node; nil when the note has no block
	body    []byte
	newline string
}

func parseNote(content []byte) (*note, error) {
	n := &note{newline: "\n"}
	if bytes.Contains(content, []byte("\r\n")) {
		n.newline = "\r\n"
	}

	reader := bufio.NewReader(bytes.NewReader(content))
	first, err := reader.ReadString('\n')
	if strings.TrimSpace(first) != delimiter || err != nil {
		n.body = content
		return n, nil
	}

	var block strings.Builder
	for {
		line, err := reader.ReadString('\n')
		if strings.TrimRight(line, "\r\n") == delimiter {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: unterminated block", ErrMalformedFrontmatter)
		}
		block.WriteString(line)
	}

	rest, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	n.body = rest

	mapping, err := decodeMapping([]byte(block.String()))
	if err != nil {
		return nil, err
	}
	n.meta = mapping
	return n, nil
}

func decodeMapping(block []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFrontmatter, err)
	}
	if len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: block is not a mapping", ErrMalformedFrontmatter)
	}
	return root, nil
}

// values decodes the block into plain Go values. Timestamps stay strings.
func (n *note) values() (map[string]any, error) {
	out := make(map[string]any)
	if n.meta == nil {
		return out, nil
	}
	if err := n.meta.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFrontmatter, err)
	}
	return out, nil
}

// merge applies patch in place. Existing keys keep their position; new keys
// are appended in metadata key order.
func (n *note) merge(patch reconcile.MetaPatch) error {
	if n.meta == nil {
		n.meta = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}

	for _, key := range patch.Unset {
		if i := keyIndex(n.meta, key); i >= 0 {
			n.meta.Content = slices.Delete(n.meta.Content, i, i+2)
		}
	}

	for _, key := range orderedKeys(patch.Set) {
		val, err := encodeValue(patch.Set[key])
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		if i := keyIndex(n.meta, key); i >= 0 {
			n.meta.Content[i+1] = val
			continue
		}
		n.meta.Content = append(n.meta.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, val)
	}
	return nil
}

func (n *note) render() ([]byte, error) {
	if n.meta == nil {
		return n.body, nil
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	if len(n.meta.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(n.meta); err != nil {
			return nil, fmt.Errorf("encoding frontmatter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding frontmatter: %w", err)
		}
	}
	buf.WriteString(delimiter + "\n")

	head := buf.Bytes()
	if n.newline != "\n" {
		head = bytes.ReplaceAll(head, []byte("\n"), []byte(n.newline))
	}
	return append(head, n.body...), nil
}

func keyIndex(mapping *yaml.Node, key string) int {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return i
		}
	}
	return -1
}

func orderedKeys(set map[string]any) []string {
	keys := make([]string, 0, len(set))
	for _, k := range reconcile.MetaKeys {
		if _, ok := set[k]; ok {
			keys = append(keys, k)
		}
	}
	var extra []string
	for k := range set {
		if !slices.Contains(reconcile.MetaKeys, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return append(keys, extra...)
}

func encodeValue(v any) (*yaml.Node, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return nil, err
	}
	if node.Kind == yaml.SequenceNode {
		node.Style = yaml.FlowStyle
	}
	return &node, nil
}
