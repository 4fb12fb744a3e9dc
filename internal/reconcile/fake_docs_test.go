package reconcile

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// fakeDocs is an in-memory Documents. A note exists when it has an entry in
// metas; a nil block means the note has no metadata.
type fakeDocs struct {
	mu       sync.Mutex
	metas    map[string]map[string]any
	contents map[string]string
	broken   map[string]bool
	mergeErr error
	merges   int

	// onMerge runs after a successful merge, like a change notification
	// fired by the write itself.
	onMerge func(path string)
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{
		metas:    make(map[string]map[string]any),
		contents: make(map[string]string),
		broken:   make(map[string]bool),
	}
}

// putBroken stores a note whose metadata block cannot be parsed.
func (f *fakeDocs) putBroken(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metas[path] = nil
	f.broken[path] = true
}

func (f *fakeDocs) put(path string, meta map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metas[path] = meta
}

func (f *fakeDocs) meta(path string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.metas[path])
}

func (f *fakeDocs) ReadMeta(_ context.Context, path string) (map[string]any, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, exists := f.metas[path]
	if !exists {
		return nil, false, ErrDocumentNotFound
	}
	if f.broken[path] {
		return nil, false, fmt.Errorf("parsing %s: %w", path, ErrMalformedMeta)
	}
	if m == nil {
		return nil, false, nil
	}
	return maps.Clone(m), true, nil
}

func (f *fakeDocs) MergeMeta(_ context.Context, path string, patch MetaPatch) error {
	f.mu.Lock()
	if f.mergeErr != nil {
		f.mu.Unlock()
		return f.mergeErr
	}
	m, exists := f.metas[path]
	if !exists {
		f.mu.Unlock()
		return ErrDocumentNotFound
	}
	if m == nil {
		m = make(map[string]any)
	}
	for k, v := range patch.Set {
		m[k] = v
	}
	for _, k := range patch.Unset {
		delete(m, k)
	}
	f.metas[path] = m
	f.merges++
	hook := f.onMerge
	f.mu.Unlock()

	if hook != nil {
		hook(path)
	}
	return nil
}

func (f *fakeDocs) Create(_ context.Context, path, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.metas[path]; exists {
		return ErrDocumentExists
	}
	f.metas[path] = nil
	f.contents[path] = content
	return nil
}

func (f *fakeDocs) List(_ context.Context, folder string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(folder, "/") + "/"
	var out []string
	for p := range f.metas {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out, nil
}
