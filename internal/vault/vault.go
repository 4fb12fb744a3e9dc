// Package vault stores notes as markdown files with a YAML frontmatter block
// under a root directory. Paths handed in and out are slash-separated and
// relative to the root.
package vault

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/alexanderramin/noteline/internal/reconcile"
)

// NoteExt is the extension of files treated as notes.
const NoteExt = ".md"

// ErrOutsideVault is returned for paths that would resolve outside the root.
var ErrOutsideVault = errors.New("path escapes vault root")

// Vault implements reconcile.Documents on the local filesystem.
type Vault struct {
	root string

	mu      sync.Mutex
	written map[string][sha256.Size]byte
}

func New(root string) *Vault {
	return &Vault{root: root, written: make(map[string][sha256.Size]byte)}
}

func (v *Vault) Root() string { return v.root }

func (v *Vault) resolve(rel string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(rel, `\`, "/"))
	if clean == "." || !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideVault, rel)
	}
	return filepath.Join(v.root, filepath.FromSlash(clean)), nil
}

// Rel converts an absolute filesystem path under the root into a vault path.
func (v *Vault) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(v.root, abs)
	if err != nil {
		return "", err
	}
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %s", ErrOutsideVault, abs)
	}
	return filepath.ToSlash(rel), nil
}

func (v *Vault) read(rel string) (string, *note, error) {
	abs, err := v.resolve(rel)
	if err != nil {
		return "", nil, err
	}
	content, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return abs, nil, fmt.Errorf("%s: %w", rel, reconcile.ErrDocumentNotFound)
	}
	if err != nil {
		return abs, nil, fmt.Errorf("reading %s: %w", rel, err)
	}
	n, err := parseNote(content)
	if err != nil {
		return abs, nil, fmt.Errorf("parsing %s: %w", rel, err)
	}
	return abs, n, nil
}

func (v *Vault) ReadMeta(_ context.Context, rel string) (map[string]any, bool, error) {
	_, n, err := v.read(rel)
	if err != nil {
		return nil, false, err
	}
	if n.meta == nil {
		return nil, false, nil
	}
	vals, err := n.values()
	if err != nil {
		return nil, false, fmt.Errorf("decoding %s: %w", rel, err)
	}
	return vals, true, nil
}

// MergeMeta rewrites the note with patch applied to its block, adding a block
// when the note has none. The body is kept byte for byte.
func (v *Vault) MergeMeta(_ context.Context, rel string, patch reconcile.MetaPatch) error {
	abs, n, err := v.read(rel)
	if err != nil {
		return err
	}
	if err := n.merge(patch); err != nil {
		return fmt.Errorf("merging metadata into %s: %w", rel, err)
	}
	content, err := n.render()
	if err != nil {
		return fmt.Errorf("rendering %s: %w", rel, err)
	}
	if err := atomicWrite(abs, content); err != nil {
		return fmt.Errorf("writing %s: %w", rel, err)
	}
	v.remember(rel, content)
	return nil
}

// Create writes a new note. It never replaces an existing file.
func (v *Vault) Create(_ context.Context, rel, content string) error {
	abs, err := v.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("creating folder for %s: %w", rel, err)
	}
	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s: %w", rel, reconcile.ErrDocumentExists)
	}
	if err != nil {
		return fmt.Errorf("creating %s: %w", rel, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", rel, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", rel, err)
	}
	v.remember(rel, []byte(content))
	return nil
}

// List returns every note under folder, sorted. Hidden directories such as
// .obsidian are skipped. An empty folder means the whole vault.
func (v *Vault) List(ctx context.Context, folder string) ([]string, error) {
	dir := v.root
	if f := strings.Trim(folder, "/"); f != "" {
		var err error
		if dir, err = v.resolve(f); err != nil {
			return nil, err
		}
	}

	var out []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != dir && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isNoteFile(d.Name()) {
			return nil
		}
		rel, err := v.Rel(p)
		if err != nil {
			return err
		}
		out = append(out, rel)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", folder, err)
	}
	slices.Sort(out)
	return out, nil
}

// IsOwnWrite reports whether the note's current content is exactly what this
// vault last wrote to it. Change notifications for such notes are echoes of
// the vault's own writes.
func (v *Vault) IsOwnWrite(rel string) bool {
	abs, err := v.resolve(rel)
	if err != nil {
		return false
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	sum, ok := v.written[path.Clean(rel)]
	return ok && sum == sha256.Sum256(content)
}

func (v *Vault) remember(rel string, content []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.written[path.Clean(rel)] = sha256.Sum256(content)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isNoteFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), NoteExt) && !isHidden(name)
}

// atomicWrite replaces target through a temp file in the same directory so a
// reader never sees a half-written note.
func atomicWrite(target string, content []byte) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".noteline-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
