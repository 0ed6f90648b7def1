// Package pathresolve implements the Path & Ignore resolver (C1):
// normalising paths into a workspace, applying .gitignore/.aiderignore
// patterns plus a fixed denylist, and enumerating tracked text files.
// Grounded on internal/engine/ignore_test.go's use of
// github.com/sabhiram/go-gitignore, generalised from the teacher's
// single-purpose "does this commit touch only ignored files" check
// into the full resolve/ignored/enumerate contract of spec.md §4.1.
package pathresolve

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/loomwork/loomwork/internal/domain"
)

// TrackedExtensions is the default set of text extensions enumerate()
// yields (spec.md §6 "Tracked text extensions").
var TrackedExtensions = []string{
	".md", ".txt", ".py", ".js", ".ts", ".json", ".yaml", ".yml",
	".html", ".css", ".sh", ".bat", ".ps1", ".java", ".cpp", ".h",
	".c", ".cs", ".php", ".rb", ".go", ".rs",
}

// denylistPatterns are always excluded, regardless of ignore files
// (spec.md §4.1): ".git/*", hidden tool state files, node_modules,
// __pycache__, byte-code and OS metadata.
var denylistPatterns = []string{
	".git/*",
	".aider*",
	"node_modules/",
	"__pycache__/",
	"*.pyc",
	"*.pyo",
	".DS_Store",
	"Thumbs.db",
}

// Resolver normalises and validates paths within one workspace root and
// applies the combined ignore-pattern set. combined is guarded by mu so
// Reload (driven by the fsnotify watch loop below) can swap it while
// other goroutines call Ignored/Enumerate.
type Resolver struct {
	workspace string

	mu       sync.RWMutex
	combined *ignore.GitIgnore
}

// New loads .gitignore and .aiderignore from the workspace root (if
// present) and compiles them together with the fixed denylist.
func New(workspace string) (*Resolver, error) {
	abs, err := filepath.Abs(workspace)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		// Workspace may not exist yet in tests; fall back to the
		// cleaned absolute path so construction never fails solely on
		// a missing directory (callers that require existence check
		// separately).
		abs = filepath.Clean(abs)
	}

	r := &Resolver{workspace: abs}
	r.reloadLocked()
	return r, nil
}

// Reload re-reads .gitignore/.aiderignore from the workspace root and
// recompiles the combined pattern set, replacing it atomically so
// concurrent Ignored/Enumerate callers never observe a half-updated
// matcher. Called directly after an edit (for tests and one-shot
// callers) and automatically by Watch on file-system change events.
func (r *Resolver) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reloadLocked()
}

func (r *Resolver) reloadLocked() {
	var lines []string
	lines = append(lines, denylistPatterns...)
	lines = append(lines, readIgnoreFile(filepath.Join(r.workspace, ".gitignore"))...)
	lines = append(lines, readIgnoreFile(filepath.Join(r.workspace, ".aiderignore"))...)
	r.combined = ignore.CompileIgnoreLines(lines...)
}

// Watch runs an fsnotify loop over the workspace root, calling Reload
// whenever .gitignore or .aiderignore is written, created or removed,
// until ctx is cancelled (spec.md §9 design note on ad-hoc caches:
// "invalidated on mtime mismatch" generalised here from polling to a
// push notification, since the ambient stack standardises on
// github.com/fsnotify/fsnotify for this across the example pack). onErr,
// if non-nil, receives watcher errors; a nil onErr silently drops them.
func (r *Resolver) Watch(ctx context.Context, onErr func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(r.workspace); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			base := filepath.Base(event.Name)
			if base == ".gitignore" || base == ".aiderignore" {
				r.Reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if onErr != nil {
				onErr(err)
			}
		}
	}
}

func readIgnoreFile(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Workspace returns the resolved absolute workspace root.
func (r *Resolver) Workspace() string {
	return r.workspace
}

// Resolve normalises relOrAbs against the workspace root and ensures
// the result lies inside it, else ErrPathEscape (spec.md §4.1).
func (r *Resolver) Resolve(relOrAbs string) (string, error) {
	var candidate string
	if filepath.IsAbs(relOrAbs) {
		candidate = filepath.Clean(relOrAbs)
	} else {
		candidate = filepath.Clean(filepath.Join(r.workspace, relOrAbs))
	}

	rel, err := filepath.Rel(r.workspace, candidate)
	if err != nil {
		return "", domain.ErrPathEscape
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", domain.ErrPathEscape
	}
	return candidate, nil
}

// isHiddenToolState matches hidden-tool-state files that must never be
// treated as editable, even if untracked by the ignore files
// (spec.md §4.1: ".aider* ... never modifiable even if untracked").
func isHiddenToolState(relPath string) bool {
	base := filepath.Base(relPath)
	return strings.HasPrefix(base, ".aider")
}

// Ignored reports whether relPath matches the combined ignore patterns
// or the fixed denylist.
func (r *Resolver) Ignored(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	if isHiddenToolState(relPath) {
		return true
	}
	r.mu.RLock()
	combined := r.combined
	r.mu.RUnlock()
	if combined == nil {
		return false
	}
	return combined.MatchesPath(relPath)
}

// Enumerate walks the workspace and returns tracked relative paths with
// one of the given extensions, excluding ignored entries, in
// deterministic sorted order (spec.md §4.1).
func (r *Resolver) Enumerate(extensions []string) ([]string, error) {
	extSet := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		extSet[e] = true
	}

	var out []string
	err := filepath.Walk(r.workspace, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries, don't abort the walk
		}
		rel, relErr := filepath.Rel(r.workspace, path)
		if relErr != nil {
			return nil
		}
		if rel == "." {
			return nil
		}
		relSlash := filepath.ToSlash(rel)

		if info.IsDir() {
			if r.Ignored(relSlash + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !extSet[filepath.Ext(path)] {
			return nil
		}
		if r.Ignored(relSlash) {
			return nil
		}
		out = append(out, relSlash)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
