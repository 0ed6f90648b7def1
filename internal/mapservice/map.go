// Package mapservice implements the Map service (C4): a single
// per-workspace artifact listing every tracked file with a role icon,
// token estimate and health status. Grounded on
// original_source/managers/map_manager.py's generate_map/_get_available_files
// for the "walk, classify, write" shape; the hierarchical per-directory
// GPT-driven analysis is replaced with the spec's deterministic,
// offline regenerate/update_entry contract (spec.md §4.4).
package mapservice

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/loomwork/loomwork/internal/domain"
	"github.com/loomwork/loomwork/internal/pathresolve"
	"github.com/loomwork/loomwork/internal/tokencount"
)

const mapFileName = "map.md"

// Service owns the single exclusive lock that serialises all writes to
// one workspace's map artifact (spec.md §4.4 "a single exclusive lock
// serialises all writes").
type Service struct {
	mu         sync.Mutex
	teamDir    string
	resolver   *pathresolve.Resolver
	warnTokens int
	errTokens  int

	entries map[string]domain.MapEntry // keyed by relative_path
	order   []string                   // insertion/regenerate order, kept sorted
}

// New constructs a Service writing map.md under teamDir and resolving
// paths against resolver.
func New(teamDir string, resolver *pathresolve.Resolver) *Service {
	return &Service{
		teamDir:    teamDir,
		resolver:   resolver,
		warnTokens: domain.DefaultWarnTokens,
		errTokens:  domain.DefaultErrTokens,
		entries:    make(map[string]domain.MapEntry),
	}
}

func (s *Service) path() string {
	return filepath.Join(s.teamDir, mapFileName)
}

// Regenerate walks the workspace via the resolver's enumerator,
// estimates tokens and classifies every tracked file, then atomically
// replaces map.md (spec.md §4.4). Regenerate itself performs a single
// attempt; its caller, Engine.Run, retries a failed attempt once
// before logging the error.
func (s *Service) Regenerate() (bool, error) {
	paths, err := s.resolver.Enumerate(pathresolve.TrackedExtensions)
	if err != nil {
		return false, fmt.Errorf("enumerating workspace: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make(map[string]domain.MapEntry, len(paths))
	for _, rel := range paths {
		entry, buildErr := s.buildEntry(rel)
		if buildErr != nil {
			continue // unreadable file: skip, don't fail the whole regenerate
		}
		entries[rel] = entry
	}

	s.entries = entries
	s.order = append(s.order[:0], paths...)
	sort.Strings(s.order)

	if err := s.writeLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateEntry is the fast path used after a successful mutation: for
// each path in modified ∪ added ∪ deleted, update or remove the
// corresponding line while preserving ordering (spec.md §4.4).
func (s *Service) UpdateEntry(result *domain.MutationResult) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for p := range result.DeletedFiles {
		s.removeLocked(p)
	}
	for p := range result.AddedFiles {
		if err := s.upsertLocked(p); err != nil {
			return false, err
		}
	}
	for p := range result.ModifiedFiles {
		if result.AddedFiles[p] || result.DeletedFiles[p] {
			continue
		}
		if err := s.upsertLocked(p); err != nil {
			return false, err
		}
	}

	if err := s.writeLocked(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) upsertLocked(rel string) error {
	entry, err := s.buildEntry(rel)
	if err != nil {
		delete(s.entries, rel)
		s.removeFromOrderLocked(rel)
		return nil
	}
	if _, exists := s.entries[rel]; !exists {
		s.order = append(s.order, rel)
		sort.Strings(s.order)
	}
	s.entries[rel] = entry
	return nil
}

func (s *Service) removeLocked(rel string) {
	delete(s.entries, rel)
	s.removeFromOrderLocked(rel)
}

func (s *Service) removeFromOrderLocked(rel string) {
	for i, p := range s.order {
		if p == rel {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

func (s *Service) buildEntry(rel string) (domain.MapEntry, error) {
	abs, err := s.resolver.Resolve(rel)
	if err != nil {
		return domain.MapEntry{}, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return domain.MapEntry{}, err
	}
	tokens := tokencount.Estimate(string(data))
	return domain.MapEntry{
		RelativePath:  rel,
		Role:          ClassifyRole(rel),
		TokenEstimate: tokens,
		Status:        domain.ClassifyStatus(tokens, s.warnTokens, s.errTokens),
	}, nil
}

// Content renders the current in-memory map as the same Markdown
// content written to disk. It takes the same mutex as the writers, so
// it never sees a half-applied update, but does not touch map.md.
func (s *Service) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderLocked()
}

func (s *Service) renderLocked() string {
	var buf bytes.Buffer
	buf.WriteString("# Project Map\n\n")
	fmt.Fprintf(&buf, "generated_at: %s\n\n", time.Now().UTC().Format(time.RFC3339))

	var warnings []string
	for _, rel := range s.order {
		e, ok := s.entries[rel]
		if !ok {
			continue
		}
		fmt.Fprintf(&buf, "- %s %s `%s` (%d tokens)\n", e.Status, e.Role, e.RelativePath, e.TokenEstimate)
		if e.Status != domain.StatusHealthy {
			warnings = append(warnings, fmt.Sprintf("%s %s: %d tokens", e.Status, e.RelativePath, e.TokenEstimate))
		}
	}

	if len(warnings) > 0 {
		buf.WriteString("\n## Warnings\n\n")
		for _, w := range warnings {
			buf.WriteString("- " + w + "\n")
		}
	}

	return buf.String()
}

// writeLocked atomically replaces map.md via a temp file plus rename
// (spec.md §4.4); must be called with mu held.
func (s *Service) writeLocked() error {
	content := s.renderLocked()
	dir := s.teamDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ensuring team dir: %w", err)
	}

	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing temp map: %w", err)
	}
	if err := os.Rename(tmp, s.path()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming temp map: %w", err)
	}
	return nil
}
