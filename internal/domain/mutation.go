package domain

import "time"

// CommitType is the conventional-commit-style type tag parsed from
// tool output (spec.md §3 "Commit").
type CommitType string

const (
	CommitFeat     CommitType = "feat"
	CommitFix      CommitType = "fix"
	CommitDocs     CommitType = "docs"
	CommitStyle    CommitType = "style"
	CommitRefactor CommitType = "refactor"
	CommitPerf     CommitType = "perf"
	CommitTest     CommitType = "test"
	CommitBuild    CommitType = "build"
	CommitCI       CommitType = "ci"
	CommitChore    CommitType = "chore"
	CommitRevert   CommitType = "revert"
	CommitMerge    CommitType = "merge"
	CommitUpdate   CommitType = "update"
	CommitAdd      CommitType = "add"
	CommitRemove   CommitType = "remove"
	CommitMove     CommitType = "move"
	CommitCleanup  CommitType = "cleanup"
	CommitFormat   CommitType = "format"
	CommitOptimize CommitType = "optimize"
	CommitOther    CommitType = "other"
)

// commitIcons restores the icon table from
// original_source/agents/aider/output_parser.py's COMMIT_ICONS,
// exposed through Commit.Icon, which no other package calls. The
// distilled spec keeps the `type` enum but drops the icon mapping.
var commitIcons = map[CommitType]string{
	CommitFeat:     "✨",
	CommitFix:      "🐛",
	CommitDocs:     "📚",
	CommitStyle:    "💎",
	CommitRefactor: "♻️",
	CommitPerf:     "⚡️",
	CommitTest:     "🧪",
	CommitBuild:    "📦",
	CommitCI:       "🔄",
	CommitChore:    "🔧",
	CommitRevert:   "⏪",
	CommitMerge:    "🔗",
	CommitUpdate:   "📝",
	CommitAdd:      "➕",
	CommitRemove:   "➖",
	CommitMove:     "🚚",
	CommitCleanup:  "🧹",
	CommitFormat:   "🎨",
	CommitOptimize: "🚀",
}

// Commit is derived purely from parsed tool output; the core never
// writes one itself (spec.md §3).
type Commit struct {
	Hash           string
	Type           CommitType
	Message        string
	Agent          string
	Timestamp      time.Time
	ModifiedFiles  []string
}

// Icon returns the emoji associated with the commit's type, or the
// default hammer icon for unrecognised types.
func (c Commit) Icon() string {
	if icon, ok := commitIcons[c.Type]; ok {
		return icon
	}
	return "🔨"
}

// Canonical formats the commit back to its "<type>: <message>" wire
// form (spec.md §8 round-trip property).
func (c Commit) Canonical() string {
	if c.Type == "" || c.Type == CommitOther {
		return c.Message
	}
	return string(c.Type) + ": " + c.Message
}

// MutationResult is the structured outcome of one file-mutator
// invocation (spec.md §3 "MutationResult").
type MutationResult struct {
	ModifiedFiles map[string]bool
	AddedFiles    map[string]bool
	DeletedFiles  map[string]bool
	Commits       []Commit
	Errors        []string
	RawOutput     string
	ExitCode      int
}

// NewMutationResult returns a zero-value result with initialised sets.
func NewMutationResult() *MutationResult {
	return &MutationResult{
		ModifiedFiles: make(map[string]bool),
		AddedFiles:    make(map[string]bool),
		DeletedFiles:  make(map[string]bool),
	}
}

// Successful implements the definition in spec.md §3: exit_code == 0,
// no errors, and at least one non-empty file set or one parsed commit.
func (r *MutationResult) Successful() bool {
	if r.ExitCode != 0 || len(r.Errors) > 0 {
		return false
	}
	if len(r.ModifiedFiles) > 0 || len(r.AddedFiles) > 0 || len(r.DeletedFiles) > 0 {
		return true
	}
	return len(r.Commits) > 0
}

// AllPaths returns the union of modified, added and deleted paths —
// the set Map Service refreshes after a successful mutation.
func (r *MutationResult) AllPaths() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(set map[string]bool) {
		for p := range set {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	add(r.ModifiedFiles)
	add(r.AddedFiles)
	add(r.DeletedFiles)
	return out
}

// reconcileTieBreak enforces spec.md §4.3's tie-break rule: a path
// present in both modified and added is kept only in added.
func (r *MutationResult) reconcileTieBreak() {
	for p := range r.AddedFiles {
		delete(r.ModifiedFiles, p)
	}
}
