package mutator

import (
	"bufio"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/loomwork/loomwork/internal/domain"
)

// commitLinePattern matches "Commit <hash> <type>: <message>" lines
// (spec.md §4.3 step 4). Grounded on
// original_source/agents/aider/output_parser.py's commit-line parsing.
var commitLinePattern = regexp.MustCompile(`^Commit\s+([0-9a-fA-F]{7,})\s+(.+)$`)

// knownCommitTypes is the closed set from spec.md §3.
var knownCommitTypes = map[string]domain.CommitType{
	"feat": domain.CommitFeat, "fix": domain.CommitFix, "docs": domain.CommitDocs,
	"style": domain.CommitStyle, "refactor": domain.CommitRefactor, "perf": domain.CommitPerf,
	"test": domain.CommitTest, "build": domain.CommitBuild, "ci": domain.CommitCI,
	"chore": domain.CommitChore, "revert": domain.CommitRevert, "merge": domain.CommitMerge,
	"update": domain.CommitUpdate, "add": domain.CommitAdd, "remove": domain.CommitRemove,
	"move": domain.CommitMove, "cleanup": domain.CommitCleanup, "format": domain.CommitFormat,
	"optimize": domain.CommitOptimize,
}

// ignoredErrorSubstrings are lines that otherwise look like errors but
// are known noise (spec.md §4.3 step 4 exceptions), grounded on
// output_parser.py's known_aider_errors / pypi-notice filtering.
var ignoredErrorSubstrings = []string{
	"error checking pypi for new version",
	"can't initialize prompt toolkit",
	"no windows console found",
	"[errno 22] invalid argument",
}

// errorIndicators trigger error classification (spec.md §4.3 step 4).
// "429" / "rate limit" are included so the runtime's retry ladder
// (spec.md §4.2) can detect a throttled tool invocation from the
// classified Errors list.
var errorIndicators = []string{"error", "exception", "failed", "permission denied", "fatal:", "429", "rate limit"}

// newFilePrefixes are the recognised prefixes that terminate a
// multi-line commit reassembly (spec.md §4.3 step 6).
var newFilePrefixes = []string{"Wrote ", "Created ", "Deleted ", "Commit ", "$ "}

func startsWithAny(line string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func containsAnyFold(lower string, substrs []string) bool {
	for _, s := range substrs {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// classifyCommitType extracts the leading "<type>: " prefix from a
// commit message, falling back to "other" when unrecognised.
func classifyCommitType(message string) (domain.CommitType, string) {
	for typeName, typ := range knownCommitTypes {
		prefix := typeName + ":"
		if len(message) > len(prefix) && strings.EqualFold(message[:len(prefix)], prefix) {
			return typ, strings.TrimSpace(message[len(prefix):])
		}
	}
	return domain.CommitOther, message
}

// parseCommitLine parses a (possibly multi-line-reassembled) commit
// line into a domain.Commit, attaching the currently-known modified
// files (spec.md §4.3 step 4 tie-break: "when a commit references
// files not yet in any set, they are added to modified_files").
func parseCommitLine(line, agent string, now time.Time, result *domain.MutationResult) (domain.Commit, bool) {
	m := commitLinePattern.FindStringSubmatch(line)
	if m == nil {
		return domain.Commit{}, false
	}
	hash := m[1]
	rest := m[2]

	// rest is "<type>: <message>" when a type prefix is present.
	typ, message := classifyCommitType(rest)

	modified := result.AllPaths()
	for _, p := range modified {
		if !result.ModifiedFiles[p] && !result.AddedFiles[p] && !result.DeletedFiles[p] {
			result.ModifiedFiles[p] = true
		}
	}

	return domain.Commit{
		Hash:          hash,
		Type:          typ,
		Message:       message,
		Agent:         agent,
		Timestamp:     now,
		ModifiedFiles: modified,
	}, true
}

// extractFilePath pulls the path following one of "Wrote "/"Created
// "/"Deleted " (spec.md §4.3 step 4), taking the first whitespace-
// delimited token after the prefix.
func extractFilePath(line, prefix string) string {
	rest := strings.TrimPrefix(line, prefix)
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func isIgnoredErrorLine(lowerLine string) bool {
	return containsAnyFold(lowerLine, ignoredErrorSubstrings) || strings.Contains(lowerLine, "documentation:")
}

func isErrorLine(line string) bool {
	lower := strings.ToLower(line)
	if isIgnoredErrorLine(lower) {
		return false
	}
	return containsAnyFold(lower, errorIndicators)
}

// nowFunc is overridable in tests.
var nowFunc = time.Now

// StreamParse reads lines from r, classifying each into result per
// spec.md §4.3 steps 4 and 6. It stops at EOF; timeout handling is the
// caller's responsibility (process.go wraps this with a deadline).
func StreamParse(r io.Reader, agent string, result *domain.MutationResult) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pendingCommit string
	flushCommit := func() {
		if pendingCommit == "" {
			return
		}
		if c, ok := parseCommitLine(pendingCommit, agent, nowFunc(), result); ok {
			result.Commits = append(result.Commits, c)
		}
		pendingCommit = ""
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "Commit "):
			flushCommit()
			pendingCommit = line
			continue
		case pendingCommit != "" && !startsWithAny(line, newFilePrefixes):
			// Multi-line commit message reassembly (spec.md §4.3 step 6):
			// keep appending until a recognised prefix appears.
			pendingCommit += " " + line
			continue
		case pendingCommit != "":
			flushCommit()
		}

		switch {
		case strings.HasPrefix(line, "Wrote "):
			if p := extractFilePath(line, "Wrote "); p != "" {
				result.ModifiedFiles[p] = true
			}
		case strings.HasPrefix(line, "Created "):
			if p := extractFilePath(line, "Created "); p != "" {
				result.AddedFiles[p] = true
			}
		case strings.HasPrefix(line, "Deleted "):
			if p := extractFilePath(line, "Deleted "); p != "" {
				result.DeletedFiles[p] = true
			}
		case isErrorLine(line):
			result.Errors = append(result.Errors, line)
		default:
			if result.RawOutput != "" {
				result.RawOutput += "\n"
			}
			result.RawOutput += line
		}
	}
	flushCommit()
	result.reconcileTieBreak()
}
