package mutator

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
)

// MaxEditableFiles is the cap on editable files passed to the tool
// per invocation (spec.md §4.3, §8 boundary case).
const MaxEditableFiles = 10

// SafetySuffix is appended verbatim to every prompt (spec.md §4.3).
const SafetySuffix = "ALWAYS DIRECTLY PROCEED WITH THE MODIFICATIONS, USING THE SEARCH/REPLACE FORMAT."

// protectedBasenames are always injected as read-only regardless of
// caller-supplied editable files (spec.md §4.3 step 2).
var protectedBasenames = []string{"demande", "map", "todolist", "directives"}

// Request describes one invocation of the external edit tool.
type Request struct {
	Model            string
	ToolPath         string // resolved path to the external edit-tool binary
	Agent            string
	Prompt           string
	EditableFiles    []string // relative to workspace
	ReadonlyFiles    []string // relative to workspace; prompt/map/demand files etc.
	TeamDir          string   // directory holding protected files for this team
	HistoryDir       string   // directory for chat/input history files
}

// sampleEditable implements spec.md §4.3 step 2: if more than
// MaxEditableFiles are supplied, sample MaxEditableFiles uniformly at
// random. Reproducibility across cycles is explicitly not required
// (Open Question 2 in spec.md §9) — this uses math/rand's default
// source, unseeded, matching "current behaviour".
func sampleEditable(files []string) []string {
	if len(files) <= MaxEditableFiles {
		return files
	}
	shuffled := append([]string(nil), files...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:MaxEditableFiles]
}

// isProtected reports whether relPath's basename (without extension)
// matches one of the protected names, in any directory.
func isProtected(relPath string) bool {
	base := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))
	for _, p := range protectedBasenames {
		if base == p {
			return true
		}
	}
	return false
}

// escapePromptArg escapes newlines and double-quotes in the prompt
// text before it becomes a shell/process argument (spec.md §4.3
// step 1).
func escapePromptArg(prompt string) string {
	prompt = strings.ReplaceAll(prompt, `\`, `\\`)
	prompt = strings.ReplaceAll(prompt, `"`, `\"`)
	prompt = strings.ReplaceAll(prompt, "\n", `\n`)
	return prompt
}

// BuildArgs constructs the argument vector for the external edit tool
// per spec.md §4.3 step 1 and §6's child-process contract. Protected
// paths are deduplicated into readonly; editable files over the cap
// are sampled down.
func BuildArgs(req Request) []string {
	chatHistory := filepath.Join(req.HistoryDir, fmt.Sprintf(".tool.%s.chat.history.md", req.Agent))
	inputHistory := filepath.Join(req.HistoryDir, fmt.Sprintf(".tool.%s.input.history.md", req.Agent))

	readonlySet := make(map[string]bool)
	var readonly []string
	addReadonly := func(p string) {
		if p == "" || readonlySet[p] {
			return
		}
		readonlySet[p] = true
		readonly = append(readonly, p)
	}
	for _, p := range req.ReadonlyFiles {
		addReadonly(p)
	}
	for _, name := range protectedBasenames {
		addReadonly(filepath.Join(req.TeamDir, name+".md"))
	}

	editable := sampleEditable(req.EditableFiles)
	var filtered []string
	for _, p := range editable {
		if isProtected(p) {
			addReadonly(p)
			continue
		}
		filtered = append(filtered, p)
	}

	args := []string{
		"--model", req.Model,
		"--edit-format", "diff",
		"--yes-always",
		"--cache-prompts",
		"--no-pretty",
		"--chat-history-file", chatHistory,
		"--input-history-file", inputHistory,
	}
	for _, p := range readonly {
		args = append(args, "--read", p)
	}
	for _, p := range filtered {
		args = append(args, "--file", p)
	}

	prompt := escapePromptArg(req.Prompt) + "\n" + SafetySuffix
	args = append(args, "--message", prompt)

	return args
}
