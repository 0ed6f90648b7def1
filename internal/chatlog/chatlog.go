// Package chatlog implements the Chat/commit logger (C8): per-agent
// Markdown transcripts and the shared commits.jsonl stream consumed by
// C3 and C6 (spec.md §4.8). Writes are best-effort: failures here never
// fail the enclosing cycle, only WARN-logged by the caller.
package chatlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/loomwork/loomwork/internal/fsguard"
)

// Chat appends one timestamped interaction to the per-agent transcript
// at chats/<mission>/<agent>.md.
type Chat struct {
	workspace string
	mission   string
}

// New returns a Chat logger rooted at <workspace>/chats/<mission>/.
func New(workspace, mission string) *Chat {
	return &Chat{workspace: workspace, mission: mission}
}

func (c *Chat) path(agent string) string {
	return filepath.Join(c.workspace, "chats", c.mission, agent+".md")
}

// Append writes one timestamped heading plus the prompt/response pair
// to the agent's transcript (spec.md §4.8).
func (c *Chat) Append(agent, prompt, response string) error {
	path := c.path(agent)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("ensuring chat dir: %w", err)
	}

	var entry string
	entry += fmt.Sprintf("## %s\n\n", time.Now().UTC().Format(time.RFC3339))
	entry += "### Prompt\n\n" + prompt + "\n\n"
	entry += "### Response\n\n" + response + "\n\n"

	return fsguard.AppendLocked(path, func(f *os.File) error {
		_, err := f.WriteString(entry)
		return err
	})
}
