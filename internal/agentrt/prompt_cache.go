package agentrt

import (
	"os"
	"sync"
)

// PromptCache memoises a prompt file's decoded content keyed by mtime,
// so unchanged prompt files are not re-read and re-decoded every cycle
// (spec.md §4.6 step 1: "if the agent's prompt file cannot be read
// (after cache check by mtime), skip this cycle"). It is constructed
// once by the Engine context and shared across every cycle of every
// agent via Deps.Prompts — a Runtime built fresh per cycle would
// otherwise start with an empty cache every time and never skip a
// re-read.
type PromptCache struct {
	mu      sync.Mutex
	entries map[string]cachedPrompt
}

type cachedPrompt struct {
	modTime int64
	content string
}

// NewPromptCache returns an empty PromptCache ready to share across
// Runtimes.
func NewPromptCache() *PromptCache {
	return &PromptCache{entries: make(map[string]cachedPrompt)}
}

// Load returns the decoded prompt content for path, re-reading and
// re-decoding only when the file's mtime has changed since the last
// call.
func (c *PromptCache) Load(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	mtime := info.ModTime().UnixNano()

	c.mu.Lock()
	if entry, ok := c.entries[path]; ok && entry.modTime == mtime {
		c.mu.Unlock()
		return entry.content, nil
	}
	c.mu.Unlock()

	content, err := readWithFallback(path)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[path] = cachedPrompt{modTime: mtime, content: content}
	c.mu.Unlock()
	return content, nil
}
