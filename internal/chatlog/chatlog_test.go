package chatlog

import (
	"os"
	"strings"
	"testing"
)

func TestChatAppendCreatesTranscript(t *testing.T) {
	ws := t.TempDir()
	c := New(ws, "mymission")

	if err := c.Append("coder", "do the thing", "done"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	data, err := os.ReadFile(c.path("coder"))
	if err != nil {
		t.Fatalf("expected transcript file, got: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "do the thing") || !strings.Contains(content, "done") {
		t.Fatalf("expected prompt/response in transcript, got:\n%s", content)
	}
}

func TestChatAppendIsCumulative(t *testing.T) {
	ws := t.TempDir()
	c := New(ws, "mymission")

	c.Append("coder", "first", "r1")
	c.Append("coder", "second", "r2")

	data, err := os.ReadFile(c.path("coder"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "first") || !strings.Contains(content, "second") {
		t.Fatalf("expected both entries retained, got:\n%s", content)
	}
}
