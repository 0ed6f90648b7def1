package mutator

import (
	"context"
	"testing"
	"time"
)

func TestMutateEndToEnd(t *testing.T) {
	tool := writeFakeTool(t, "echo 'Wrote out.go'\necho 'Commit a1b2c3d fix: patch the thing'\n")
	ws := t.TempDir()

	result, err := Mutate(context.Background(), Params{
		Request: Request{
			Model:         "gpt-5",
			ToolPath:      tool,
			Agent:         "coder",
			Prompt:        "fix the thing",
			EditableFiles: []string{"out.go"},
		},
		Workspace: ws,
		Timeout:   5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if !result.Successful() {
		t.Fatalf("expected successful result, got %+v", result)
	}
	if !result.ModifiedFiles["out.go"] {
		t.Fatalf("expected out.go modified, got %+v", result.ModifiedFiles)
	}
}

func TestMutateRejectsZeroTimeout(t *testing.T) {
	_, err := Mutate(context.Background(), Params{
		Request:   Request{Model: "gpt-5", ToolPath: "/bin/true", Agent: "coder", Prompt: "p"},
		Workspace: t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected error for zero timeout")
	}
}
