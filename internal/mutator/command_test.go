package mutator

import (
	"strings"
	"testing"
)

func TestBuildArgsInjectsProtectedReadonly(t *testing.T) {
	req := Request{
		Model:         "gpt-5",
		Agent:         "coder",
		Prompt:        "do the thing",
		EditableFiles: []string{"a.go", "b.go"},
		TeamDir:       "teams/alpha",
		HistoryDir:    "teams/alpha/.history",
	}
	args := BuildArgs(req)
	joined := strings.Join(args, " ")

	for _, name := range protectedBasenames {
		if !strings.Contains(joined, "teams/alpha/"+name+".md") {
			t.Errorf("expected protected file %q to be read-only, args: %v", name, args)
		}
	}
	if !strings.Contains(joined, "--file a.go") || !strings.Contains(joined, "--file b.go") {
		t.Errorf("expected both editable files present, args: %v", args)
	}
}

func TestBuildArgsCapsEditableFiles(t *testing.T) {
	files := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		files = append(files, strings.Repeat("f", i+1)+".go")
	}
	req := Request{Model: "gpt-5", Agent: "coder", Prompt: "p", EditableFiles: files}
	args := BuildArgs(req)

	count := 0
	for _, a := range args {
		if a == "--file" {
			count++
		}
	}
	if count != MaxEditableFiles {
		t.Fatalf("expected %d --file flags, got %d", MaxEditableFiles, count)
	}
}

func TestBuildArgsMovesProtectedEditableToReadonly(t *testing.T) {
	req := Request{
		Model:         "gpt-5",
		Agent:         "coder",
		Prompt:        "p",
		EditableFiles: []string{"teams/alpha/map.md", "real.go"},
		TeamDir:       "teams/alpha",
	}
	args := BuildArgs(req)
	joined := strings.Join(args, " ")

	if strings.Contains(joined, "--file teams/alpha/map.md") {
		t.Error("protected file must not appear as editable")
	}
	if !strings.Contains(joined, "--read teams/alpha/map.md") {
		t.Error("protected file must appear as read-only")
	}
}

func TestBuildArgsAppendsSafetySuffix(t *testing.T) {
	req := Request{Model: "gpt-5", Agent: "coder", Prompt: "hello"}
	args := BuildArgs(req)
	last := args[len(args)-1]
	if !strings.HasSuffix(last, SafetySuffix) {
		t.Errorf("expected prompt to end with safety suffix, got %q", last)
	}
}
