package tokencount

import "testing"

func TestEstimateScalesWordCount(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	got := Estimate(text)
	want := 13 // round(10 * 1.3)
	if got != want {
		t.Fatalf("Estimate() = %d, want %d", got, want)
	}
}

func TestEstimateEmptyText(t *testing.T) {
	if got := Estimate(""); got != 0 {
		t.Fatalf("Estimate(\"\") = %d, want 0", got)
	}
}
