// Package tokencount implements the Map service's token estimate
// (spec.md §4.4: "if a tokeniser is available for the current model,
// use it; otherwise approximate by round(word_count * 1.3)").
//
// This package implements only the fallback side of that contract.
// original_source/managers/map_manager.py reaches for tiktoken when
// available; the retrieved example corpus carries no equivalent BPE
// tokeniser (no tiktoken-go, no dlclark/regexp2-based encoder appears
// as a dependency of the teacher or any sibling repo), so there is
// nothing in the pack to wire as the primary path. The word-count
// approximation the spec names explicitly is therefore implemented
// directly on the standard library rather than hand-rolling or
// fabricating a tokeniser dependency that nothing in the corpus
// grounds.
package tokencount

import (
	"bufio"
	"math"
	"strings"
)

// Estimate approximates token count from text by counting
// whitespace-delimited words and scaling by 1.3, rounding to the
// nearest integer (spec.md §4.4).
func Estimate(text string) int {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Split(bufio.ScanWords)
	words := 0
	for scanner.Scan() {
		words++
	}
	return int(math.Round(float64(words) * 1.3))
}
