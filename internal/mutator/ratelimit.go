package mutator

import (
	"strings"

	"github.com/loomwork/loomwork/internal/domain"
)

// RateLimited reports whether result's error lines indicate a 429 /
// rate-limit response from the external tool (spec.md §4.2: "On
// explicit 429 / 'rate limit' error from the external tool, retry").
func RateLimited(result *domain.MutationResult) bool {
	for _, line := range result.Errors {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "429") || strings.Contains(lower, "rate limit") {
			return true
		}
	}
	return false
}
