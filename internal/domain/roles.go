package domain

// agentEmoji restores the per-role icon lookup from
// original_source/managers/agent_runner.py's _get_agent_emoji. Dropped
// by the spec.md distillation; cheap to restore. No other package
// calls RoleIconFor.
var agentEmoji = map[string]string{
	"specification": "📌",
	"management":    "🧭",
	"redaction":     "✍️",
	"evaluation":    "⚖️",
	"deduplication": "👥",
	"chroniqueur":   "📜",
	"redondance":    "🎭",
	"production":    "🏭",
	"chercheur":     "🔬",
	"integration":   "🌐",
}

// RoleIconFor returns the icon registered for a role, or a generic
// robot icon when the role is not one of the known archetypes.
func RoleIconFor(role string) string {
	if icon, ok := agentEmoji[role]; ok {
		return icon
	}
	return "🤖"
}
