package domain

// Default warning/error token thresholds (spec.md §3 "MapEntry").
const (
	DefaultWarnTokens = 6000
	DefaultErrTokens  = 12000
)

// StatusIcon classifies a MapEntry's health from its token estimate.
type StatusIcon string

const (
	StatusHealthy StatusIcon = "✓"
	StatusWarning StatusIcon = "⚠"
	StatusError   StatusIcon = "🔴"
)

// ClassifyStatus applies spec.md §3's thresholds: warning strictly
// above warnTokens, error strictly above errTokens.
func ClassifyStatus(tokenEstimate, warnTokens, errTokens int) StatusIcon {
	switch {
	case tokenEstimate > errTokens:
		return StatusError
	case tokenEstimate > warnTokens:
		return StatusWarning
	default:
		return StatusHealthy
	}
}

// RoleIcon is one of the fixed emoji from the closed set in spec.md §4.4.
type RoleIcon string

const (
	RolePrimaryDeliverable RoleIcon = "📊"
	RoleSpecification      RoleIcon = "📋"
	RoleImplementation     RoleIcon = "⚙️"
	RoleDocumentation      RoleIcon = "📚"
	RoleConfiguration      RoleIcon = "⚡"
	RoleUtility            RoleIcon = "🛠"
	RoleTest               RoleIcon = "🧪"
	RoleBuild              RoleIcon = "📦"
	RoleWorkDocument       RoleIcon = "✍️"
	RoleDraft              RoleIcon = "📝"
	RoleTemplate           RoleIcon = "📄"
	RoleArchive            RoleIcon = "📂"
	RoleSourceData         RoleIcon = "💾"
	RoleGenerated          RoleIcon = "⚡"
	RoleCache              RoleIcon = "💫"
	RoleBackup             RoleIcon = "💿"
	RoleUnknown            RoleIcon = "🔨"
)

// MapEntry is one line of the project map artifact (spec.md §3).
type MapEntry struct {
	RelativePath  string
	Role          RoleIcon
	TokenEstimate int
	Status        StatusIcon
}
