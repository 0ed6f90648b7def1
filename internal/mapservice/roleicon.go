package mapservice

import (
	"path/filepath"
	"strings"

	"github.com/loomwork/loomwork/internal/domain"
)

// ClassifyRole selects a role icon for relPath from the closed set in
// spec.md §4.4. The spec names the table but leaves the exact
// classification rule unstated; this implements a deterministic
// path/extension heuristic, the natural generalisation of the fixed
// ".aider.mission.md" / "suivi.md" special-casing in
// original_source/managers/map_manager.py into the richer role set the
// distilled spec restores.
func ClassifyRole(relPath string) domain.RoleIcon {
	lower := strings.ToLower(filepath.ToSlash(relPath))
	base := filepath.Base(lower)
	ext := filepath.Ext(lower)

	switch {
	case base == "mission.md" || base == "objective.md" || strings.HasPrefix(base, "spec"):
		return domain.RoleSpecification
	case base == "map.md" || base == "readme.md" && isRootLevel(lower):
		return domain.RolePrimaryDeliverable
	case strings.HasPrefix(base, "todolist") || strings.HasPrefix(base, "directives") || strings.HasPrefix(base, "demande"):
		return domain.RoleWorkDocument
	case strings.Contains(lower, "test") || strings.HasSuffix(base, "_test.go") || strings.HasSuffix(base, ".test.ts"):
		return domain.RoleTest
	case strings.Contains(lower, "doc/") || strings.Contains(lower, "docs/") || ext == ".md":
		return domain.RoleDocumentation
	case base == ".gitignore" || base == ".aiderignore" || ext == ".yaml" || ext == ".yml" || ext == ".json" || ext == ".toml" || strings.HasPrefix(base, "config"):
		return domain.RoleConfiguration
	case strings.Contains(lower, "build/") || base == "makefile" || base == "dockerfile" || ext == ".mk":
		return domain.RoleBuild
	case strings.Contains(lower, "archive/"):
		return domain.RoleArchive
	case strings.Contains(lower, "cache/"):
		return domain.RoleCache
	case strings.Contains(lower, "backup/") || strings.HasSuffix(base, ".bak"):
		return domain.RoleBackup
	case strings.Contains(lower, "template"):
		return domain.RoleTemplate
	case strings.Contains(lower, "draft"):
		return domain.RoleDraft
	case strings.Contains(lower, "data/") || ext == ".csv" || ext == ".jsonl":
		return domain.RoleSourceData
	case strings.Contains(lower, "generated/") || strings.HasSuffix(base, ".gen.go"):
		return domain.RoleGenerated
	case isSourceExtension(ext):
		return domain.RoleImplementation
	case ext == ".sh" || ext == ".bat" || ext == ".ps1":
		return domain.RoleUtility
	default:
		return domain.RoleUnknown
	}
}

func isRootLevel(lowerRel string) bool {
	return !strings.Contains(lowerRel, "/")
}

func isSourceExtension(ext string) bool {
	switch ext {
	case ".go", ".py", ".js", ".ts", ".java", ".cpp", ".h", ".c", ".cs", ".php", ".rb", ".rs":
		return true
	}
	return false
}
