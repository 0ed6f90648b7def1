package mapservice

import (
	"testing"

	"github.com/loomwork/loomwork/internal/domain"
)

func TestClassifyRoleKnownPaths(t *testing.T) {
	cases := map[string]domain.RoleIcon{
		"mission.md":            domain.RoleSpecification,
		"internal/foo_test.go":  domain.RoleTest,
		"docs/guide.md":         domain.RoleDocumentation,
		"config.yaml":           domain.RoleConfiguration,
		"Makefile":              domain.RoleBuild,
		"internal/foo.go":       domain.RoleImplementation,
		"scripts/deploy.sh":     domain.RoleUtility,
		"teams/alpha/map.md":    domain.RolePrimaryDeliverable,
		"teams/alpha/todolist.md": domain.RoleWorkDocument,
	}
	for path, want := range cases {
		if got := ClassifyRole(path); got != want {
			t.Errorf("ClassifyRole(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestClassifyRoleDefaultsToUnknown(t *testing.T) {
	if got := ClassifyRole("weird.xyz"); got != domain.RoleUnknown {
		t.Errorf("ClassifyRole(weird.xyz) = %v, want RoleUnknown", got)
	}
}
