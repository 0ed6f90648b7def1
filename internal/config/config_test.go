package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomwork/loomwork/internal/domain"
)

const sampleMission = `
workspace: /tmp/workspace
team: core
model: gpt-4o
concurrency: 3
agents:
  - name: specifications
    role: specification writer
    prompt_path: team_core/prompts/specifications.md
    kind: edit
    check_interval: 5m
  - name: researcher
    role: researcher
    kind: research
    check_interval: 10m
phase_config:
  expansion: [specifications, researcher]
  convergence: [specifications]
`

func writeMission(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mission.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeMission(t, sampleMission)
	t.Setenv("LLM_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, DefaultToolTimeout, cfg.ToolTimeout.Duration())
	assert.Equal(t, "aider", cfg.ToolPath)
	assert.Equal(t, "sk-test", cfg.LLMAPIKey)
	require.Len(t, cfg.RateLimits, 1)
	assert.Equal(t, DefaultMaxRequests, cfg.RateLimits[0].MaxRequests)
}

func TestValidateRequiresLLMAPIKey(t *testing.T) {
	path := writeMission(t, sampleMission)
	t.Setenv("LLM_API_KEY", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	errs := Validate(cfg)
	var found bool
	for _, e := range errs {
		if e != nil {
			found = true
		}
	}
	assert.True(t, found, "expected validation errors when LLM_API_KEY is unset")
}

const missionWithGhostAgent = sampleMission + "  nonexistent_phase: [ghost]\n"

func TestValidateRejectsUnknownPhaseAgent(t *testing.T) {
	path := writeMission(t, missionWithGhostAgent)
	t.Setenv("LLM_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	errs := Validate(cfg)
	require.NotEmpty(t, errs)
}

func TestBuildTeamAssignsKinds(t *testing.T) {
	path := writeMission(t, sampleMission)
	t.Setenv("LLM_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Empty(t, Validate(cfg))

	team, err := BuildTeam(cfg)
	require.NoError(t, err)
	require.Len(t, team.Agents, 2)

	specs := team.ByName("specifications")
	require.NotNil(t, specs)
	assert.Equal(t, "specifications", specs.Name)
	assert.Equal(t, domain.KindEdit, specs.Kind)

	researcher := team.ByName("researcher")
	require.NotNil(t, researcher)
	assert.Equal(t, domain.KindResearch, researcher.Kind)
}
