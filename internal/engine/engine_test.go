package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomwork/loomwork/internal/config"
	"github.com/loomwork/loomwork/internal/logx"
)

func newTestConfig(t *testing.T, workspace string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Workspace:   workspace,
		Team:        "core",
		Mission:     "test-mission",
		Model:       "gpt-4o",
		Concurrency: 2,
		Agents: []config.AgentSpec{
			{Name: "specifications", Role: "specification writer", PromptPath: "team_core/prompts/specifications.md", Kind: "edit", CheckInterval: config.Duration(0)},
		},
	}
	cfg.LLMAPIKey = "sk-test"
	bindEnvForTest(cfg)
	return cfg
}

// bindEnvForTest mirrors config.applyDefaults without re-parsing YAML,
// since this test builds a Config literal directly.
func bindEnvForTest(cfg *config.Config) {
	if cfg.ToolPath == "" {
		cfg.ToolPath = "aider"
	}
	if cfg.ToolTimeout == 0 {
		cfg.ToolTimeout = config.Duration(config.DefaultToolTimeout)
	}
	if len(cfg.RateLimits) == 0 {
		cfg.RateLimits = []config.RateLimitSpec{{Provider: "default", MaxRequests: config.DefaultMaxRequests, Window: config.Duration(config.DefaultWindow)}}
	}
	if cfg.PhaseThresholds.ModelTokenLimit == 0 {
		cfg.PhaseThresholds.ModelTokenLimit = 128000
		cfg.PhaseThresholds.ConvergenceThreshold = 0.60
		cfg.PhaseThresholds.ExpansionThreshold = 0.50
	}
}

func TestNewConstructsEngine(t *testing.T) {
	workspace := t.TempDir()
	cfg := newTestConfig(t, workspace)

	e, err := New(cfg, logx.Default())
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "core", e.Team().Name)
}

func TestGenerateAgentsWritesMissingPromptsOnly(t *testing.T) {
	workspace := t.TempDir()
	cfg := newTestConfig(t, workspace)

	e, err := New(cfg, logx.Default())
	require.NoError(t, err)

	created, err := e.GenerateAgents()
	require.NoError(t, err)
	assert.Equal(t, []string{"team_core/prompts/specifications.md"}, created)

	promptPath := filepath.Join(workspace, "team_core/prompts/specifications.md")
	data, err := os.ReadFile(promptPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "specifications")

	// Hand-edit the prompt, then regenerate: it must not be clobbered.
	require.NoError(t, os.WriteFile(promptPath, []byte("hand-edited"), 0644))
	created, err = e.GenerateAgents()
	require.NoError(t, err)
	assert.Empty(t, created)

	data, err = os.ReadFile(promptPath)
	require.NoError(t, err)
	assert.Equal(t, "hand-edited", string(data))
}

func TestGenerateObjectiveUnknownAgent(t *testing.T) {
	workspace := t.TempDir()
	cfg := newTestConfig(t, workspace)

	e, err := New(cfg, logx.Default())
	require.NoError(t, err)

	_, err = e.GenerateObjective("ghost")
	assert.Error(t, err)
}

func TestGenerateObjectiveWritesFile(t *testing.T) {
	workspace := t.TempDir()
	cfg := newTestConfig(t, workspace)

	e, err := New(cfg, logx.Default())
	require.NoError(t, err)

	path, err := e.GenerateObjective("specifications")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "specifications")
}
