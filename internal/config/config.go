// Package config loads and validates the mission file that describes
// one workspace's team of agents (spec.md §6 "CLI surface": `run
// agents [--mission PATH]`), plus the engine-wide settings (rate
// limits, phase thresholds, research backend) spec.md §9 groups under
// "no global mutable singletons — an explicit Engine context". Grounded
// on the teacher's internal/config package (YAML via gopkg.in/yaml.v3,
// a Load/Validate split, a Duration wrapper for human-readable
// durations) generalised from the teacher's concern-chain schema to
// this spec's team/agent/phase schema. Environment overrides
// (LLM_API_KEY, RESEARCH_API_KEY, DEBUG) are read through
// github.com/spf13/viper, matching the teacher pack's preferred
// env-binding library over a hand-rolled os.Getenv table.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/loomwork/loomwork/internal/domain"
)

// Duration wraps time.Duration for YAML unmarshalling from strings
// like "5m" or "90s" (spec.md's agent.check_interval, rate_limit.window).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

// AgentSpec is one entry of the mission file's agents list (spec.md §3
// "Agent" immutable descriptor).
type AgentSpec struct {
	Name          string   `yaml:"name"`
	Role          string   `yaml:"role"`
	PromptPath    string   `yaml:"prompt_path"`
	Kind          string   `yaml:"kind"` // "edit" | "research"
	CheckInterval Duration `yaml:"check_interval"`
}

// RateLimitSpec configures one provider-scoped RateWindow (spec.md §4.2).
type RateLimitSpec struct {
	Provider    string   `yaml:"provider"`
	MaxRequests int      `yaml:"max_requests"`
	Window      Duration `yaml:"window"`
}

// ResearchSpec configures the optional research backend (spec.md §6
// "Research backend").
type ResearchSpec struct {
	Endpoint    string   `yaml:"endpoint"`
	Model       string   `yaml:"model"`
	MinInterval Duration `yaml:"min_interval"`
}

// PhaseThresholdSpec overrides the phase_service constants flagged as
// an Open Question in spec.md §9 point 3 ("externalising them to
// configuration is recommended but unconfirmed" — resolved here by
// making them Config-overridable with the original hard-coded values
// as defaults; see DESIGN.md).
type PhaseThresholdSpec struct {
	ModelTokenLimit      int     `yaml:"model_token_limit"`
	ConvergenceThreshold float64 `yaml:"convergence_threshold"`
	ExpansionThreshold   float64 `yaml:"expansion_threshold"`
}

// Config is the mission file's top-level shape: one Workspace, one
// active Team, and the engine-wide settings every agent cycle shares.
type Config struct {
	Workspace       string              `yaml:"workspace"`
	Team            string              `yaml:"team"`
	Mission         string              `yaml:"mission"`
	Model           string              `yaml:"model"`
	ToolPath        string              `yaml:"tool_path"`
	Concurrency     int                 `yaml:"concurrency"`
	ToolTimeout     Duration            `yaml:"tool_timeout"`
	Agents          []AgentSpec         `yaml:"agents"`
	PhaseConfig     map[string][]string `yaml:"phase_config,omitempty"`
	RateLimits      []RateLimitSpec     `yaml:"rate_limits,omitempty"`
	Research        ResearchSpec        `yaml:"research,omitempty"`
	PhaseThresholds PhaseThresholdSpec  `yaml:"phase_thresholds,omitempty"`

	// LLMAPIKey and ResearchAPIKey are populated from the environment
	// (spec.md §6), never from the YAML file itself.
	LLMAPIKey      string `yaml:"-"`
	ResearchAPIKey string `yaml:"-"`
	Debug          bool   `yaml:"-"`
}

// DefaultConcurrency, DefaultToolTimeout and DefaultMaxRequests mirror
// the spec's §4.2/§4.7 defaults, applied when the mission file omits them.
const (
	DefaultConcurrency  = 10
	DefaultToolTimeout  = 300 * time.Second
	DefaultMaxRequests  = 50
	DefaultWindow       = 60 * time.Second
	DefaultMinInterval  = 60 * time.Second
)

// Load reads and parses a mission file, applying defaults and
// environment overrides (spec.md §6 "Environment variables").
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mission file: %w", err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}

	bindEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing mission YAML: %w", err)
	}
	return &cfg, nil
}

// bindEnv reads the enumerated environment variables from spec.md §6
// through viper, so the launcher's config reload path (out of scope
// here) and this one-shot Load share the same lookup semantics.
func bindEnv(cfg *Config) {
	v := viper.New()
	v.AutomaticEnv()
	v.BindEnv("llm_api_key", "LLM_API_KEY")
	v.BindEnv("research_api_key", "RESEARCH_API_KEY")
	v.BindEnv("debug", "DEBUG")

	cfg.LLMAPIKey = v.GetString("llm_api_key")
	cfg.ResearchAPIKey = v.GetString("research_api_key")
	cfg.Debug = v.GetBool("debug")
}

func applyDefaults(cfg *Config) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = Duration(DefaultToolTimeout)
	}
	if cfg.ToolPath == "" {
		cfg.ToolPath = "aider"
	}
	if len(cfg.RateLimits) == 0 {
		cfg.RateLimits = []RateLimitSpec{{
			Provider:    "default",
			MaxRequests: DefaultMaxRequests,
			Window:      Duration(DefaultWindow),
		}}
	}
	if cfg.PhaseThresholds.ModelTokenLimit == 0 {
		cfg.PhaseThresholds = PhaseThresholdSpec{
			ModelTokenLimit:      domain.DefaultModelTokenLimit,
			ConvergenceThreshold: domain.DefaultConvergenceThreshold,
			ExpansionThreshold:   domain.DefaultExpansionThreshold,
		}
	}
	if cfg.Research.MinInterval == 0 {
		cfg.Research.MinInterval = Duration(DefaultMinInterval)
	}
}

var agentNamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Validate checks mission-file invariants named in spec.md §3 before
// the engine constructs any component from it.
func Validate(cfg *Config) []error {
	var errs []error

	if cfg.Workspace == "" {
		errs = append(errs, fmt.Errorf("workspace is required"))
	}
	if cfg.Team == "" {
		errs = append(errs, fmt.Errorf("team is required"))
	}
	if len(cfg.Agents) == 0 {
		errs = append(errs, fmt.Errorf("at least one agent is required"))
	}
	if cfg.LLMAPIKey == "" {
		errs = append(errs, fmt.Errorf("LLM_API_KEY is not set: edit cycles are disabled (spec.md §6)"))
	}

	seen := make(map[string]bool, len(cfg.Agents))
	for i, a := range cfg.Agents {
		if !agentNamePattern.MatchString(a.Name) {
			errs = append(errs, fmt.Errorf("agents[%d]: invalid name %q: must match [a-z0-9_-]+", i, a.Name))
		} else if seen[a.Name] {
			errs = append(errs, fmt.Errorf("agents[%d]: duplicate agent name %q", i, a.Name))
		} else {
			seen[a.Name] = true
		}
		if a.Kind != "edit" && a.Kind != "research" {
			errs = append(errs, fmt.Errorf("agents[%d] (%s): kind must be edit or research, got %q", i, a.Name, a.Kind))
		}
		if a.Kind == "edit" && a.PromptPath == "" {
			errs = append(errs, fmt.Errorf("agents[%d] (%s): prompt_path is required for edit agents", i, a.Name))
		}
		if a.CheckInterval.Duration() != 0 && a.CheckInterval.Duration() < domain.MinInterval {
			errs = append(errs, fmt.Errorf("agents[%d] (%s): check_interval %s below minimum %s", i, a.Name, a.CheckInterval.Duration(), domain.MinInterval))
		}
	}

	for phase, names := range cfg.PhaseConfig {
		for _, n := range names {
			if !seen[n] {
				errs = append(errs, fmt.Errorf("phase_config[%s]: unknown agent %q", phase, n))
			}
		}
	}

	return errs
}

// BuildTeam converts the validated AgentSpecs and PhaseConfig into the
// domain.Team the Scheduler operates on.
func BuildTeam(cfg *Config) (*domain.Team, error) {
	agents := make([]*domain.Agent, 0, len(cfg.Agents))
	for _, spec := range cfg.Agents {
		interval := spec.CheckInterval.Duration()
		if interval <= 0 {
			interval = domain.MinInterval
		}
		kind := domain.KindEdit
		if spec.Kind == "research" {
			kind = domain.KindResearch
		}
		agent, err := domain.NewAgent(spec.Name, spec.Role, spec.PromptPath, kind, interval)
		if err != nil {
			return nil, fmt.Errorf("building agent %q: %w", spec.Name, err)
		}
		agents = append(agents, agent)
	}

	phaseConfig := make(map[domain.Phase][]string, len(cfg.PhaseConfig))
	for phase, names := range cfg.PhaseConfig {
		phaseConfig[domain.Phase(phase)] = names
	}

	return domain.NewTeam(cfg.Team, agents, phaseConfig)
}
