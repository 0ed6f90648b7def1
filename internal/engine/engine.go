// Package engine wires the core's components into one running
// process, in the dependency order spec.md §2 lays out (leaves
// first: C1 path/ignore, C2 rate limiter, C3 file mutator, C4 map
// service, C5 dataset recorder, C6 agent runtime, C7 scheduler, C8
// chat/commit logger). Grounded on spec.md §9's re-architecture note
// "Global mutable singletons (logger, services registry) — re-express
// as an explicit Engine context passed to every component
// constructor": Engine is that context. The teacher's internal/engine
// package (RunOnce/RunOnceWithLogs driving one poll of the concern
// chain) is generalised here from "one poll" to "one long-running
// scheduler with N parallel workers", since this spec's C7 is a
// persistent pool rather than a single poll-and-exit cycle.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/loomwork/loomwork/internal/agentrt"
	"github.com/loomwork/loomwork/internal/chatlog"
	"github.com/loomwork/loomwork/internal/config"
	"github.com/loomwork/loomwork/internal/dataset"
	"github.com/loomwork/loomwork/internal/domain"
	"github.com/loomwork/loomwork/internal/logx"
	"github.com/loomwork/loomwork/internal/mapservice"
	"github.com/loomwork/loomwork/internal/pathresolve"
	"github.com/loomwork/loomwork/internal/ratelimit"
	"github.com/loomwork/loomwork/internal/scheduler"
)

// Engine owns every singleton component the core needs and hands out
// agentrt.Deps for one agent at a time. There is exactly one Engine
// per running mission, constructed once by New.
type Engine struct {
	cfg *config.Config
	log *logx.Logger

	resolver  *pathresolve.Resolver
	limiters  map[string]*ratelimit.Limiter
	mapSvc    *mapservice.Service
	recorder  *dataset.Recorder
	chat      *chatlog.Chat
	commitLog *chatlog.CommitLog
	research  *agentrt.ResearchClient
	phases    *scheduler.PhaseService
	team      *domain.Team
	sched     *scheduler.Scheduler
	prompts   *agentrt.PromptCache

	teamDir string
}

// New constructs every component in §2's dependency order and returns
// a ready-to-launch Engine. cfg must already have passed
// config.Validate.
func New(cfg *config.Config, log *logx.Logger) (*Engine, error) {
	if log == nil {
		log = logx.Default()
	}

	// C1: Path & Ignore resolver.
	resolver, err := pathresolve.New(cfg.Workspace)
	if err != nil {
		return nil, fmt.Errorf("constructing resolver: %w", err)
	}

	// C2: Rate limiter(s), one per configured provider.
	limiters := make(map[string]*ratelimit.Limiter, len(cfg.RateLimits))
	for _, rl := range cfg.RateLimits {
		name := rl.Provider
		if name == "" {
			name = "default"
		}
		max := rl.MaxRequests
		if max <= 0 {
			max = config.DefaultMaxRequests
		}
		window := rl.Window.Duration()
		if window <= 0 {
			window = config.DefaultWindow
		}
		limiters[name] = ratelimit.New(max, window)
	}
	if _, ok := limiters["default"]; !ok {
		limiters["default"] = ratelimit.DefaultLimiter()
	}

	teamDir := filepath.Join(cfg.Workspace, "team_"+cfg.Team)

	// C4: Map service.
	mapSvc := mapservice.New(teamDir, resolver)

	// C5: Dataset recorder.
	recorder := dataset.New(cfg.Workspace)

	// C8: Chat/commit logger.
	chat := chatlog.New(cfg.Workspace, cfg.Mission)
	commitLog := chatlog.NewCommitLog(cfg.Workspace)

	// Optional research backend (§6).
	var research *agentrt.ResearchClient
	if cfg.Research.Endpoint != "" && cfg.ResearchAPIKey != "" {
		research = agentrt.NewResearchClient(cfg.Research.Endpoint, cfg.ResearchAPIKey, cfg.Research.Model, cfg.Research.MinInterval.Duration())
	}

	// PhaseService gates C7's agent selection.
	thresholds := domain.PhaseThresholds{
		ModelTokenLimit:      cfg.PhaseThresholds.ModelTokenLimit,
		ConvergenceThreshold: cfg.PhaseThresholds.ConvergenceThreshold,
		ExpansionThreshold:   cfg.PhaseThresholds.ExpansionThreshold,
	}
	phases := scheduler.NewPhaseService(thresholds)

	// C3/C6 are constructed per-agent by the Scheduler's RuntimeFactory
	// below, so every cycle gets its own Runtime but shares these
	// singletons.
	team, err := config.BuildTeam(cfg)
	if err != nil {
		return nil, fmt.Errorf("building team: %w", err)
	}

	e := &Engine{
		cfg:       cfg,
		log:       log,
		resolver:  resolver,
		limiters:  limiters,
		mapSvc:    mapSvc,
		recorder:  recorder,
		chat:      chat,
		commitLog: commitLog,
		research:  research,
		phases:    phases,
		team:      team,
		prompts:   agentrt.NewPromptCache(),
		teamDir:   teamDir,
	}

	// C7: Scheduler, built last since its RuntimeFactory closes over
	// every earlier component.
	e.sched = scheduler.New(cfg.Concurrency, phases, e.newRuntime, log)

	return e, nil
}

// newRuntime is the scheduler.RuntimeFactory: one agentrt.Runtime per
// dispatched agent, sharing this Engine's singleton collaborators
// (spec.md §9 "no global mutable singletons").
func (e *Engine) newRuntime(agent *domain.Agent) *agentrt.Runtime {
	deps := agentrt.Deps{
		Workspace:   e.cfg.Workspace,
		TeamDir:     e.teamDir,
		Resolver:    e.resolver,
		Limiter:     e.limiterFor("default"),
		MapSvc:      e.mapSvc,
		Recorder:    e.recorder,
		Chat:        e.chat,
		CommitLog:   e.commitLog,
		Research:    e.research,
		Log:         e.log.With("agent", agent.Name),
		ToolPath:    e.cfg.ToolPath,
		Model:       e.cfg.Model,
		ToolTimeout: e.cfg.ToolTimeout.Duration(),
		Prompts:     e.prompts,
	}
	return agentrt.New(deps, agent)
}

func (e *Engine) limiterFor(provider string) *ratelimit.Limiter {
	if l, ok := e.limiters[provider]; ok {
		return l
	}
	return e.limiters["default"]
}

// Run activates the configured team and blocks until ctx is cancelled,
// then performs a graceful shutdown (spec.md §4.7 "Graceful shutdown").
func (e *Engine) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	if _, err := e.mapSvc.Regenerate(); err != nil {
		if _, err = e.mapSvc.Regenerate(); err != nil {
			e.log.Warning("initial map regenerate failed after one retry: %v", err)
		}
	}

	go func() {
		if werr := e.resolver.Watch(ctx, func(err error) {
			e.log.Warning("ignore-file watch error: %v", err)
		}); werr != nil {
			e.log.Warning("ignore-file watcher not started: %v", werr)
		}
	}()

	go e.recorder.RunHousekeeping(ctx, e.log)

	e.sched.ActivateTeam(e.team)
	e.log.Info("team %q active: %d agents, concurrency %d", e.team.Name, len(e.team.Agents), e.cfg.Concurrency)

	<-ctx.Done()
	e.log.Info("shutdown requested, draining in-flight workers")
	e.sched.Shutdown(shutdownTimeout)
	return nil
}

// Status exposes the scheduler's per-agent snapshot (spec.md §7). The
// CLI has no command that prints it.
func (e *Engine) Status() []scheduler.AgentStatus {
	return e.sched.Status()
}

// Team returns the engine's active team, used by `generate objective`
// to look up a named agent without re-parsing the mission file.
func (e *Engine) Team() *domain.Team {
	return e.team
}

// GenerateAgents pre-generates one prompt stub per configured agent
// that does not already have a prompt file on disk (spec.md §6 CLI
// surface: `generate agents [MISSION_PATH]`). Existing prompt files are
// left untouched so a re-run never clobbers hand-edited prompts.
func (e *Engine) GenerateAgents() (created []string, err error) {
	for _, agent := range e.team.Agents {
		if agent.Kind != domain.KindEdit || agent.PromptPath == "" {
			continue
		}
		abs := agent.PromptPath
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(e.cfg.Workspace, agent.PromptPath)
		}
		wrote, werr := writeIfAbsent(abs, defaultPromptStub(agent))
		if werr != nil {
			return created, fmt.Errorf("generating prompt for %s: %w", agent.Name, werr)
		}
		if wrote {
			created = append(created, agent.PromptPath)
		}
	}
	return created, nil
}

// GenerateObjective produces a per-agent objective file under the
// team directory (spec.md §6: `generate objective --agent NAME`),
// derived from the agent's role and the team's current phase.
func (e *Engine) GenerateObjective(agentName string) (string, error) {
	agent := e.team.ByName(agentName)
	if agent == nil {
		return "", fmt.Errorf("unknown agent %q", agentName)
	}

	objectivePath := filepath.Join(e.teamDir, "objectives", agentName+".md")
	content := fmt.Sprintf(
		"# Objective: %s\n\nRole: %s\nPhase: %s\n\nDrive the workspace map and prompt toward the team's\ncurrent phase goals for this role.\n",
		agent.Name, agent.Role, e.phases.CurrentPhase(),
	)
	if _, err := writeIfAbsent(objectivePath, content); err != nil {
		return "", fmt.Errorf("writing objective for %s: %w", agentName, err)
	}
	return objectivePath, nil
}

func defaultPromptStub(agent *domain.Agent) string {
	return fmt.Sprintf("# %s\n\nRole: %s\n\nDescribe this agent's responsibilities here.\n", agent.Name, agent.Role)
}

func writeIfAbsent(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return false, err
	}
	return true, nil
}
