package scheduler_test

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loomwork/loomwork/internal/agentrt"
	"github.com/loomwork/loomwork/internal/chatlog"
	"github.com/loomwork/loomwork/internal/dataset"
	"github.com/loomwork/loomwork/internal/domain"
	"github.com/loomwork/loomwork/internal/logx"
	"github.com/loomwork/loomwork/internal/mapservice"
	"github.com/loomwork/loomwork/internal/pathresolve"
	"github.com/loomwork/loomwork/internal/ratelimit"
	"github.com/loomwork/loomwork/internal/scheduler"
)

// writeFakeTool writes a shell script standing in for the external
// edit tool (spec.md §6 "child-process contract"): it ignores its
// argument vector, sleeps briefly to hold its worker slot long enough
// for concurrent cycles to overlap, then reports one file write so the
// cycle counts as a successful mutation.
func writeFakeTool(dir string, sleep time.Duration) string {
	path := filepath.Join(dir, "fake-tool.sh")
	script := fmt.Sprintf("#!/bin/sh\nsleep %g\necho \"Wrote x.md\"\n", sleep.Seconds())
	Expect(os.WriteFile(path, []byte(script), 0755)).To(Succeed())
	return path
}

func newTestTeam(n int, workspace string) *domain.Team {
	agents := make([]*domain.Agent, n)
	for i := 0; i < n; i++ {
		promptPath := filepath.Join(workspace, fmt.Sprintf("prompt-%d.md", i))
		Expect(os.WriteFile(promptPath, []byte("do the thing"), 0644)).To(Succeed())
		agent, err := domain.NewAgent(fmt.Sprintf("agent-%d", i), "production", promptPath, domain.KindEdit, domain.MinInterval)
		Expect(err).NotTo(HaveOccurred())
		agents[i] = agent
	}
	team, err := domain.NewTeam("core", agents, nil)
	Expect(err).NotTo(HaveOccurred())
	return team
}

func newTestFactory(workspace, toolPath string) scheduler.RuntimeFactory {
	resolver, err := pathresolve.New(workspace)
	Expect(err).NotTo(HaveOccurred())
	teamDir := filepath.Join(workspace, "team_core")
	deps := agentrt.Deps{
		Workspace:   workspace,
		TeamDir:     teamDir,
		Resolver:    resolver,
		Limiter:     ratelimit.New(1000, time.Minute),
		MapSvc:      mapservice.New(teamDir, resolver),
		Recorder:    dataset.New(workspace),
		Chat:        chatlog.New(workspace, "test-mission"),
		CommitLog:   chatlog.NewCommitLog(workspace),
		Log:         logx.Default(),
		ToolPath:    toolPath,
		Model:       "test-model",
		ToolTimeout: time.Minute,
	}
	return func(agent *domain.Agent) *agentrt.Runtime {
		return agentrt.New(deps, agent)
	}
}

var _ = Describe("Scheduler concurrency cap (spec.md §8 scenario S5)", func() {
	It("never lets the in-flight set exceed the configured concurrency", func() {
		workspace := GinkgoT().TempDir()

		const concurrency = 3
		// Staggered startup (spec.md §4.7) starts worker i after
		// i*InitialStartDelay; holding each mutation open well past
		// the last worker's start lets the probe observe all three
		// workers in-flight at once, not just the first to launch.
		toolSleep := 3*scheduler.InitialStartDelay + time.Second
		toolPath := writeFakeTool(workspace, toolSleep)

		team := newTestTeam(15, workspace)
		factory := newTestFactory(workspace, toolPath)

		sched := scheduler.New(concurrency, nil, factory, logx.Default())
		sched.ActivateTeam(team)
		defer sched.Shutdown(2 * time.Second)

		var mu sync.Mutex
		maxObserved := 0
		deadline := time.Now().Add(3*scheduler.InitialStartDelay + 500*time.Millisecond)
		for time.Now().Before(deadline) {
			n := sched.InFlightCount()
			mu.Lock()
			if n > maxObserved {
				maxObserved = n
			}
			mu.Unlock()
			Expect(n).To(BeNumerically("<=", concurrency))
			time.Sleep(50 * time.Millisecond)
		}

		Expect(maxObserved).To(Equal(concurrency), "expected all %d workers to be in-flight simultaneously once staggered startup completed", concurrency)
	})
})

var _ = Describe("Scheduler graceful shutdown (spec.md §8 scenario S6)", func() {
	It("waits for in-flight workers to drain within the timeout", func() {
		workspace := GinkgoT().TempDir()
		// Longer than the shutdown timeout: the child process must be
		// signalled and terminated rather than waited out.
		toolPath := writeFakeTool(workspace, 10*time.Second)

		team := newTestTeam(2, workspace)
		factory := newTestFactory(workspace, toolPath)

		sched := scheduler.New(2, nil, factory, logx.Default())
		sched.ActivateTeam(team)

		// Give workers a moment to pick up an agent before shutting down.
		time.Sleep(200 * time.Millisecond)

		start := time.Now()
		sched.Shutdown(2 * time.Second)
		elapsed := time.Since(start)

		Expect(elapsed).To(BeNumerically("<", 3*time.Second))
		Expect(sched.InFlightCount()).To(Equal(0))
	})
})
