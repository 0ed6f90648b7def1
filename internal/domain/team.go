package domain

import "fmt"

// Team is an ordered set of agents plus a phase policy. Exactly one
// team is active per workspace at any moment (spec.md §3 "Team").
type Team struct {
	Name        string
	Agents      []*Agent
	PhaseConfig map[Phase][]string // phase -> active agent names
}

// NewTeam builds a Team, rejecting duplicate agent names.
func NewTeam(name string, agents []*Agent, phaseConfig map[Phase][]string) (*Team, error) {
	seen := make(map[string]bool, len(agents))
	for _, a := range agents {
		if seen[a.Name] {
			return nil, fmt.Errorf("duplicate agent name %q in team %q", a.Name, name)
		}
		seen[a.Name] = true
	}
	return &Team{Name: name, Agents: agents, PhaseConfig: phaseConfig}, nil
}

// ByName returns the agent with the given name, or nil.
func (t *Team) ByName(name string) *Agent {
	for _, a := range t.Agents {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// ActiveIn returns the agents permitted to run during the given phase.
// If no phase_config entry exists for the phase, every agent is active
// (an empty PhaseConfig means phase gating is not in use).
func (t *Team) ActiveIn(phase Phase) []*Agent {
	if len(t.PhaseConfig) == 0 {
		return t.Agents
	}
	allowed, ok := t.PhaseConfig[phase]
	if !ok {
		return t.Agents
	}
	allowedSet := make(map[string]bool, len(allowed))
	for _, n := range allowed {
		allowedSet[n] = true
	}
	var out []*Agent
	for _, a := range t.Agents {
		if allowedSet[a.Name] {
			out = append(out, a)
		}
	}
	return out
}
