package domain

// AgentPhase is the convergence agent's state machine position.
type AgentPhase string

const (
	PhaseIdle        AgentPhase = "idle"
	PhaseDiscovering AgentPhase = "discovering"
	PhasePlanning    AgentPhase = "planning"
	PhaseExecuting   AgentPhase = "executing"
)
