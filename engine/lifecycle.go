package engine

import "fmt"

// RunStatus captures the coarse state of one run for events and logging.
type RunStatus string

const (
	StatusBuilding         RunStatus = "building"
	StatusAwaitingProvider RunStatus = "awaiting_provider"
	StatusExecutingTools   RunStatus = "executing_tools"
	StatusCompleted        RunStatus = "completed"
	StatusFailed           RunStatus = "failed"
)

var allowedStatusTransitions = map[RunStatus]map[RunStatus]struct{}{
	"": {
		StatusBuilding: {},
	},
	StatusBuilding: {
		StatusAwaitingProvider: {},
		StatusFailed:           {},
	},
	StatusAwaitingProvider: {
		StatusExecutingTools: {},
		StatusCompleted:      {},
		StatusFailed:         {},
	},
	StatusExecutingTools: {
		StatusAwaitingProvider: {},
		StatusFailed:           {},
	},
	StatusCompleted: {},
	StatusFailed:    {},
}

// runState is the in-flight state of a single run. It lives for exactly one
// Run call; only its committed continuity record outlives it.
type runState struct {
	threadID   string
	promptName string
	status     RunStatus
	round      int
	responseID string
}

func (s *runState) transition(to RunStatus) error {
	if s.status == to {
		return nil
	}
	allowed, ok := allowedStatusTransitions[s.status]
	if !ok {
		return fmt.Errorf("run status transition: unknown source status %q", s.status)
	}
	if _, ok := allowed[to]; !ok {
		return fmt.Errorf("run status transition: %s -> %s not allowed", s.status, to)
	}
	s.status = to
	return nil
}
