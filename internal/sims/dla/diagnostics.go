package dla

import "fmt"

// DiagnosticKind classifies an anomaly observed during a step.
type DiagnosticKind int

const (
	DiagnosticNone DiagnosticKind = iota
	// DiagnosticSpawnCollision means the sampled spawn cell was occupied.
	// The spawn is retried on the next step.
	DiagnosticSpawnCollision
	// DiagnosticRejectedHop means the walker tried to hop onto an occupied
	// cell and stayed put. Expected when the stick probability is below 1.
	DiagnosticRejectedHop
	// DiagnosticInvariant means an upstream logic fault: a hop onto an
	// occupied cell under certain sticking, or a cell outside the lattice.
	DiagnosticInvariant
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagnosticSpawnCollision:
		return "spawn_collision"
	case DiagnosticRejectedHop:
		return "rejected_hop"
	case DiagnosticInvariant:
		return "invariant_violation"
	default:
		return "none"
	}
}

// Diagnostic records the most recent anomaly.
type Diagnostic struct {
	Kind   DiagnosticKind
	Pos    Position
	Step   uint64
	Detail string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at step %d (%d,%d,%d): %s", d.Kind, d.Step, d.Pos.X, d.Pos.Y, d.Pos.Z, d.Detail)
}

// Stats counts step outcomes since the last reset.
type Stats struct {
	Steps               uint64
	Spawned             uint64
	Hops                uint64
	Stuck               uint64
	Abandoned           uint64
	SpawnCollisions     uint64
	RejectedHops        uint64
	InvariantViolations uint64
}

// FinishReason explains why a run is finished.
type FinishReason int

const (
	FinishNone FinishReason = iota
	// FinishTarget means the target particle count was reached.
	FinishTarget
	// FinishBoundary means the kill sphere neared the lattice edge.
	FinishBoundary
)

func (r FinishReason) String() string {
	switch r {
	case FinishTarget:
		return "target"
	case FinishBoundary:
		return "boundary"
	default:
		return "none"
	}
}
