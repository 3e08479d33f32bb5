package gate

import (
	"context"
	"time"
)

// Presence describes the outcome of reading one state document
type Presence int

const (
	// Absent means the document does not exist
	Absent Presence = iota
	// Malformed means the document exists but could not be read or parsed
	Malformed
	// Present means the document was read and parsed
	Present
)

// String returns the string representation of the presence
func (p Presence) String() string {
	switch p {
	case Absent:
		return "absent"
	case Malformed:
		return "malformed"
	case Present:
		return "present"
	default:
		return "unknown"
	}
}

// Phase is the declared workflow phase. Numeric phases are stored in their
// shortest form so 4 and 4.0 compare equal to "4".
type Phase struct {
	Value string
}

// IsZero reports whether no phase was declared
func (p Phase) IsZero() bool {
	return p.Value == ""
}

func (p Phase) String() string {
	if p.IsZero() {
		return "none"
	}
	return p.Value
}

// TaskQA is the review status embedded in the run state for the active task
type TaskQA struct {
	TaskID string
	Status string
}

// RunState is the subset of the run state document the gate reads
type RunState struct {
	Phase  Phase
	TaskQA *TaskQA
}

// ContextRecord is the subset of the context document the gate reads
type ContextRecord struct {
	TaskID string
}

// ReviewRecord is one persisted verdict from an independent review
type ReviewRecord struct {
	Name     string
	Verdict  string
	ModTime  time.Time
	Presence Presence
}

// RunStateReader reads the process-wide run state
type RunStateReader interface {
	RunState(ctx context.Context) (RunState, Presence)
}

// ContextReader reads the context record
type ContextReader interface {
	Context(ctx context.Context) (ContextRecord, Presence)
}

// ArtifactReader reads per-task QA artifacts
type ArtifactReader interface {
	// CriteriaExists reports whether a criteria record exists for the task
	CriteriaExists(ctx context.Context, taskID string) bool
	// CriteriaLocation is where the criteria record is expected, for remediation messages
	CriteriaLocation(taskID string) string
	// ReviewRecords lists every review record for the task, malformed ones included
	ReviewRecords(ctx context.Context, taskID string) []ReviewRecord
	// PassMarkerExists reports whether the pass marker exists for the task
	PassMarkerExists(ctx context.Context, taskID string) bool
}

// Store is every read the gate performs
type Store interface {
	RunStateReader
	ContextReader
	ArtifactReader
}
