// Package types defines the shared domain model for the falcon job
// scheduler: job identifiers, profiling event kinds, and the descriptors
// used to configure a manager's worker pool.
package types

import (
	"fmt"
	"time"
)

// JobID is a process-wide, monotonically increasing job identifier,
// assigned at job-state construction time. It exists for debugging and
// profiling display, not for lookup.
type JobID uint64

// EventKind enumerates the profiling events a worker or manager may emit
// through the event observer interface.
type EventKind int

const (
	EventJobPopped EventKind = iota
	EventJobStart
	EventJobDone
	EventJobRun
	EventJobRunAssisted
	EventJobStolen
	EventWorkerAwoken
	EventWorkerUsed
)

func (k EventKind) String() string {
	switch k {
	case EventJobPopped:
		return "JobPopped"
	case EventJobStart:
		return "JobStart"
	case EventJobDone:
		return "JobDone"
	case EventJobRun:
		return "JobRun"
	case EventJobRunAssisted:
		return "JobRunAssisted"
	case EventJobStolen:
		return "JobStolen"
	case EventWorkerAwoken:
		return "WorkerAwoken"
	case EventWorkerUsed:
		return "WorkerUsed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// WorkerDescriptor configures a single worker thread: its name (used for
// debug/profiling display), its affinity mask (a bitset over logical
// cores, applied best-effort and non-fatal), and whether it may
// participate in work-stealing.
type WorkerDescriptor struct {
	Name         string
	Affinity     uint64
	WorkStealing bool
}

// DefaultWorkerDescriptor returns a descriptor with the given name,
// affinity over every core, and stealing enabled.
func DefaultWorkerDescriptor(name string) WorkerDescriptor {
	return WorkerDescriptor{
		Name:         name,
		Affinity:     ^uint64(0),
		WorkStealing: true,
	}
}

// ManagerDescriptor configures a manager's entire worker pool: one
// WorkerDescriptor per worker to be created, plus the poll interval the
// assist path sleeps for when no stealable job is currently available.
type ManagerDescriptor struct {
	Workers            []WorkerDescriptor
	AssistPollInterval time.Duration
}
