package models

import "time"

// DocumentMetadata tags a persisted document with its WorkDate partition and
// audit fields. Legacy documents may carry no metadata at all.
type DocumentMetadata struct {
	Date        string    `json:"date"`
	LastUpdated time.Time `json:"last_updated"`
	CreatedBy   string    `json:"created_by,omitempty"`
	ModifiedBy  []string  `json:"modified_by,omitempty"`
}

// Cleaner identifies a field worker.
type Cleaner struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// CleanerAssignment binds a cleaner to their ordered visit sequence for one
// WorkDate. Task order is the visit order.
type CleanerAssignment struct {
	Cleaner Cleaner `json:"cleaner"`
	Tasks   []Task  `json:"tasks"`
}

// TimelineMeta carries aggregate counters for quick inspection.
type TimelineMeta struct {
	TotalCleaners int       `json:"total_cleaners"`
	TotalTasks    int       `json:"total_tasks"`
	LastUpdated   time.Time `json:"last_updated"`
}

// Timeline is the canonical per-date document mapping cleaners to their
// ordered task assignments.
type Timeline struct {
	Metadata            DocumentMetadata    `json:"metadata"`
	CleanersAssignments []CleanerAssignment `json:"cleaners_assignments"`
	Meta                TimelineMeta        `json:"meta"`
}

// NewRecoveryTimeline synthesizes the empty document returned when no valid
// persisted copy exists. Callers treat it as an empty schedule, not an error.
func NewRecoveryTimeline(workDate string) *Timeline {
	now := time.Now().UTC()
	return &Timeline{
		Metadata:            DocumentMetadata{Date: workDate, LastUpdated: now},
		CleanersAssignments: []CleanerAssignment{},
		Meta:                TimelineMeta{LastUpdated: now},
	}
}

// Stamp overwrites the partition metadata and refreshes aggregate counters.
// Every save goes through this, regardless of caller-supplied values.
func (t *Timeline) Stamp(workDate string, now time.Time) {
	t.Metadata.Date = workDate
	t.Metadata.LastUpdated = now
	if t.CleanersAssignments == nil {
		t.CleanersAssignments = []CleanerAssignment{}
	}
	total := 0
	for _, assignment := range t.CleanersAssignments {
		total += len(assignment.Tasks)
	}
	t.Meta.TotalCleaners = len(t.CleanersAssignments)
	t.Meta.TotalTasks = total
	t.Meta.LastUpdated = now
}

// TaskCount returns how many tasks the timeline holds across all cleaners.
func (t *Timeline) TaskCount() int {
	count := 0
	for _, assignment := range t.CleanersAssignments {
		count += len(assignment.Tasks)
	}
	return count
}

// Container holds one priority bucket of unassigned tasks.
type Container struct {
	Tasks []Task `json:"tasks"`
}

// ContainerSet partitions leftover tasks into the three priority buckets.
// Struct fields, not a map: bucket iteration order is part of the contract.
type ContainerSet struct {
	EarlyOut     Container `json:"early_out"`
	HighPriority Container `json:"high_priority"`
	LowPriority  Container `json:"low_priority"`
}

// Bucket returns the bucket for a priority, in-place.
func (s *ContainerSet) Bucket(priority TaskPriority) *Container {
	switch priority {
	case PriorityEarlyOut:
		return &s.EarlyOut
	case PriorityHigh:
		return &s.HighPriority
	default:
		return &s.LowPriority
	}
}

// TaskCount sums tasks across all buckets.
func (s *ContainerSet) TaskCount() int {
	return len(s.EarlyOut.Tasks) + len(s.HighPriority.Tasks) + len(s.LowPriority.Tasks)
}

// ContainersDocument is the per-date document of not-yet-assigned tasks,
// produced by the upstream extraction phase.
type ContainersDocument struct {
	Metadata   *DocumentMetadata `json:"metadata,omitempty"`
	Containers ContainerSet      `json:"containers"`
}

// SelectedCleanersDocument lists the cleaners chosen for a WorkDate.
type SelectedCleanersDocument struct {
	Metadata *DocumentMetadata `json:"metadata,omitempty"`
	Cleaners []Cleaner         `json:"cleaners"`
}
