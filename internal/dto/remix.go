package dto

import "github.com/vellari/cleanops-api/internal/models"

// LeftoverPoolKey tags the flattened leftover pool in the optimizer payload.
const LeftoverPoolKey = "all"

// OptimizerRequest is the stdin contract of the external optimizer worker.
// Cleaner identifiers are JSON object keys, hence strings.
type OptimizerRequest struct {
	DayStart           string                   `json:"day_start"`
	AssignedByCleaner  map[string][]models.Task `json:"assigned_by_cleaner"`
	LeftoversByCleaner map[string][]models.Task `json:"leftovers_by_cleaner"`
}

// OptimizerResponse is the stdout contract of the external optimizer worker.
// Any shape without timeline_by_cleaner is treated as "no usable mapping".
type OptimizerResponse struct {
	TimelineByCleaner map[string][]models.Task `json:"timeline_by_cleaner"`
}

// RemixCommand is the validated input to a remix pass.
type RemixCommand struct {
	WorkDate string `json:"-" validate:"required,datetime=2006-01-02"`
	Actor    string `json:"actor" validate:"omitempty,max=128"`
}

// RemixResult reports the outcome of one remix invocation.
type RemixResult struct {
	Remixed        bool `json:"remixed"`
	LeftoversCount int  `json:"leftovers_count"`
}

// LeftoverSummary exposes per-bucket counts of the containers document.
type LeftoverSummary struct {
	EarlyOut     int  `json:"early_out"`
	HighPriority int  `json:"high_priority"`
	LowPriority  int  `json:"low_priority"`
	Total        int  `json:"total"`
	HasLeftovers bool `json:"has_leftovers"`
}
