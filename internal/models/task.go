package models

// TaskPriority classifies a task's scheduling urgency.
type TaskPriority string

const (
	PriorityEarlyOut TaskPriority = "early_out"
	PriorityHigh     TaskPriority = "high_priority"
	PriorityLow      TaskPriority = "low_priority"
)

// BucketOrder is the canonical iteration order over container buckets. The
// re-optimizer uses pool position as a tie-break, so this order must never
// change.
var BucketOrder = []TaskPriority{PriorityEarlyOut, PriorityHigh, PriorityLow}

// Task is one unit of cleaning work. Booleans default to false when absent on
// input; coordinates stay nil when unknown; durations are integer minutes.
type Task struct {
	TaskID        int64        `json:"task_id"`
	LogisticCode  string       `json:"logistic_code,omitempty"`
	Lat           *float64     `json:"lat,omitempty"`
	Lng           *float64     `json:"lng,omitempty"`
	CleaningTime  int          `json:"cleaning_time,omitempty"`
	StartTime     string       `json:"start_time,omitempty"`
	EndTime       string       `json:"end_time,omitempty"`
	Sequence      int          `json:"sequence,omitempty"`
	TravelTime    int          `json:"travel_time,omitempty"`
	Premium       bool         `json:"premium,omitempty"`
	Straordinaria bool         `json:"straordinaria,omitempty"`
	Priority      TaskPriority `json:"priority,omitempty"`
	// Reasons explain assignment decisions; insertion order is meaningful
	// for audit display.
	Reasons []string `json:"reasons,omitempty"`
}
