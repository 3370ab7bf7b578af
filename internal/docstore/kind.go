package docstore

import (
	"encoding/json"
	"fmt"

	"github.com/vellari/cleanops-api/internal/models"
)

// Kind names one of the per-date JSON documents this service owns.
type Kind string

const (
	KindTimeline         Kind = "timeline"
	KindContainers       Kind = "containers"
	KindSelectedCleaners Kind = "selected_cleaners"
)

// Filename returns the on-disk name for a kind within a WorkDate directory.
func (k Kind) Filename() string {
	return fmt.Sprintf("%s.json", string(k))
}

// validate reports whether raw bytes are an acceptable document of this kind
// for the requested WorkDate. A document passes when its embedded date
// matches, when it carries no date (legacy/untagged), or when it otherwise
// has the minimally valid shape for its kind.
func (k Kind) validate(raw []byte, workDate string) bool {
	switch k {
	case KindTimeline:
		var doc models.Timeline
		if err := json.Unmarshal(raw, &doc); err != nil {
			return false
		}
		if doc.Metadata.Date == workDate || doc.Metadata.Date == "" {
			return true
		}
		return doc.CleanersAssignments != nil
	case KindContainers:
		var doc models.ContainersDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return false
		}
		return doc.Metadata == nil || doc.Metadata.Date == workDate || doc.Metadata.Date == ""
	case KindSelectedCleaners:
		var doc models.SelectedCleanersDocument
		if err := json.Unmarshal(raw, &doc); err != nil {
			return false
		}
		return doc.Metadata == nil || doc.Metadata.Date == workDate || doc.Metadata.Date == ""
	default:
		return false
	}
}
