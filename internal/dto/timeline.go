package dto

import "time"

// SnapshotRequest asks for a history revision of the current timeline.
type SnapshotRequest struct {
	CreatedBy string `json:"created_by" binding:"required,max=128"`
}

// SnapshotResponse reports the revision number assigned to a snapshot.
type SnapshotResponse struct {
	Revision  int `json:"revision"`
	TaskCount int `json:"task_count"`
}

// RestoreRequest rolls the current timeline back to a historical revision.
type RestoreRequest struct {
	RestoredBy string `json:"restored_by" binding:"required,max=128"`
}

// ExportResponse carries the signed download reference for a day sheet.
type ExportResponse struct {
	ExportID  string    `json:"export_id"`
	Filename  string    `json:"filename"`
	Format    string    `json:"format"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
