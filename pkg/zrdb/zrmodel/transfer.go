package zrmodel

import "time"

const (
	TransferStatusPending    = "pending"
	TransferStatusInProgress = "in_progress"
	TransferStatusCompleted  = "completed"
	TransferStatusFailed     = "failed"
)

// Transfer tracks one file's journey from local storage to a Zenodo
// deposition. A transfer is created in the pending state by the submitter
// and only ever moves forward: pending -> in_progress -> completed|failed.
// ZenodoResponse holds the raw upload response on success, or the error
// text on failure.
type Transfer struct {
	ID             int       `json:"id"`
	UUID           string    `json:"uuid"`
	Username       string    `json:"username"`
	FilePath       string    `json:"file_path"`
	Filename       string    `json:"filename"`
	DepositionID   int       `json:"deposition_id"`
	DepositionName string    `json:"deposition_name"`
	Status         string    `json:"status"`
	ZenodoResponse string    `gorm:"column:zenodo_response" json:"zenodo_response"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Transfer) TableName() string {
	return "zenodo_transfers"
}

// IsTerminal is true once a transfer has reached completed or failed. A
// terminal transfer is never touched by the worker again.
func (t *Transfer) IsTerminal() bool {
	return t.Status == TransferStatusCompleted || t.Status == TransferStatusFailed
}
