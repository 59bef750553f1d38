package models

import "time"

// ImportBatchStatus is the terminal state of a statement import run.
type ImportBatchStatus string

const (
	ImportBatchCompleted ImportBatchStatus = "completed"
	ImportBatchFailed    ImportBatchStatus = "failed"
)

// ImportBatch records one run of a broker statement import: which file was
// read, how many rows made it into the ledger, and how many were skipped as
// malformed or duplicate. The ID is a UUIDv7, so batches sort by run time.
type ImportBatch struct {
	ID         string            `gorm:"type:uuid;primaryKey" json:"id"`
	BrokerCode BrokerCode        `gorm:"size:20;not null" json:"broker_code"`
	FileName   string            `gorm:"not null" json:"file_name"`
	Processed  int               `gorm:"not null;default:0" json:"processed"`
	Skipped    int               `gorm:"not null;default:0" json:"skipped"`
	Status     ImportBatchStatus `gorm:"size:20;not null" json:"status"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
