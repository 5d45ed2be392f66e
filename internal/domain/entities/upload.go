package entities

import "time"

// UploadStatus is the value stored against an upload key in the status store.
// An absent key has no UploadStatus.
type UploadStatus string

const (
	UploadStatusScanning UploadStatus = "scanning"
	UploadStatusReady    UploadStatus = "ready"
)

// UploadTask is the unit of work handed to the background runner. QuarantinePath
// is owned by the finalizer once the task is submitted.
type UploadTask struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id"`
	QuarantinePath string    `json:"quarantine_path"`
	IsUpdate       bool      `json:"is_update"`
	Checksum       string    `json:"checksum,omitempty"` // sha256 of the quarantine file at submission
	Attempts       int       `json:"attempts"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}

// FailedTask is a task that exhausted its retries.
type FailedTask struct {
	ID             uint      `gorm:"primaryKey"`
	TaskID         string    `gorm:"size:64;not null;index"`
	RequestID      string    `gorm:"size:255;not null;index"`
	QuarantinePath string    `gorm:"size:1024;not null"`
	IsUpdate       bool      `gorm:"not null;default:false"`
	Attempts       int       `gorm:"not null"`
	LastError      string    `gorm:"type:text;not null"`
	Payload        []byte    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (FailedTask) TableName() string {
	return "failed_tasks"
}

// ChunkProgress describes a ranged upload after one chunk was written.
type ChunkProgress struct {
	Size      int64 // length of the quarantine file
	Received  int64 // distinct bytes of [0,total) received so far
	Complete  bool
	Completed bool // this chunk is the one that completed the file
}
