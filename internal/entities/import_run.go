package entities

import "time"

type ImportStatus string

const (
	ImportStatusIdle       ImportStatus = "idle"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusSuccess    ImportStatus = "success"
	ImportStatusError      ImportStatus = "error"
)

type ImportMode string

const (
	ImportModeRow   ImportMode = "row"
	ImportModeBatch ImportMode = "batch"
)

// ImportCounts are the per-run row tallies reported back to the user.
type ImportCounts struct {
	Total      int `json:"total"`
	Inserted   int `json:"inserted"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
	Errored    int `json:"errored"`
}

// ImportRun tracks one question import from upload to terminal status.
type ImportRun struct {
	ID       string       `gorm:"primaryKey;size:36" json:"id"`
	UserID   uint         `gorm:"index" json:"user_id"`
	FileName string       `gorm:"size:512" json:"file_name"`
	Mode     ImportMode   `gorm:"size:10" json:"mode"`
	Status   ImportStatus `gorm:"size:20;index" json:"status"`
	Percent  int          `json:"percent"`

	ImportCounts `gorm:"embedded"`

	Message     string     `gorm:"size:1024" json:"message,omitempty"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (ImportRun) TableName() string {
	return "import_runs"
}
