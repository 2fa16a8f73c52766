package models

import "time"

// RunStatus is the terminal or in-flight state of a caption run record.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// CaptionRun is the persisted history record of one generation run.
// The live pipeline state (abort flag, child processes) is never
// persisted; this row only tracks what happened.
type CaptionRun struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	AssetName   string     `json:"asset_name"`
	Status      RunStatus  `json:"status"`
	Stage       string     `json:"stage"`
	Progress    int        `json:"progress"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
