package models

import (
	"time"

	"gorm.io/datatypes"
)

// ModuleProgressRecord is the persisted snapshot of a student's progress
// through one learning module. The live tracker in the progress package is
// authoritative during a run; this row is the optimistic write-behind.
type ModuleProgressRecord struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ModuleID  uint   `json:"module_id" gorm:"not null;index:idx_progress_module_student,unique"`
	StudentID string `json:"student_id" gorm:"not null;index:idx_progress_module_student,unique"`

	CurrentIndex     int                      `json:"current_index" gorm:"default:0"`
	CompletedIndices datatypes.JSONSlice[int] `json:"completed_indices" gorm:"type:jsonb"`
	SkippedIndices   datatypes.JSONSlice[int] `json:"skipped_indices" gorm:"type:jsonb"`
	ProgressPercent  int                      `json:"progress_percent" gorm:"default:0"`
	Finished         bool                     `json:"finished" gorm:"default:false;index"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (ModuleProgressRecord) TableName() string {
	return "module_progress"
}
