package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// PipelineRun records one execution of the recommendation pipeline. Failed
// runs keep their error; the recommendations table is only touched by
// completed runs.
type PipelineRun struct {
	ID                  string            `gorm:"primaryKey;column:id" json:"id"`
	Status              string            `gorm:"column:status;not null" json:"status"`
	StartedAt           time.Time         `gorm:"column:started_at" json:"started_at"`
	FinishedAt          *time.Time        `gorm:"column:finished_at" json:"finished_at"`
	DurationMS          int64             `gorm:"column:duration_ms" json:"duration_ms"`
	Error               string            `gorm:"column:error;type:text" json:"error,omitempty"`
	ProductCount        int               `gorm:"column:product_count" json:"product_count"`
	CandidateCount      int               `gorm:"column:candidate_count" json:"candidate_count"`
	RecommendationCount int               `gorm:"column:recommendation_count" json:"recommendation_count"`
	Summary             datatypes.JSONMap `gorm:"column:summary;type:jsonb" json:"summary"`
}

func (PipelineRun) TableName() string {
	return "pipeline_runs"
}
