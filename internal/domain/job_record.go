package domain

import "time"

// JobRecord is the relational index row kept alongside the authoritative
// per-job blob documents so the dashboard can list recent jobs without
// scanning the container. It is best-effort: the blob record wins on any
// disagreement.
type JobRecord struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	URL       string    `gorm:"type:text;not null" json:"url"`
	Status    JobStatus `gorm:"type:text;index:idx_jobs_status" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for JobRecord.
func (JobRecord) TableName() string {
	return "jobs"
}
