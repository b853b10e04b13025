package repository

import (
	"context"
	"time"

	"github.com/tomaz/vidsent/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobRepository maintains the relational job index used by the listing
// endpoint. The blob record in the JobStore is authoritative; this
// index is best-effort and rebuilt opportunistically on writes.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Upsert creates or refreshes an index row.
func (r *JobRepository) Upsert(ctx context.Context, rec *domain.JobRecord) error {
	rec.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "status", "updated_at"}),
	}).Create(rec).Error
}

// SetStatus updates only the indexed status for a job.
func (r *JobRepository) SetStatus(ctx context.Context, id string, status domain.JobStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.JobRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

// GetByID retrieves one index row.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.JobRecord, error) {
	var rec domain.JobRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns recent jobs, newest first.
func (r *JobRepository) List(ctx context.Context, limit, offset int) ([]domain.JobRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var recs []domain.JobRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// CountByStatus returns the number of indexed jobs per status.
func (r *JobRepository) CountByStatus(ctx context.Context) (map[domain.JobStatus]int64, error) {
	type row struct {
		Status domain.JobStatus
		N      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&domain.JobRecord{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.JobStatus]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.N
	}
	return counts, nil
}
