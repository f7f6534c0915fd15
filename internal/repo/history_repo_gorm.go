package repo

import (
	"context"

	"gorm.io/gorm"

	"fakenews-detector/internal/domain"
	"fakenews-detector/internal/feature/history"
)

type HistoryRepo struct{ db *gorm.DB }

func NewHistoryRepo(db *gorm.DB) *HistoryRepo { return &HistoryRepo{db: db} }

func (r *HistoryRepo) Append(ctx context.Context, rec *domain.HistoryRecord) error {
	m := history.FromDomain(rec)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	// Timestamp is assigned at insert time; reflect it back to the caller.
	rec.CreatedAt = m.CreatedAt
	return nil
}

func (r *HistoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.HistoryRecord, error) {
	q := r.db.WithContext(ctx).
		Model(&history.HistoryModel{}).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var ms []history.HistoryModel
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.HistoryRecord, 0, len(ms))
	for i := range ms {
		out = append(out, *ms[i].ToDomain())
	}
	return out, nil
}
