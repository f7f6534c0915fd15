package domain

import (
	"context"
	"time"
)

type Label string

const (
	LabelFake Label = "Fake"
	LabelReal Label = "Real"
)

func (l Label) Valid() bool { return l == LabelFake || l == LabelReal }

// HistoryRecord is an immutable log entry of one classification request.
// Confidence is the softmax probability of the predicted label as a
// percentage, so always within [0,100].
type HistoryRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	InputText  string    `json:"text"`
	Prediction Label     `json:"prediction"`
	Confidence float64   `json:"confidence"`
	ImageURL   *string   `json:"imageUrl"`
	CreatedAt  time.Time `json:"createdAt"`
}

type HistoryRepository interface {
	Append(ctx context.Context, rec *HistoryRecord) error
	// ListByUser returns records newest first. limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]HistoryRecord, error)
}
