package history

import (
	"time"

	"fakenews-detector/internal/domain"
)

type HistoryModel struct {
	ID         string  `gorm:"primaryKey;type:varchar(36)"`
	UserID     string  `gorm:"index;type:varchar(36);not null"`
	InputText  string  `gorm:"type:text;not null"`
	Prediction string  `gorm:"size:8;not null"`
	Confidence float64 `gorm:"not null"`
	ImageURL   *string `gorm:"size:512"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (HistoryModel) TableName() string { return "analysis_history" }

func (m *HistoryModel) ToDomain() *domain.HistoryRecord {
	return &domain.HistoryRecord{
		ID:         m.ID,
		UserID:     m.UserID,
		InputText:  m.InputText,
		Prediction: domain.Label(m.Prediction),
		Confidence: m.Confidence,
		ImageURL:   m.ImageURL,
		CreatedAt:  m.CreatedAt,
	}
}

func FromDomain(r *domain.HistoryRecord) *HistoryModel {
	return &HistoryModel{
		ID:         r.ID,
		UserID:     r.UserID,
		InputText:  r.InputText,
		Prediction: string(r.Prediction),
		Confidence: r.Confidence,
		ImageURL:   r.ImageURL,
		CreatedAt:  r.CreatedAt,
	}
}
