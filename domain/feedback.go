package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Feedback event types.
const (
	FeedbackLike    = "like"
	FeedbackDislike = "dislike"
	FeedbackOrder   = "order"
	FeedbackSkip    = "skip"
)

// FeedbackEvent is one explicit preference signal from a user.
type FeedbackEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"column:user_id;not null;index" json:"user_id"`
	ItemID    uint64    `gorm:"column:item_id;not null" json:"item_id"`
	EventType string    `gorm:"column:event_type;not null" json:"event_type"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	// OccurredAt is when the signal actually happened; temporal decay
	// is computed against it, not against the row insert time.
	OccurredAt time.Time         `gorm:"column:occurred_at" json:"occurred_at"`
	Context    datatypes.JSONMap `gorm:"column:context;type:jsonb" json:"context"`
}

func (FeedbackEvent) TableName() string {
	return "feedback_events"
}

// Positive reports whether the event counts as positive evidence.
func (e FeedbackEvent) Positive() bool {
	return e.EventType == FeedbackLike || e.EventType == FeedbackOrder
}
