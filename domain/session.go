package domain

import "time"

// Session status. Terminal states are absorbing: once a session is
// completed or abandoned no further rounds are served for it.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionAbandoned = "abandoned"
)

// SessionRequest carries the caller-supplied parameters for a new
// session. Excluded ids are session-scoped hard exclusions on top of
// the user's persistent ones.
type SessionRequest struct {
	MealIntent string
	Budget     float64
	Occasion   string
	Mood       string
	Excluded   []uint64
}

// SessionState tracks one recommendation session across rounds.
type SessionState struct {
	ID         string    `json:"id"`
	UserID     uint      `json:"user_id"`
	MealIntent string    `json:"meal_intent"` // breakfast|lunch|dinner|snack
	Budget     float64   `json:"budget"`      // 0 = unconstrained
	Occasion   string    `json:"occasion"`
	Mood       string    `json:"mood"`
	Shown      []uint64  `json:"shown"`
	Excluded   []uint64  `json:"excluded"`
	Iteration  int       `json:"iteration"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s *SessionState) Terminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionAbandoned
}

// WasShown reports whether the item was returned in a previous round of
// this session.
func (s *SessionState) WasShown(itemID uint64) bool {
	for _, id := range s.Shown {
		if id == itemID {
			return true
		}
	}
	return false
}

// Interaction event types persisted for exclusion and repeat-penalty
// computation.
const (
	InteractionShown    = "shown"
	InteractionOrdered  = "ordered"
	InteractionRated    = "rated"
	InteractionDisliked = "disliked"
	InteractionExcluded = "excluded" // permanent, user-initiated
)

// InteractionEvent is one row of per-user item history.
type InteractionEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"column:user_id;not null;index" json:"user_id"`
	ItemID    uint64    `gorm:"column:item_id;not null" json:"item_id"`
	EventType string    `gorm:"column:event_type;not null" json:"event_type"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (InteractionEvent) TableName() string {
	return "interaction_events"
}
