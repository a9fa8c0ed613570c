package domain

import "time"

// MinScore and MaxScore bound a rating.
const (
	MinScore = 1
	MaxScore = 5
)

// Rating is one user's score for a novel. Unique per (UserID, NovelID).
type Rating struct {
	UserID    string    `json:"user_id"`
	NovelID   string    `json:"novel_id"`
	Score     int       `json:"score"`
	Review    string    `json:"review,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
