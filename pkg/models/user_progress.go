package models

import "time"

// UserProgress tracks one user's spaced-repetition state for one word.
// A row is created when the word is first delivered to the user and mutated
// on every review after that; it is never deleted while the user exists.
type UserProgress struct {
	ID             int64     `json:"id" db:"id"`
	UserID         int64     `json:"user_id" db:"user_id"`
	WordID         int64     `json:"word_id" db:"word_id"`
	IntervalIndex  int       `json:"interval_index" db:"interval_index"` // index into the SRS interval table
	NextDueAt      time.Time `json:"next_due_at" db:"next_due_at"`
	LastReviewedAt time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
	TotalReviews   int       `json:"total_reviews" db:"total_reviews"`
	CorrectReviews int       `json:"correct_reviews" db:"correct_reviews"`
	Mastered       bool      `json:"mastered" db:"mastered"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
