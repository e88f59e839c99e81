package models

// Example is one usage example attached to a word, ordered by Position
type Example struct {
	ID          int64  `json:"id" db:"id"`
	WordID      int64  `json:"word_id" db:"word_id"`
	Sentence    string `json:"sentence" db:"sentence"`
	Translation string `json:"translation" db:"translation"`
	Position    int    `json:"position" db:"position"`
}
