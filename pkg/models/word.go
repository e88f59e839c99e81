package models

import "time"

// Level is a CEFR difficulty level from the Oxford 3000 wordlist
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
)

// Valid reports whether the level is one of the supported values
func (l Level) Valid() bool {
	switch l {
	case LevelA1, LevelA2, LevelB1, LevelB2:
		return true
	}
	return false
}

// PartsOfSpeech lists the recognized part-of-speech values for a word
var PartsOfSpeech = []string{
	"noun", "verb", "adjective", "adverb",
	"preposition", "conjunction", "pronoun", "interjection",
}

// ValidPartOfSpeech reports whether pos is a recognized part of speech
func ValidPartOfSpeech(pos string) bool {
	for _, p := range PartsOfSpeech {
		if p == pos {
			return true
		}
	}
	return false
}

// Word represents one cached vocabulary entry. Entries are immutable once
// created and unique on (headword, level).
type Word struct {
	ID           int64     `json:"id" db:"id"`
	Headword     string    `json:"headword" db:"headword"`
	Translation  string    `json:"translation" db:"translation"`
	PartOfSpeech string    `json:"part_of_speech" db:"part_of_speech"`
	Definition   string    `json:"definition" db:"definition"`
	Level        Level     `json:"level" db:"level"`
	Provider     string    `json:"provider" db:"provider"` // LLM provider that generated the entry, or "import"
	Model        string    `json:"model" db:"model"`       // model name, empty for imported entries
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
