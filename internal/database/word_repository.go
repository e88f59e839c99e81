package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/example/vocala/pkg/models"
)

// WordRepository handles database operations for cached vocabulary words
type WordRepository struct{}

// NewWordRepository creates a new repository instance
func NewWordRepository() *WordRepository {
	return &WordRepository{}
}

// GetByID returns a word by ID
func (r *WordRepository) GetByID(ctx context.Context, id int64) (*models.Word, error) {
	var word models.Word
	query := DB.Rebind("SELECT * FROM words WHERE id = ?")
	if err := DB.GetContext(ctx, &word, query, id); err != nil {
		return nil, fmt.Errorf("failed to get word by ID: %v", err)
	}
	return &word, nil
}

// GetByHeadwordAndLevel returns the cached entry for (headword, level), or
// sql.ErrNoRows wrapped if none exists
func (r *WordRepository) GetByHeadwordAndLevel(ctx context.Context, headword string, level models.Level) (*models.Word, error) {
	var word models.Word
	query := DB.Rebind("SELECT * FROM words WHERE headword = ? AND level = ?")
	if err := DB.GetContext(ctx, &word, query, strings.ToLower(headword), level); err != nil {
		return nil, fmt.Errorf("failed to get word %q (%s): %w", headword, level, err)
	}
	return &word, nil
}

// FindByLevel returns up to limit cached words at the given level whose IDs
// are not in excludeIDs, oldest entries first
func (r *WordRepository) FindByLevel(ctx context.Context, level models.Level, excludeIDs []int64, limit int) ([]models.Word, error) {
	var words []models.Word
	var query string
	var args []interface{}
	var err error

	if len(excludeIDs) == 0 {
		query = "SELECT * FROM words WHERE level = ? ORDER BY id LIMIT ?"
		args = []interface{}{level, limit}
	} else {
		query, args, err = sqlx.In("SELECT * FROM words WHERE level = ? AND id NOT IN (?) ORDER BY id LIMIT ?", level, excludeIDs, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to build word query: %v", err)
		}
	}

	if err := DB.SelectContext(ctx, &words, DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to find words by level: %v", err)
	}
	return words, nil
}

// Headwords returns all cached headwords at the given level. The vocabulary
// service passes them to the LLM so it doesn't regenerate what's cached.
func (r *WordRepository) Headwords(ctx context.Context, level models.Level) ([]string, error) {
	var headwords []string
	query := DB.Rebind("SELECT headword FROM words WHERE level = ? ORDER BY headword")
	if err := DB.SelectContext(ctx, &headwords, query, level); err != nil {
		return nil, fmt.Errorf("failed to get headwords: %v", err)
	}
	return headwords, nil
}

// Insert stores a new word with its examples. On a (headword, level)
// conflict the insert is a no-op and the already cached row is returned
// instead: first writer wins, concurrent generation of the same word is a
// benign race.
func (r *WordRepository) Insert(ctx context.Context, word *models.Word, examples []models.Example) (*models.Word, error) {
	word.Headword = strings.ToLower(strings.TrimSpace(word.Headword))

	var inserted bool
	if DB.DriverName() == "postgres" {
		query := `
			INSERT INTO words (headword, translation, part_of_speech, definition, level, provider, model)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (headword, level) DO NOTHING
			RETURNING id, created_at
		`
		err := DB.QueryRowContext(ctx, query,
			word.Headword, word.Translation, word.PartOfSpeech,
			word.Definition, word.Level, word.Provider, word.Model,
		).Scan(&word.ID, &word.CreatedAt)
		switch {
		case err == nil:
			inserted = true
		case errors.Is(err, sql.ErrNoRows):
			// Conflict: another writer got there first
		default:
			return nil, fmt.Errorf("failed to insert word: %v", err)
		}
	} else {
		query := `
			INSERT INTO words (headword, translation, part_of_speech, definition, level, provider, model)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (headword, level) DO NOTHING
		`
		result, err := DB.ExecContext(ctx, query,
			word.Headword, word.Translation, word.PartOfSpeech,
			word.Definition, word.Level, word.Provider, word.Model,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert word: %v", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to check insert result: %v", err)
		}
		if affected > 0 {
			id, err := result.LastInsertId()
			if err != nil {
				return nil, fmt.Errorf("failed to get last insert ID: %v", err)
			}
			word.ID = id
			inserted = true
		}
	}

	if !inserted {
		// Discard this writer's copy and use the cached row
		return r.GetByHeadwordAndLevel(ctx, word.Headword, word.Level)
	}

	exampleQuery := DB.Rebind("INSERT INTO examples (word_id, sentence, translation, position) VALUES (?, ?, ?, ?)")
	for i, ex := range examples {
		if _, err := DB.ExecContext(ctx, exampleQuery, word.ID, ex.Sentence, ex.Translation, i); err != nil {
			return nil, fmt.Errorf("failed to insert example for word %d: %v", word.ID, err)
		}
	}
	return word, nil
}

// CountByLevel returns the number of cached words at the given level
func (r *WordRepository) CountByLevel(ctx context.Context, level models.Level) (int, error) {
	var count int
	query := DB.Rebind("SELECT COUNT(*) FROM words WHERE level = ?")
	if err := DB.GetContext(ctx, &count, query, level); err != nil {
		return 0, fmt.Errorf("failed to count words: %v", err)
	}
	return count, nil
}

// GetByIDs returns the words for the given IDs, preserving no particular order
func (r *WordRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Word, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT * FROM words WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build word query: %v", err)
	}
	var words []models.Word
	if err := DB.SelectContext(ctx, &words, DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get words by IDs: %v", err)
	}
	return words, nil
}
