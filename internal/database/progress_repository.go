package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/vocala/pkg/models"
)

// ProgressRepository handles database operations for spaced-repetition
// progress records
type ProgressRepository struct{}

// NewProgressRepository creates a new repository instance
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{}
}

// GetByUserAndWord returns the progress record for a specific user and word
func (r *ProgressRepository) GetByUserAndWord(ctx context.Context, userID, wordID int64) (*models.UserProgress, error) {
	var progress models.UserProgress
	query := DB.Rebind("SELECT * FROM user_progress WHERE user_id = ? AND word_id = ?")
	err := DB.GetContext(ctx, &progress, query, userID, wordID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user progress: %v", err)
	}
	return &progress, nil
}

// DueForUser returns progress records due at or before asOf, most overdue
// first. The ordering matters: when the daily batch is capped, the oldest
// due material has to surface first.
func (r *ProgressRepository) DueForUser(ctx context.Context, userID int64, asOf time.Time) ([]models.UserProgress, error) {
	var progress []models.UserProgress
	query := DB.Rebind(`
		SELECT * FROM user_progress
		WHERE user_id = ? AND next_due_at <= ?
		ORDER BY next_due_at ASC
	`)
	if err := DB.SelectContext(ctx, &progress, query, userID, asOf); err != nil {
		return nil, fmt.Errorf("failed to get due words: %v", err)
	}
	return progress, nil
}

// WordIDsForUser returns every word ID the user has ever been given,
// regardless of due state. Used as the exclusion set for new-word selection.
func (r *ProgressRepository) WordIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	query := DB.Rebind("SELECT word_id FROM user_progress WHERE user_id = ?")
	if err := DB.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get user word IDs: %v", err)
	}
	return ids, nil
}

// Create inserts a new progress record. A record for the same (user, word)
// pair must not already exist.
func (r *ProgressRepository) Create(ctx context.Context, progress *models.UserProgress) error {
	now := time.Now().UTC()
	progress.CreatedAt = now
	progress.UpdatedAt = now

	if DB.DriverName() == "postgres" {
		query := `
			INSERT INTO user_progress (
				user_id, word_id, interval_index, next_due_at, last_reviewed_at,
				total_reviews, correct_reviews, mastered, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`
		return DB.QueryRowContext(ctx, query,
			progress.UserID, progress.WordID, progress.IntervalIndex,
			progress.NextDueAt, progress.LastReviewedAt,
			progress.TotalReviews, progress.CorrectReviews, progress.Mastered,
			progress.CreatedAt, progress.UpdatedAt,
		).Scan(&progress.ID)
	}

	query := `
		INSERT INTO user_progress (
			user_id, word_id, interval_index, next_due_at, last_reviewed_at,
			total_reviews, correct_reviews, mastered, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := DB.ExecContext(ctx, query,
		progress.UserID, progress.WordID, progress.IntervalIndex,
		progress.NextDueAt, progress.LastReviewedAt,
		progress.TotalReviews, progress.CorrectReviews, progress.Mastered,
		progress.CreatedAt, progress.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create progress: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %v", err)
	}
	progress.ID = id
	return nil
}

// Update writes a mutated progress record back to the database
func (r *ProgressRepository) Update(ctx context.Context, progress *models.UserProgress) error {
	progress.UpdatedAt = time.Now().UTC()
	query := DB.Rebind(`
		UPDATE user_progress SET
			interval_index = ?,
			next_due_at = ?,
			last_reviewed_at = ?,
			total_reviews = ?,
			correct_reviews = ?,
			mastered = ?,
			updated_at = ?
		WHERE id = ?
	`)
	result, err := DB.ExecContext(ctx, query,
		progress.IntervalIndex, progress.NextDueAt, progress.LastReviewedAt,
		progress.TotalReviews, progress.CorrectReviews, progress.Mastered,
		progress.UpdatedAt, progress.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %v", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats summarizes a user's learning progress
type Stats struct {
	TotalWords     int `db:"total_words"`
	DueNow         int `db:"due_now"`
	Mastered       int `db:"mastered"`
	TotalReviews   int `db:"total_reviews"`
	CorrectReviews int `db:"correct_reviews"`
}

// GetUserStatistics returns aggregate statistics about a user's progress
func (r *ProgressRepository) GetUserStatistics(ctx context.Context, userID int64, asOf time.Time) (*Stats, error) {
	var stats Stats

	query := DB.Rebind("SELECT COUNT(*) FROM user_progress WHERE user_id = ?")
	if err := DB.GetContext(ctx, &stats.TotalWords, query, userID); err != nil {
		return nil, fmt.Errorf("failed to count progress rows: %v", err)
	}

	query = DB.Rebind("SELECT COUNT(*) FROM user_progress WHERE user_id = ? AND next_due_at <= ?")
	if err := DB.GetContext(ctx, &stats.DueNow, query, userID, asOf); err != nil {
		return nil, fmt.Errorf("failed to count due rows: %v", err)
	}

	query = DB.Rebind("SELECT COUNT(*) FROM user_progress WHERE user_id = ? AND mastered = ?")
	if err := DB.GetContext(ctx, &stats.Mastered, query, userID, true); err != nil {
		return nil, fmt.Errorf("failed to count mastered rows: %v", err)
	}

	query = DB.Rebind(`
		SELECT COALESCE(SUM(total_reviews), 0) AS total_reviews,
		       COALESCE(SUM(correct_reviews), 0) AS correct_reviews
		FROM user_progress WHERE user_id = ?
	`)
	row := struct {
		TotalReviews   int `db:"total_reviews"`
		CorrectReviews int `db:"correct_reviews"`
	}{}
	if err := DB.GetContext(ctx, &row, query, userID); err != nil {
		return nil, fmt.Errorf("failed to sum reviews: %v", err)
	}
	stats.TotalReviews = row.TotalReviews
	stats.CorrectReviews = row.CorrectReviews

	return &stats, nil
}
