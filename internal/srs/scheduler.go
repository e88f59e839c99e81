// Package srs implements interval-based spaced repetition against a fixed
// ascending table of day offsets.
package srs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/vocala/internal/config"
	"github.com/example/vocala/internal/database"
	"github.com/example/vocala/pkg/models"
)

// ErrUnknownWord is returned when a review is recorded against a word that
// was never delivered to the user. That's a caller bug or stale callback
// data, never a reason to create a record on the fly.
var ErrUnknownWord = errors.New("srs: no progress record for user and word")

// ProgressStore is the persistence surface the scheduler needs
type ProgressStore interface {
	GetByUserAndWord(ctx context.Context, userID, wordID int64) (*models.UserProgress, error)
	DueForUser(ctx context.Context, userID int64, asOf time.Time) ([]models.UserProgress, error)
	WordIDsForUser(ctx context.Context, userID int64) ([]int64, error)
	Create(ctx context.Context, progress *models.UserProgress) error
	Update(ctx context.Context, progress *models.UserProgress) error
}

// Scheduler computes review schedules from a fixed interval table.
//
// interval_index holds the index of the table entry that will be applied by
// the next review: a correct review schedules the word intervals[index] days
// out and then advances the index (capped at the last entry), an incorrect
// review first moves the index back according to the lapse policy and then
// schedules from the new index. A word becomes mastered when a correct
// review lands while the index is already at the cap.
type Scheduler struct {
	store     ProgressStore
	intervals []int
	lapse     config.LapsePolicy
}

// NewScheduler creates a scheduler. The interval table must be strictly
// ascending; config.Load enforces that.
func NewScheduler(store ProgressStore, intervals []int, lapse config.LapsePolicy) *Scheduler {
	return &Scheduler{
		store:     store,
		intervals: intervals,
		lapse:     lapse,
	}
}

// Assign creates progress records for words delivered to the user for the
// first time. New words are due immediately so they enter the review flow
// right away. Words the user already has are skipped.
func (s *Scheduler) Assign(ctx context.Context, userID int64, wordIDs []int64, asOf time.Time) ([]models.UserProgress, error) {
	var created []models.UserProgress
	for _, wordID := range wordIDs {
		_, err := s.store.GetByUserAndWord(ctx, userID, wordID)
		if err == nil {
			continue
		}
		if !errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("srs: failed to check progress: %w", err)
		}

		progress := models.UserProgress{
			UserID:         userID,
			WordID:         wordID,
			IntervalIndex:  0,
			NextDueAt:      asOf,
			LastReviewedAt: asOf,
		}
		if err := s.store.Create(ctx, &progress); err != nil {
			return nil, fmt.Errorf("srs: failed to create progress: %w", err)
		}
		created = append(created, progress)
	}
	return created, nil
}

// RecordReview applies a review outcome and reschedules the word. Fails
// with ErrUnknownWord when the word was never assigned to the user.
func (s *Scheduler) RecordReview(ctx context.Context, userID, wordID int64, correct bool, asOf time.Time) (*models.UserProgress, error) {
	progress, err := s.store.GetByUserAndWord(ctx, userID, wordID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %d, word %d", ErrUnknownWord, userID, wordID)
	}
	if err != nil {
		return nil, fmt.Errorf("srs: failed to load progress: %w", err)
	}

	s.apply(progress, correct, asOf)

	if err := s.store.Update(ctx, progress); err != nil {
		return nil, fmt.Errorf("srs: failed to save progress: %w", err)
	}
	return progress, nil
}

// apply mutates the record for one review outcome
func (s *Scheduler) apply(p *models.UserProgress, correct bool, asOf time.Time) {
	cap := len(s.intervals) - 1

	p.TotalReviews++
	p.LastReviewedAt = asOf

	if correct {
		p.CorrectReviews++
		p.NextDueAt = asOf.AddDate(0, 0, s.intervals[p.IntervalIndex])
		if p.IntervalIndex < cap {
			p.IntervalIndex++
		} else {
			// Sustained at the longest interval
			p.Mastered = true
		}
		return
	}

	switch s.lapse {
	case config.LapseDecrement:
		if p.IntervalIndex > 0 {
			p.IntervalIndex--
		}
	default: // config.LapseReset
		p.IntervalIndex = 0
	}
	p.Mastered = false
	p.NextDueAt = asOf.AddDate(0, 0, s.intervals[p.IntervalIndex])
}

// DueWords returns the user's progress records due at or before asOf, most
// overdue first. An empty result is not an error.
func (s *Scheduler) DueWords(ctx context.Context, userID int64, asOf time.Time) ([]models.UserProgress, error) {
	due, err := s.store.DueForUser(ctx, userID, asOf)
	if err != nil {
		return nil, fmt.Errorf("srs: failed to load due words: %w", err)
	}
	return due, nil
}

// SeenWordIDs returns every word ID ever assigned to the user
func (s *Scheduler) SeenWordIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids, err := s.store.WordIDsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("srs: failed to load seen words: %w", err)
	}
	return ids, nil
}
