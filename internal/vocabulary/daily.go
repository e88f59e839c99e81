package vocabulary

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/vocala/internal/srs"
	"github.com/example/vocala/pkg/models"
)

// DailyBatch is one day's delivery for a user: due reviews first, then
// new words filling the remaining slots up to the user's daily count.
type DailyBatch struct {
	Reviews []WordCard
	Fresh   []WordCard
}

func (b *DailyBatch) Empty() bool {
	return len(b.Reviews) == 0 && len(b.Fresh) == 0
}

// Planner assembles daily batches from the review schedule and the word
// cache
type Planner struct {
	service   *Service
	scheduler *srs.Scheduler
}

func NewPlanner(service *Service, scheduler *srs.Scheduler) *Planner {
	return &Planner{service: service, scheduler: scheduler}
}

// BuildDailyBatch picks the user's batch for asOf. Due reviews take the
// slots first, most overdue words ahead of the rest. New words are fetched
// for whatever slots remain and assigned to the user so they enter the
// review schedule. If new words cannot be produced the batch ships with
// reviews only rather than failing the whole delivery.
func (p *Planner) BuildDailyBatch(ctx context.Context, user *models.User, asOf time.Time) (*DailyBatch, error) {
	limit := user.DailyWordCount
	if limit <= 0 {
		return &DailyBatch{}, nil
	}

	due, err := p.scheduler.DueWords(ctx, user.ID, asOf)
	if err != nil {
		return nil, err
	}
	if len(due) > limit {
		due = due[:limit]
	}

	dueIDs := make([]int64, 0, len(due))
	for _, d := range due {
		dueIDs = append(dueIDs, d.WordID)
	}
	reviews, err := p.service.Cards(ctx, dueIDs)
	if err != nil {
		return nil, err
	}

	batch := &DailyBatch{Reviews: reviews}

	remaining := limit - len(reviews)
	if remaining <= 0 {
		return batch, nil
	}

	seen, err := p.scheduler.SeenWordIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	fresh, err := p.service.GetDailyWords(ctx, user.Level, remaining, seen)
	if errors.Is(err, ErrContentUnavailable) {
		log.Printf("daily batch for user %d: no new words: %v", user.ID, err)
		return batch, nil
	}
	if err != nil {
		return nil, fmt.Errorf("vocabulary: failed to pick new words: %v", err)
	}

	freshIDs := make([]int64, 0, len(fresh))
	for _, card := range fresh {
		freshIDs = append(freshIDs, card.Word.ID)
	}
	if _, err := p.scheduler.Assign(ctx, user.ID, freshIDs, asOf); err != nil {
		return nil, err
	}

	batch.Fresh = fresh
	return batch, nil
}
