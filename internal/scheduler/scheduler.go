// Package scheduler drives the daily word deliveries. An hourly tick
// matches users against their preferred notification hour, so a one-hour
// job granularity is enough.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/vocala/internal/database"
	"github.com/example/vocala/pkg/models"
)

// Notifier delivers a daily batch to one user. Implemented by the bot.
type Notifier interface {
	DeliverDaily(ctx context.Context, user *models.User) error
}

// Scheduler manages the hourly delivery job
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     *database.UserRepository
	now       func() time.Time
}

// New creates a new scheduler instance
func New(notifier Notifier) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		users:     database.NewUserRepository(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start begins running the delivery job at the top of every hour
func (s *Scheduler) Start() {
	s.scheduler.Every(1).Hour().Do(s.deliverDueBatches)
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// deliverDueBatches sends the daily batch to every user whose delivery
// hour is now. One failing user never blocks the rest.
func (s *Scheduler) deliverDueBatches() {
	currentHour := s.now().Hour()

	users, err := s.users.GetUsersForNotification(context.Background(), currentHour)
	if err != nil {
		log.Printf("Error getting users for notification: %v", err)
		return
	}
	if len(users) == 0 {
		return
	}
	log.Printf("Delivering daily words to %d users (hour %02d:00 UTC)", len(users), currentHour)

	for i := range users {
		user := &users[i]
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := s.notifier.DeliverDaily(ctx, user); err != nil {
			log.Printf("Error delivering daily words to user %d: %v", user.ID, err)
		}
		cancel()
	}
}

// RunManualCheck forces a delivery for a specific user, regardless of
// their notification hour
func (s *Scheduler) RunManualCheck(ctx context.Context, telegramID int64) error {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}
	return s.notifier.DeliverDaily(ctx, user)
}
