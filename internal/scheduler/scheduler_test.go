package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocala/internal/database"
	"github.com/example/vocala/pkg/models"
)

type fakeNotifier struct {
	delivered []int64
	failFor   int64
}

func (f *fakeNotifier) DeliverDaily(_ context.Context, user *models.User) error {
	if user.TelegramID == f.failFor {
		return errors.New("telegram is down")
	}
	f.delivered = append(f.delivered, user.TelegramID)
	return nil
}

func seedUser(t *testing.T, telegramID int64, hour int, enabled bool) {
	t.Helper()
	user := &models.User{
		TelegramID:           telegramID,
		Level:                models.LevelB1,
		DailyWordCount:       5,
		NotificationHour:     hour,
		NotificationsEnabled: enabled,
	}
	require.NoError(t, database.NewUserRepository().Create(context.Background(), user))
}

func TestDeliverDueBatchesMatchesHour(t *testing.T) {
	require.NoError(t, database.ConnectMemory())
	t.Cleanup(func() { database.Close() })

	seedUser(t, 100, 9, true)
	seedUser(t, 200, 9, true)
	seedUser(t, 300, 15, true)
	seedUser(t, 400, 9, false)

	notifier := &fakeNotifier{}
	sched := New(notifier)
	sched.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }

	sched.deliverDueBatches()
	assert.ElementsMatch(t, []int64{100, 200}, notifier.delivered)
}

func TestDeliverDueBatchesContinuesAfterFailure(t *testing.T) {
	require.NoError(t, database.ConnectMemory())
	t.Cleanup(func() { database.Close() })

	seedUser(t, 100, 9, true)
	seedUser(t, 200, 9, true)

	notifier := &fakeNotifier{failFor: 100}
	sched := New(notifier)
	sched.now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }

	sched.deliverDueBatches()
	assert.ElementsMatch(t, []int64{200}, notifier.delivered)
}

func TestRunManualCheck(t *testing.T) {
	require.NoError(t, database.ConnectMemory())
	t.Cleanup(func() { database.Close() })

	seedUser(t, 100, 9, false)

	notifier := &fakeNotifier{}
	sched := New(notifier)

	require.NoError(t, sched.RunManualCheck(context.Background(), 100))
	assert.Equal(t, []int64{100}, notifier.delivered)

	err := sched.RunManualCheck(context.Background(), 999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
