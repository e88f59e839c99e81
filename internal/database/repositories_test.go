package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocala/pkg/models"
)

func setupDB(t *testing.T) {
	t.Helper()
	require.NoError(t, ConnectMemory())
	t.Cleanup(func() { Close() })
}

func insertWord(t *testing.T, headword string, level models.Level, examples ...string) *models.Word {
	t.Helper()
	word := &models.Word{
		Headword:     headword,
		Translation:  "перевод",
		PartOfSpeech: "noun",
		Level:        level,
	}
	ex := make([]models.Example, 0, len(examples))
	for _, sentence := range examples {
		ex = append(ex, models.Example{Sentence: sentence})
	}
	stored, err := NewWordRepository().Insert(context.Background(), word, ex)
	require.NoError(t, err)
	return stored
}

func TestWordInsertAndLookup(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	repo := NewWordRepository()

	stored := insertWord(t, "Journey", models.LevelA2, "The journey took two hours.")
	assert.NotZero(t, stored.ID)
	assert.Equal(t, "journey", stored.Headword, "headwords are stored lowercase")

	found, err := repo.GetByHeadwordAndLevel(ctx, "JOURNEY", models.LevelA2)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, found.ID)

	count, err := repo.CountByLevel(ctx, models.LevelA2)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWordInsertConflictKeepsFirstWriter(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	repo := NewWordRepository()

	first := insertWord(t, "journey", models.LevelA2, "First writer sentence.")

	second := &models.Word{
		Headword:     "journey",
		Translation:  "другой перевод",
		PartOfSpeech: "noun",
		Level:        models.LevelA2,
	}
	stored, err := repo.Insert(ctx, second, []models.Example{{Sentence: "Second writer sentence."}})
	require.NoError(t, err)

	// The losing writer gets the cached row, unchanged
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "перевод", stored.Translation)

	examples, err := NewExampleRepository().GetByWordID(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, examples, 1)
	assert.Equal(t, "First writer sentence.", examples[0].Sentence)

	count, err := repo.CountByLevel(ctx, models.LevelA2)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFindByLevelExcludesAndLimits(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	repo := NewWordRepository()

	a := insertWord(t, "apple", models.LevelA1)
	insertWord(t, "bread", models.LevelA1)
	insertWord(t, "chair", models.LevelA1)
	insertWord(t, "harbor", models.LevelB1)

	words, err := repo.FindByLevel(ctx, models.LevelA1, []int64{a.ID}, 10)
	require.NoError(t, err)
	require.Len(t, words, 2)
	assert.Equal(t, "bread", words[0].Headword)

	words, err = repo.FindByLevel(ctx, models.LevelA1, nil, 2)
	require.NoError(t, err)
	assert.Len(t, words, 2)

	headwords, err := repo.Headwords(ctx, models.LevelA1)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "bread", "chair"}, headwords)
}

func TestExamplesKeepPosition(t *testing.T) {
	setupDB(t)
	ctx := context.Background()

	word := insertWord(t, "journey", models.LevelA2, "First.", "Second.", "Third.")

	examples, err := NewExampleRepository().GetByWordID(ctx, word.ID)
	require.NoError(t, err)
	require.Len(t, examples, 3)
	assert.Equal(t, "First.", examples[0].Sentence)
	assert.Equal(t, "Third.", examples[2].Sentence)

	byWord, err := NewExampleRepository().GetByWordIDs(ctx, []int64{word.ID})
	require.NoError(t, err)
	assert.Len(t, byWord[word.ID], 3)
}

func TestUserLifecycle(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	repo := NewUserRepository()

	_, err := repo.GetByTelegramID(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	user := &models.User{
		TelegramID:           42,
		Username:             "learner",
		FirstName:            "Ada",
		Level:                models.LevelB1,
		DailyWordCount:       5,
		NotificationHour:     9,
		NotificationsEnabled: true,
	}
	require.NoError(t, repo.Create(ctx, user))
	require.NotZero(t, user.ID)

	user.Level = models.LevelB2
	user.NotificationHour = 18
	require.NoError(t, repo.Update(ctx, user))

	loaded, err := repo.GetByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, models.LevelB2, loaded.Level)
	assert.Equal(t, 18, loaded.NotificationHour)

	missing := &models.User{ID: 9999}
	assert.ErrorIs(t, repo.Update(ctx, missing), ErrNotFound)
}

func TestGetUsersForNotification(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	repo := NewUserRepository()

	users := []*models.User{
		{TelegramID: 1, Level: models.LevelB1, NotificationHour: 9, NotificationsEnabled: true},
		{TelegramID: 2, Level: models.LevelB1, NotificationHour: 9, NotificationsEnabled: false},
		{TelegramID: 3, Level: models.LevelB1, NotificationHour: 15, NotificationsEnabled: true},
	}
	for _, u := range users {
		require.NoError(t, repo.Create(ctx, u))
	}

	due, err := repo.GetUsersForNotification(ctx, 9)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, int64(1), due[0].TelegramID)
}

func TestProgressDueOrderingAndStats(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	repo := NewProgressRepository()

	user := &models.User{TelegramID: 42, Level: models.LevelB1}
	require.NoError(t, NewUserRepository().Create(ctx, user))

	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	words := []struct {
		headword string
		due      time.Time
		mastered bool
		total    int
		correct  int
	}{
		{"apple", now.AddDate(0, 0, -3), false, 4, 2},
		{"bread", now.AddDate(0, 0, -1), true, 6, 6},
		{"chair", now.AddDate(0, 0, 2), false, 1, 1},
	}
	for _, w := range words {
		word := insertWord(t, w.headword, models.LevelA1)
		require.NoError(t, repo.Create(ctx, &models.UserProgress{
			UserID:         user.ID,
			WordID:         word.ID,
			NextDueAt:      w.due,
			LastReviewedAt: w.due.AddDate(0, 0, -1),
			TotalReviews:   w.total,
			CorrectReviews: w.correct,
			Mastered:       w.mastered,
		}))
	}

	due, err := repo.DueForUser(ctx, user.ID, now)
	require.NoError(t, err)
	require.Len(t, due, 2, "future entries never appear in the due list")
	assert.True(t, due[0].NextDueAt.Before(due[1].NextDueAt))

	ids, err := repo.WordIDsForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	stats, err := repo.GetUserStatistics(ctx, user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalWords)
	assert.Equal(t, 2, stats.DueNow)
	assert.Equal(t, 1, stats.Mastered)
	assert.Equal(t, 11, stats.TotalReviews)
	assert.Equal(t, 9, stats.CorrectReviews)
}
