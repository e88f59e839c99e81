package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/vocala/internal/database"
	"github.com/example/vocala/pkg/models"
)

func (b *Bot) handleStartCommand(user *models.User, chatID int64) {
	welcomeText := fmt.Sprintf(`Welcome to Vocala, %s! 🎓

Every day I will send you new English words for your level (%s) with translations and examples, and quiz you on the words you have already seen.

Available commands:
/words - Get today's words
/review - Review due words
/stats - Show your progress
/settings - Level, word count, notifications
/notion - Sync words to your Notion
/help - Show this help`, user.FirstName, user.Level)

	msg := tgbotapi.NewMessage(chatID, welcomeText)
	msg.ReplyMarkup = createKeyboard(b.mainMenuButtons())
	b.send(msg)
}

func (b *Bot) handleHelpCommand(chatID int64) {
	helpText := `/words - Get today's words
/review - Review due words
/stats - Show your progress
/settings - Level, word count, notifications
/notion - Sync words to your Notion`

	msg := tgbotapi.NewMessage(chatID, helpText)
	msg.ReplyMarkup = createKeyboard(b.mainMenuButtons())
	b.send(msg)
}

// handleWordsCommand sends today's batch on demand
func (b *Bot) handleWordsCommand(ctx context.Context, user *models.User, chatID int64) {
	if err := b.DeliverDaily(ctx, user); err != nil {
		log.Printf("Error delivering words to user %d: %v", user.ID, err)
		b.send(tgbotapi.NewMessage(chatID, "Could not prepare your words right now, please try again in a few minutes."))
	}
}

// DeliverDaily assembles and sends the user's daily batch. Also used by
// the notification scheduler.
func (b *Bot) DeliverDaily(ctx context.Context, user *models.User) error {
	batch, err := b.planner.BuildDailyBatch(ctx, user, time.Now().UTC())
	if err != nil {
		return err
	}

	chatID := user.TelegramID
	if batch.Empty() {
		b.send(tgbotapi.NewMessage(chatID, "You are all caught up for today! 🎉 Come back tomorrow for new words."))
		return nil
	}

	if len(batch.Reviews) > 0 {
		msg := tgbotapi.NewMessage(chatID, formatBatchSection("🔁 Words to review", batch.Reviews))
		msg.ParseMode = tgbotapi.ModeHTML
		msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "🎯 Start review", CallbackData: "review"}}})
		b.send(msg)
	}
	if len(batch.Fresh) > 0 {
		msg := tgbotapi.NewMessage(chatID, formatBatchSection("✨ New words for today", batch.Fresh))
		msg.ParseMode = tgbotapi.ModeHTML
		b.send(msg)

		if synced, err := b.syncer.SyncWords(ctx, user, batch.Fresh); err != nil {
			log.Printf("Notion sync failed for user %d: %v", user.ID, err)
		} else if synced > 0 {
			log.Printf("Synced %d words to Notion for user %d", synced, user.ID)
		}
	}
	return nil
}

// handleReviewCommand starts a quiz over the user's due words
func (b *Bot) handleReviewCommand(ctx context.Context, user *models.User, chatID int64) {
	due, err := b.srs.DueWords(ctx, user.ID, time.Now().UTC())
	if err != nil {
		log.Printf("Error loading due words for user %d: %v", user.ID, err)
		b.send(tgbotapi.NewMessage(chatID, "Could not load your review queue, please try again."))
		return
	}
	if len(due) == 0 {
		b.send(tgbotapi.NewMessage(chatID, "Nothing to review right now. 🎉"))
		return
	}

	wordIDs := make([]int64, 0, len(due))
	for _, p := range due {
		wordIDs = append(wordIDs, p.WordID)
	}
	b.reviewSessions[user.TelegramID] = &reviewSession{WordIDs: wordIDs}

	b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("You have %d words to review. Try to recall each word before revealing the answer!", len(wordIDs))))
	b.askNextReviewWord(ctx, user, chatID)
}

func (b *Bot) askNextReviewWord(ctx context.Context, user *models.User, chatID int64) {
	session, ok := b.reviewSessions[user.TelegramID]
	if !ok {
		return
	}
	if session.Index >= len(session.WordIDs) {
		delete(b.reviewSessions, user.TelegramID)
		b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Review finished: %d/%d correct. 💪", session.Correct, len(session.WordIDs))))
		return
	}

	wordID := session.WordIDs[session.Index]
	cards, err := b.service.Cards(ctx, []int64{wordID})
	if err != nil || len(cards) == 0 {
		log.Printf("Error loading word %d for review: %v", wordID, err)
		session.Index++
		b.askNextReviewWord(ctx, user, chatID)
		return
	}
	card := cards[0]

	text := fmt.Sprintf("<b>%s</b> <i>(%s)</i>\n\nDo you remember this word?", card.Word.Headword, card.Word.PartOfSpeech)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "👀 Show answer", CallbackData: fmt.Sprintf("rev_show_%d", card.Word.ID)}},
	})
	b.send(msg)
}

func (b *Bot) revealReviewWord(ctx context.Context, user *models.User, chatID int64, wordID int64) {
	cards, err := b.service.Cards(ctx, []int64{wordID})
	if err != nil || len(cards) == 0 {
		log.Printf("Error loading word %d: %v", wordID, err)
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatWordCard(cards[0]))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{
			{Text: "✅ I knew it", CallbackData: fmt.Sprintf("rev_ok_%d", wordID)},
			{Text: "❌ Forgot", CallbackData: fmt.Sprintf("rev_no_%d", wordID)},
		},
	})
	b.send(msg)
}

func (b *Bot) recordReviewAnswer(ctx context.Context, user *models.User, chatID int64, wordID int64, correct bool) {
	progress, err := b.srs.RecordReview(ctx, user.ID, wordID, correct, time.Now().UTC())
	if err != nil {
		log.Printf("Error recording review for user %d word %d: %v", user.ID, wordID, err)
		b.send(tgbotapi.NewMessage(chatID, "Could not save your answer, please try again."))
		return
	}

	session, ok := b.reviewSessions[user.TelegramID]
	if ok {
		session.Index++
		if correct {
			session.Correct++
		}
	}

	if progress.Mastered {
		b.send(tgbotapi.NewMessage(chatID, "🏆 Mastered! This word graduates from regular reviews."))
	} else if correct {
		b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Next review: %s", progress.NextDueAt.Format("Jan 2"))))
	} else {
		b.send(tgbotapi.NewMessage(chatID, "No worries, we'll practice it again tomorrow."))
	}

	if ok {
		b.askNextReviewWord(ctx, user, chatID)
	}
}

func (b *Bot) handleStatsCommand(ctx context.Context, user *models.User, chatID int64) {
	stats, err := database.NewProgressRepository().GetUserStatistics(ctx, user.ID, time.Now().UTC())
	if err != nil {
		log.Printf("Error getting statistics for user %d: %v", user.ID, err)
		b.send(tgbotapi.NewMessage(chatID, "Statistics are not available yet. Get your first words with /words!"))
		return
	}

	accuracy := 0.0
	if stats.TotalReviews > 0 {
		accuracy = float64(stats.CorrectReviews) / float64(stats.TotalReviews) * 100
	}

	text := fmt.Sprintf(`📊 <b>Your progress</b>

Words in your vocabulary: %d
Due for review now: %d
Mastered: %d
Reviews answered: %d (%.0f%% correct)`,
		stats.TotalWords, stats.DueNow, stats.Mastered, stats.TotalReviews, accuracy)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "🎯 Start review", CallbackData: "review"}},
		{{Text: "« Back to menu", CallbackData: "main_menu"}},
	})
	b.send(msg)
}

func (b *Bot) handleSettingsCommand(user *models.User, chatID int64) {
	notifications := "on"
	if !user.NotificationsEnabled {
		notifications = "off"
	}
	text := fmt.Sprintf(`⚙️ <b>Settings</b>

Level: %s
Words per day: %d
Delivery time: %02d:00 UTC
Notifications: %s`,
		user.Level, user.DailyWordCount, user.NotificationHour, notifications)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{
			{Text: "🎚 Level", CallbackData: "set_level"},
			{Text: "🔢 Words per day", CallbackData: "set_count"},
		},
		{
			{Text: "⏰ Delivery time", CallbackData: "set_hour"},
			{Text: "🔔 Toggle notifications", CallbackData: "toggle_notifications"},
		},
		{
			{Text: "« Back to menu", CallbackData: "main_menu"},
		},
	})
	b.send(msg)
}

func (b *Bot) showLevelOptions(user *models.User, chatID int64) {
	var rows [][]MenuButton
	for _, level := range []models.Level{models.LevelA1, models.LevelA2, models.LevelB1, models.LevelB2} {
		label := string(level)
		if level == user.Level {
			label = "✅ " + label
		}
		rows = append(rows, []MenuButton{{Text: label, CallbackData: "set_level_" + string(level)}})
	}
	rows = append(rows, []MenuButton{{Text: "« Back to settings", CallbackData: "settings"}})

	msg := tgbotapi.NewMessage(chatID, "Choose your level:")
	msg.ReplyMarkup = createKeyboard(rows)
	b.send(msg)
}

func (b *Bot) showCountOptions(user *models.User, chatID int64) {
	var rows [][]MenuButton
	for _, count := range []int{3, 5, 7, 10, 15} {
		if count > b.cfg.MaxWordCount {
			break
		}
		label := fmt.Sprintf("%d words", count)
		if count == user.DailyWordCount {
			label = "✅ " + label
		}
		rows = append(rows, []MenuButton{{Text: label, CallbackData: fmt.Sprintf("set_count_%d", count)}})
	}
	rows = append(rows, []MenuButton{{Text: "« Back to settings", CallbackData: "settings"}})

	msg := tgbotapi.NewMessage(chatID, "How many words per day?")
	msg.ReplyMarkup = createKeyboard(rows)
	b.send(msg)
}

func (b *Bot) showHourOptions(user *models.User, chatID int64) {
	var rows [][]MenuButton
	for _, hour := range []int{7, 9, 12, 15, 18, 21} {
		label := fmt.Sprintf("%02d:00", hour)
		if hour == user.NotificationHour {
			label = "✅ " + label
		}
		rows = append(rows, []MenuButton{{Text: label, CallbackData: fmt.Sprintf("set_hour_%d", hour)}})
	}
	rows = append(rows, []MenuButton{{Text: "« Back to settings", CallbackData: "settings"}})

	msg := tgbotapi.NewMessage(chatID, "When should I send your daily words? (UTC)")
	msg.ReplyMarkup = createKeyboard(rows)
	b.send(msg)
}

// updateUser persists a settings change and confirms it to the user
func (b *Bot) updateUser(ctx context.Context, user *models.User, chatID int64, confirmation string) {
	if err := b.users.Update(ctx, user); err != nil {
		log.Printf("Error updating user %d: %v", user.ID, err)
		b.send(tgbotapi.NewMessage(chatID, "❌ Error saving settings. Please try again."))
		return
	}
	b.send(tgbotapi.NewMessage(chatID, confirmation))
	b.handleSettingsCommand(user, chatID)
}

func (b *Bot) handleNotionCommand(user *models.User, chatID int64) {
	status := "not configured"
	switch {
	case user.NotionSyncEnabled:
		status = "enabled"
	case user.NotionToken != "" && user.NotionDatabaseID != "":
		status = "configured, paused"
	}

	text := fmt.Sprintf(`🗂 <b>Notion sync</b>

Status: %s

Connect a Notion integration and I will add every new word to your own database. You need:
1. An internal integration token (starts with "ntn_" or "secret_")
2. A database shared with that integration`, status)

	rows := [][]MenuButton{
		{{Text: "🔑 Set token", CallbackData: "notion_token"}},
		{{Text: "📋 Set database", CallbackData: "notion_database"}},
	}
	if user.NotionToken != "" && user.NotionDatabaseID != "" {
		label := "▶️ Enable sync"
		if user.NotionSyncEnabled {
			label = "⏸ Pause sync"
		}
		rows = append(rows, []MenuButton{{Text: label, CallbackData: "notion_toggle"}})
	}
	rows = append(rows, []MenuButton{{Text: "« Back to menu", CallbackData: "main_menu"}})

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = createKeyboard(rows)
	b.send(msg)
}

// handleStateInput consumes a plain-text message that a settings flow is
// waiting for
func (b *Bot) handleStateInput(ctx context.Context, user *models.User, message *tgbotapi.Message, state userState) {
	delete(b.userStates, user.TelegramID)
	input := strings.TrimSpace(message.Text)
	chatID := message.Chat.ID

	switch state.State {
	case stateAwaitingNotionToken:
		if input == "" {
			b.send(tgbotapi.NewMessage(chatID, "That does not look like a token. Use /notion to try again."))
			return
		}
		user.NotionToken = input
		if err := b.users.Update(ctx, user); err != nil {
			log.Printf("Error saving Notion token for user %d: %v", user.ID, err)
			b.send(tgbotapi.NewMessage(chatID, "❌ Error saving the token. Please try again."))
			return
		}
		b.send(tgbotapi.NewMessage(chatID, "Token saved. Now send me your database ID with the 📋 Set database button."))
		b.handleNotionCommand(user, chatID)

	case stateAwaitingNotionDatabase:
		if input == "" {
			b.send(tgbotapi.NewMessage(chatID, "That does not look like a database ID. Use /notion to try again."))
			return
		}
		user.NotionDatabaseID = input
		if err := b.syncer.CheckDatabase(ctx, user); err != nil {
			log.Printf("Notion database check failed for user %d: %v", user.ID, err)
			user.NotionDatabaseID = ""
			b.send(tgbotapi.NewMessage(chatID, "❌ I could not access that database. Make sure it is shared with your integration and the ID is correct."))
			return
		}
		user.NotionSyncEnabled = true
		if err := b.users.Update(ctx, user); err != nil {
			log.Printf("Error saving Notion database for user %d: %v", user.ID, err)
			b.send(tgbotapi.NewMessage(chatID, "❌ Error saving the database. Please try again."))
			return
		}
		b.send(tgbotapi.NewMessage(chatID, "✅ Notion connected! New words will appear in your database."))

	default:
		b.send(tgbotapi.NewMessage(chatID, "I don't understand. Use /help to see what I can do."))
	}
}

// handleCallbackQuery handles button presses
func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	// Acknowledge the button press so the client stops the spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		log.Printf("Error answering callback: %v", err)
	}

	chatID := callback.Message.Chat.ID
	user, err := b.ensureUser(ctx, callback.From)
	if err != nil {
		log.Printf("Error loading user %d: %v", callback.From.ID, err)
		return
	}

	data := callback.Data
	switch data {
	case "main_menu":
		msg := tgbotapi.NewMessage(chatID, "Main menu:")
		msg.ReplyMarkup = createKeyboard(b.mainMenuButtons())
		b.send(msg)
	case "words":
		b.handleWordsCommand(ctx, user, chatID)
	case "review":
		b.handleReviewCommand(ctx, user, chatID)
	case "stats":
		b.handleStatsCommand(ctx, user, chatID)
	case "settings":
		b.handleSettingsCommand(user, chatID)
	case "set_level":
		b.showLevelOptions(user, chatID)
	case "set_count":
		b.showCountOptions(user, chatID)
	case "set_hour":
		b.showHourOptions(user, chatID)
	case "toggle_notifications":
		user.NotificationsEnabled = !user.NotificationsEnabled
		confirmation := "🔔 Daily notifications enabled."
		if !user.NotificationsEnabled {
			confirmation = "🔕 Daily notifications disabled. You can still use /words any time."
		}
		b.updateUser(ctx, user, chatID, confirmation)
	case "notion_token":
		b.userStates[user.TelegramID] = userState{State: stateAwaitingNotionToken, Timestamp: time.Now()}
		b.send(tgbotapi.NewMessage(chatID, "Send me your Notion integration token. You can create one at notion.so/my-integrations."))
	case "notion_database":
		b.userStates[user.TelegramID] = userState{State: stateAwaitingNotionDatabase, Timestamp: time.Now()}
		b.send(tgbotapi.NewMessage(chatID, "Send me the database ID (the 32-character part of the database URL)."))
	case "notion_toggle":
		user.NotionSyncEnabled = !user.NotionSyncEnabled
		confirmation := "▶️ Notion sync enabled."
		if !user.NotionSyncEnabled {
			confirmation = "⏸ Notion sync paused."
		}
		if err := b.users.Update(ctx, user); err != nil {
			log.Printf("Error updating user %d: %v", user.ID, err)
			return
		}
		b.send(tgbotapi.NewMessage(chatID, confirmation))
		b.handleNotionCommand(user, chatID)
	default:
		b.handlePrefixedCallback(ctx, user, chatID, data)
	}
}

func (b *Bot) handlePrefixedCallback(ctx context.Context, user *models.User, chatID int64, data string) {
	switch {
	case strings.HasPrefix(data, "rev_show_"):
		if id, err := strconv.ParseInt(strings.TrimPrefix(data, "rev_show_"), 10, 64); err == nil {
			b.revealReviewWord(ctx, user, chatID, id)
		}
	case strings.HasPrefix(data, "rev_ok_"):
		if id, err := strconv.ParseInt(strings.TrimPrefix(data, "rev_ok_"), 10, 64); err == nil {
			b.recordReviewAnswer(ctx, user, chatID, id, true)
		}
	case strings.HasPrefix(data, "rev_no_"):
		if id, err := strconv.ParseInt(strings.TrimPrefix(data, "rev_no_"), 10, 64); err == nil {
			b.recordReviewAnswer(ctx, user, chatID, id, false)
		}
	case strings.HasPrefix(data, "set_level_"):
		level := models.Level(strings.TrimPrefix(data, "set_level_"))
		if !level.Valid() {
			return
		}
		user.Level = level
		b.updateUser(ctx, user, chatID, fmt.Sprintf("✅ Level set to %s", level))
	case strings.HasPrefix(data, "set_count_"):
		count, err := strconv.Atoi(strings.TrimPrefix(data, "set_count_"))
		if err != nil || count < 1 || count > b.cfg.MaxWordCount {
			return
		}
		user.DailyWordCount = count
		b.updateUser(ctx, user, chatID, fmt.Sprintf("✅ Words per day set to %d", count))
	case strings.HasPrefix(data, "set_hour_"):
		hour, err := strconv.Atoi(strings.TrimPrefix(data, "set_hour_"))
		if err != nil || hour < 0 || hour > 23 {
			return
		}
		user.NotificationHour = hour
		b.updateUser(ctx, user, chatID, fmt.Sprintf("✅ Daily words will arrive at %02d:00 UTC", hour))
	}
}
