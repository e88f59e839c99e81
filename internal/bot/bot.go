// Package bot is the Telegram front end: commands, inline keyboards and
// the review quiz flow.
package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/vocala/internal/config"
	"github.com/example/vocala/internal/database"
	"github.com/example/vocala/internal/notion"
	"github.com/example/vocala/internal/srs"
	"github.com/example/vocala/internal/vocabulary"
	"github.com/example/vocala/pkg/models"
)

// MenuButton represents a button in a menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates an inline keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// reviewSession tracks a user's ongoing quiz over their due words
type reviewSession struct {
	WordIDs []int64
	Index   int
	Correct int
}

// userState marks that the next plain-text message from the user is input
// for a settings flow
type userState struct {
	State     string
	Timestamp time.Time
}

const (
	stateAwaitingNotionToken    = "awaiting_notion_token"
	stateAwaitingNotionDatabase = "awaiting_notion_database"
)

// Bot represents the Telegram bot application. Updates are handled on a
// single goroutine, so the session maps need no locking.
type Bot struct {
	api     *tgbotapi.BotAPI
	cfg     *config.Config
	users   *database.UserRepository
	service *vocabulary.Service
	planner *vocabulary.Planner
	srs     *srs.Scheduler
	syncer  *notion.Syncer

	reviewSessions     map[int64]*reviewSession
	userStates         map[int64]userState
	awaitingFileUpload map[int64]bool
	adminUserIDs       map[int64]bool

	done chan struct{}
}

// New creates a new bot instance. The Telegram client is created here,
// before any delivery job can run, so api is never written concurrently.
func New(cfg *config.Config, service *vocabulary.Service, planner *vocabulary.Planner, scheduler *srs.Scheduler, syncer *notion.Syncer) (*Bot, error) {
	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.TelegramToken, cfg.TelegramEndpoint)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %v", err)
	}
	log.Printf("Authorized on account %s", api.Self.UserName)

	bot := &Bot{
		api:                api,
		cfg:                cfg,
		users:              database.NewUserRepository(),
		service:            service,
		planner:            planner,
		srs:                scheduler,
		syncer:             syncer,
		reviewSessions:     make(map[int64]*reviewSession),
		userStates:         make(map[int64]userState),
		awaitingFileUpload: make(map[int64]bool),
		adminUserIDs:       make(map[int64]bool),
		done:               make(chan struct{}),
	}
	for _, id := range cfg.AdminUserIDs {
		bot.adminUserIDs[id] = true
	}
	return bot, nil
}

// Start processes updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			close(b.done)
			return nil
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

// Done is closed once the update loop has stopped
func (b *Bot) Done() <-chan struct{} {
	return b.done
}

func (b *Bot) isAdmin(telegramID int64) bool {
	return b.adminUserIDs[telegramID]
}

// ensureUser loads the user for the sender, registering them on first
// contact with the configured defaults
func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*models.User, error) {
	user, err := b.users.GetByTelegramID(ctx, from.ID)
	if err == nil {
		return user, nil
	}
	if err != database.ErrNotFound {
		return nil, err
	}

	user = &models.User{
		TelegramID:           from.ID,
		Username:             from.UserName,
		FirstName:            from.FirstName,
		LastName:             from.LastName,
		Level:                b.cfg.DefaultLevel,
		DailyWordCount:       b.cfg.DailyWordCount,
		NotificationHour:     config.DefaultNotificationHour,
		NotificationsEnabled: true,
		IsAdmin:              b.isAdmin(from.ID),
	}
	if err := b.users.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("Registered new user %d (%s)", user.TelegramID, user.Username)
	return user, nil
}

// handleUpdate handles one incoming update from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil || update.Message.From == nil {
		return
	}

	message := update.Message
	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		log.Printf("Error loading user %d: %v", message.From.ID, err)
		b.send(tgbotapi.NewMessage(message.Chat.ID, "Something went wrong, please try again later."))
		return
	}

	if message.IsCommand() {
		delete(b.userStates, user.TelegramID)
		delete(b.awaitingFileUpload, user.TelegramID)
		b.handleCommand(ctx, user, message)
		return
	}

	if b.awaitingFileUpload[user.TelegramID] && message.Document != nil {
		b.processImportDocument(ctx, user, message)
		return
	}

	if state, ok := b.userStates[user.TelegramID]; ok {
		b.handleStateInput(ctx, user, message, state)
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, "I don't understand. Use /help to see what I can do.")
	msg.ReplyMarkup = createKeyboard(b.mainMenuButtons())
	b.send(msg)
}

func (b *Bot) handleCommand(ctx context.Context, user *models.User, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStartCommand(user, message.Chat.ID)
	case "help":
		b.handleHelpCommand(message.Chat.ID)
	case "words":
		b.handleWordsCommand(ctx, user, message.Chat.ID)
	case "review":
		b.handleReviewCommand(ctx, user, message.Chat.ID)
	case "stats":
		b.handleStatsCommand(ctx, user, message.Chat.ID)
	case "settings":
		b.handleSettingsCommand(user, message.Chat.ID)
	case "notion":
		b.handleNotionCommand(user, message.Chat.ID)
	case "import":
		if user.IsAdmin {
			b.handleImportCommand(user, message.Chat.ID)
		} else {
			b.send(tgbotapi.NewMessage(message.Chat.ID, "This command is only available for administrators."))
		}
	default:
		msg := tgbotapi.NewMessage(message.Chat.ID, "Unknown command. Use /help to see what I can do.")
		msg.ReplyMarkup = createKeyboard(b.mainMenuButtons())
		b.send(msg)
	}
}

// send is a thin wrapper that logs delivery failures instead of dropping
// them silently
func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func (b *Bot) mainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "📚 Today's words", CallbackData: "words"},
			{Text: "🎯 Review", CallbackData: "review"},
		},
		{
			{Text: "📊 Statistics", CallbackData: "stats"},
			{Text: "⚙️ Settings", CallbackData: "settings"},
		},
	}
}
