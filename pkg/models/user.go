package models

import "time"

// User represents a Telegram user and their learning settings. Settings are
// always passed explicitly into the scheduler and vocabulary calls, the bot
// never keeps them as ambient state.
type User struct {
	ID                   int64     `json:"id" db:"id"`
	TelegramID           int64     `json:"telegram_id" db:"telegram_id"`
	Username             string    `json:"username" db:"username"`
	FirstName            string    `json:"first_name" db:"first_name"`
	LastName             string    `json:"last_name" db:"last_name"`
	Level                Level     `json:"level" db:"level"`
	DailyWordCount       int       `json:"daily_word_count" db:"daily_word_count"`
	NotificationHour     int       `json:"notification_hour" db:"notification_hour"` // 0-23, local to the bot's timezone
	NotificationsEnabled bool      `json:"notifications_enabled" db:"notifications_enabled"`
	NotionToken          string    `json:"-" db:"notion_token"`
	NotionDatabaseID     string    `json:"notion_database_id" db:"notion_database_id"`
	NotionSyncEnabled    bool      `json:"notion_sync_enabled" db:"notion_sync_enabled"`
	IsAdmin              bool      `json:"is_admin" db:"is_admin"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}
