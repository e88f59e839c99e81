package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/vocala/pkg/models"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// GetByTelegramID returns the user with the given Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	query := DB.Rebind("SELECT * FROM users WHERE telegram_id = ?")
	err := DB.GetContext(ctx, &user, query, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}
	return &user, nil
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if DB.DriverName() == "postgres" {
		query := `
			INSERT INTO users (
				telegram_id, username, first_name, last_name, level,
				daily_word_count, notification_hour, notifications_enabled,
				notion_token, notion_database_id, notion_sync_enabled, is_admin,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id
		`
		return DB.QueryRowContext(ctx, query,
			user.TelegramID, user.Username, user.FirstName, user.LastName, user.Level,
			user.DailyWordCount, user.NotificationHour, user.NotificationsEnabled,
			user.NotionToken, user.NotionDatabaseID, user.NotionSyncEnabled, user.IsAdmin,
			user.CreatedAt, user.UpdatedAt,
		).Scan(&user.ID)
	}

	query := `
		INSERT INTO users (
			telegram_id, username, first_name, last_name, level,
			daily_word_count, notification_hour, notifications_enabled,
			notion_token, notion_database_id, notion_sync_enabled, is_admin,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := DB.ExecContext(ctx, query,
		user.TelegramID, user.Username, user.FirstName, user.LastName, user.Level,
		user.DailyWordCount, user.NotificationHour, user.NotificationsEnabled,
		user.NotionToken, user.NotionDatabaseID, user.NotionSyncEnabled, user.IsAdmin,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %v", err)
	}
	user.ID = id
	return nil
}

// Update writes the user's mutable settings back to the database
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	query := DB.Rebind(`
		UPDATE users SET
			username = ?,
			first_name = ?,
			last_name = ?,
			level = ?,
			daily_word_count = ?,
			notification_hour = ?,
			notifications_enabled = ?,
			notion_token = ?,
			notion_database_id = ?,
			notion_sync_enabled = ?,
			is_admin = ?,
			updated_at = ?
		WHERE id = ?
	`)
	result, err := DB.ExecContext(ctx, query,
		user.Username, user.FirstName, user.LastName, user.Level,
		user.DailyWordCount, user.NotificationHour, user.NotificationsEnabled,
		user.NotionToken, user.NotionDatabaseID, user.NotionSyncEnabled, user.IsAdmin,
		user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %v", err)
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

// GetAll returns all registered users, newest first
func (r *UserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := DB.SelectContext(ctx, &users, "SELECT * FROM users ORDER BY created_at DESC"); err != nil {
		return nil, fmt.Errorf("failed to get users: %v", err)
	}
	return users, nil
}

// GetUsersForNotification returns users whose daily delivery falls on the
// given hour and who have notifications enabled
func (r *UserRepository) GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error) {
	var users []models.User
	query := DB.Rebind("SELECT * FROM users WHERE notification_hour = ? AND notifications_enabled = ?")
	if err := DB.SelectContext(ctx, &users, query, hour, true); err != nil {
		return nil, fmt.Errorf("failed to get users for notification: %v", err)
	}
	return users, nil
}
