package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/vocala/internal/config"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database and initializes the schema
func Connect(cfg *config.Config) error {
	var db *sqlx.DB
	var err error

	switch cfg.DBType {
	case "postgres":
		db, err = sqlx.Connect("postgres", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %v", err)
		}
	case "sqlite":
		dir := filepath.Dir(cfg.SQLitePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %v", err)
		}
		db, err = sqlx.Connect("sqlite3", cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %v", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %v", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	default:
		return fmt.Errorf("unsupported DB_TYPE: %q", cfg.DBType)
	}

	DB = db
	return initializeSchema()
}

// ConnectMemory opens an in-memory SQLite database, used by tests
func ConnectMemory() error {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	DB = db
	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if DB.DriverName() == "postgres" {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS users (
				id %s,
				telegram_id BIGINT UNIQUE NOT NULL,
				username TEXT NOT NULL DEFAULT '',
				first_name TEXT NOT NULL DEFAULT '',
				last_name TEXT NOT NULL DEFAULT '',
				level TEXT NOT NULL DEFAULT 'B1',
				daily_word_count INTEGER NOT NULL DEFAULT 5,
				notification_hour INTEGER NOT NULL DEFAULT 9,
				notifications_enabled BOOLEAN NOT NULL DEFAULT true,
				notion_token TEXT NOT NULL DEFAULT '',
				notion_database_id TEXT NOT NULL DEFAULT '',
				notion_sync_enabled BOOLEAN NOT NULL DEFAULT false,
				is_admin BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`, serial),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS words (
				id %s,
				headword TEXT NOT NULL,
				translation TEXT NOT NULL,
				part_of_speech TEXT NOT NULL,
				definition TEXT NOT NULL DEFAULT '',
				level TEXT NOT NULL,
				provider TEXT NOT NULL DEFAULT '',
				model TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(headword, level)
			)`, serial),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS examples (
				id %s,
				word_id BIGINT NOT NULL REFERENCES words(id) ON DELETE CASCADE,
				sentence TEXT NOT NULL,
				translation TEXT NOT NULL DEFAULT '',
				position INTEGER NOT NULL DEFAULT 0
			)`, serial),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS user_progress (
				id %s,
				user_id BIGINT NOT NULL REFERENCES users(id),
				word_id BIGINT NOT NULL REFERENCES words(id),
				interval_index INTEGER NOT NULL DEFAULT 0,
				next_due_at TIMESTAMP NOT NULL,
				last_reviewed_at TIMESTAMP NOT NULL,
				total_reviews INTEGER NOT NULL DEFAULT 0,
				correct_reviews INTEGER NOT NULL DEFAULT 0,
				mastered BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE(user_id, word_id)
			)`, serial),
		`CREATE INDEX IF NOT EXISTS idx_progress_due ON user_progress(user_id, next_due_at)`,
		`CREATE INDEX IF NOT EXISTS idx_words_level ON words(level)`,
		`CREATE INDEX IF NOT EXISTS idx_examples_word ON examples(word_id)`,
	}

	for _, stmt := range statements {
		if _, err := DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %v", err)
		}
	}
	return nil
}
