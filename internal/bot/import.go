package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/vocala/internal/excel"
	"github.com/example/vocala/pkg/models"
)

func (b *Bot) handleImportCommand(user *models.User, chatID int64) {
	b.awaitingFileUpload[user.TelegramID] = true
	b.send(tgbotapi.NewMessage(chatID, "Send me an .xlsx or .csv file with columns: word, translation, part of speech, definition, level, examples (separated by \";\"). The first row is treated as a header."))
}

// processImportDocument downloads an uploaded spreadsheet and imports it
// into the word cache
func (b *Bot) processImportDocument(ctx context.Context, user *models.User, message *tgbotapi.Message) {
	delete(b.awaitingFileUpload, user.TelegramID)
	chatID := message.Chat.ID

	doc := message.Document
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	if ext != ".xlsx" && ext != ".csv" {
		b.send(tgbotapi.NewMessage(chatID, "Unsupported file type. Please send an .xlsx or .csv file."))
		return
	}

	path, err := b.downloadDocument(doc, ext)
	if err != nil {
		log.Printf("Error downloading import file from user %d: %v", user.ID, err)
		b.send(tgbotapi.NewMessage(chatID, "❌ Could not download the file. Please try again."))
		return
	}
	defer os.Remove(path)

	cfg := excel.DefaultImportConfig()
	cfg.FilePath = path
	cfg.DefaultLevel = user.Level

	result, err := excel.ImportWords(ctx, cfg)
	if err != nil {
		log.Printf("Import failed for user %d: %v", user.ID, err)
		b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("❌ Import failed: %v", err)))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ Import finished:\n- Processed: %d\n- Added: %d\n- Already cached: %d\n",
		result.TotalProcessed, result.Created, result.Skipped))
	if len(result.Errors) > 0 {
		sb.WriteString(fmt.Sprintf("\n❌ Errors (%d):\n", len(result.Errors)))
		shown := result.Errors
		if len(shown) > 10 {
			shown = shown[:10]
		}
		for _, msg := range shown {
			sb.WriteString("- " + msg + "\n")
		}
		if len(result.Errors) > 10 {
			sb.WriteString(fmt.Sprintf("...and %d more\n", len(result.Errors)-10))
		}
	}
	b.send(tgbotapi.NewMessage(chatID, sb.String()))
}

func (b *Bot) downloadDocument(doc *tgbotapi.Document, ext string) (string, error) {
	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file URL: %v", err)
	}

	resp, err := http.Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to download file: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "vocala-import-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %v", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to save file: %v", err)
	}
	return tmp.Name(), nil
}
