// Package excel imports curated vocabulary from Excel or CSV files into
// the word cache. Used by admins to pre-seed levels so the first users do
// not have to wait for generation.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/vocala/internal/database"
	"github.com/example/vocala/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath           string // Path to the Excel or CSV file
	HeadwordColumn     string // Column with the English word
	TranslationColumn  string // Column with the translation
	PartOfSpeechColumn string // Column with the part of speech
	DefinitionColumn   string // Column with the definition
	LevelColumn        string // Column with the CEFR level
	ExamplesColumn     string // Column with example sentences, separated by ";"
	SheetName          string // Name of the sheet to import
	StartRow           int    // The row to start importing from (1-based index)
	DefaultLevel       models.Level
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		HeadwordColumn:     "A",
		TranslationColumn:  "B",
		PartOfSpeechColumn: "C",
		DefinitionColumn:   "D",
		LevelColumn:        "E",
		ExamplesColumn:     "F",
		SheetName:          "Sheet1",
		StartRow:           2, // By default, start from the second row (skip header)
		DefaultLevel:       models.LevelB1,
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// ImportWords imports words from an Excel or CSV file. Rows that already
// exist in the cache are counted as skipped; cached entries are never
// overwritten.
func ImportWords(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	if ext == ".csv" {
		return importFromCSV(ctx, config)
	}
	return importFromExcel(ctx, config)
}

func importFromExcel(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	repo := database.NewWordRepository()

	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++

		if err := processRow(ctx, repo, row, config, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}
	return result, nil
}

func importFromCSV(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	result := &ImportResult{Errors: make([]string, 0)}
	repo := database.NewWordRepository()

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}

		rowNum++
		if rowNum < config.StartRow {
			continue
		}
		result.TotalProcessed++

		if err := processRow(ctx, repo, row, config, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}
	return result, nil
}

// processRow validates one row and inserts it into the cache
func processRow(ctx context.Context, repo *database.WordRepository, row []string, config ImportConfig, result *ImportResult) error {
	cell := func(column string) string {
		if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	headword := cleanHeadword(cell(config.HeadwordColumn))
	translation := cell(config.TranslationColumn)
	partOfSpeech := strings.ToLower(cell(config.PartOfSpeechColumn))
	definition := cell(config.DefinitionColumn)

	if headword == "" {
		return fmt.Errorf("word cannot be empty")
	}
	if translation == "" {
		return fmt.Errorf("translation cannot be empty")
	}
	if partOfSpeech == "" {
		partOfSpeech = "noun"
	}
	if !models.ValidPartOfSpeech(partOfSpeech) {
		return fmt.Errorf("unknown part of speech %q", partOfSpeech)
	}

	level := config.DefaultLevel
	if raw := cell(config.LevelColumn); raw != "" {
		level = models.Level(strings.ToUpper(raw))
		if !level.Valid() {
			return fmt.Errorf("unknown level %q", raw)
		}
	}

	var examples []models.Example
	for _, sentence := range strings.Split(cell(config.ExamplesColumn), ";") {
		sentence = strings.TrimSpace(sentence)
		if sentence != "" {
			examples = append(examples, models.Example{Sentence: sentence})
		}
	}

	headword = strings.ToLower(headword)
	if _, err := repo.GetByHeadwordAndLevel(ctx, headword, level); err == nil {
		// Cached entries are immutable, imports never overwrite them
		result.Skipped++
		return nil
	}

	word := models.Word{
		Headword:     headword,
		Translation:  translation,
		PartOfSpeech: partOfSpeech,
		Definition:   definition,
		Level:        level,
		Provider:     "import",
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := repo.Insert(ctx, &word, examples); err != nil {
		return fmt.Errorf("failed to store word: %v", err)
	}
	result.Created++
	return nil
}

// cleanHeadword drops bracketed extras like "(went, gone)"
func cleanHeadword(word string) string {
	if idx := strings.Index(word, "("); idx > 0 {
		return strings.TrimSpace(word[:idx])
	}
	return strings.TrimSpace(word)
}

// columnToIndex converts an Excel column letter to a zero-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	if column == "" {
		return -1
	}
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
