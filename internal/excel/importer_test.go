package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/vocala/internal/database"
	"github.com/example/vocala/pkg/models"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}

	path := filepath.Join(t.TempDir(), "words.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportFromExcel(t *testing.T) {
	require.NoError(t, database.ConnectMemory())
	t.Cleanup(func() { database.Close() })

	path := writeWorkbook(t, [][]interface{}{
		{"Word", "Translation", "Part of Speech", "Definition", "Level", "Examples"},
		{"journey", "путешествие", "noun", "an act of travelling", "A2", "The journey took two hours.; Enjoy your journey!"},
		{"go (went, gone)", "идти", "verb", "", "A1", "I go to school."},
		{"", "пусто", "noun", "", "A1", ""},
		{"mystery", "", "noun", "", "A1", ""},
	})

	cfg := DefaultImportConfig()
	cfg.FilePath = path

	result, err := ImportWords(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	assert.Zero(t, result.Skipped)
	assert.Len(t, result.Errors, 2)

	repo := database.NewWordRepository()
	word, err := repo.GetByHeadwordAndLevel(context.Background(), "journey", models.LevelA2)
	require.NoError(t, err)
	assert.Equal(t, "путешествие", word.Translation)
	assert.Equal(t, "import", word.Provider)

	examples, err := database.NewExampleRepository().GetByWordID(context.Background(), word.ID)
	require.NoError(t, err)
	require.Len(t, examples, 2)
	assert.Equal(t, "The journey took two hours.", examples[0].Sentence)

	// Bracketed extras are stripped from the headword
	_, err = repo.GetByHeadwordAndLevel(context.Background(), "go", models.LevelA1)
	assert.NoError(t, err)
}

func TestImportSkipsCachedEntries(t *testing.T) {
	require.NoError(t, database.ConnectMemory())
	t.Cleanup(func() { database.Close() })

	path := writeWorkbook(t, [][]interface{}{
		{"Word", "Translation", "Part of Speech", "Definition", "Level"},
		{"journey", "путешествие", "noun", "", "A2"},
	})

	cfg := DefaultImportConfig()
	cfg.FilePath = path

	result, err := ImportWords(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)

	// Importing the same file again must not touch the cached entry
	result, err = ImportWords(context.Background(), cfg)
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Equal(t, 1, result.Skipped)
}

func TestImportFromCSV(t *testing.T) {
	require.NoError(t, database.ConnectMemory())
	t.Cleanup(func() { database.Close() })

	csv := "Word,Translation,Part of Speech,Definition,Level,Examples\n" +
		"harbor,гавань,noun,a sheltered port,B1,Ships rest in the harbor.\n" +
		"bright,яркий,adjective,,B1,\n"
	path := filepath.Join(t.TempDir(), "words.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	cfg := DefaultImportConfig()
	cfg.FilePath = path

	result, err := ImportWords(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	assert.Empty(t, result.Errors)
}

func TestImportRejectsUnknownLevel(t *testing.T) {
	require.NoError(t, database.ConnectMemory())
	t.Cleanup(func() { database.Close() })

	path := writeWorkbook(t, [][]interface{}{
		{"Word", "Translation", "Part of Speech", "Definition", "Level"},
		{"journey", "путешествие", "noun", "", "Z9"},
	})

	cfg := DefaultImportConfig()
	cfg.FilePath = path

	result, err := ImportWords(context.Background(), cfg)
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unknown level")
}
