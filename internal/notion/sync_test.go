package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocala/internal/vocabulary"
	"github.com/example/vocala/pkg/models"
)

func testCard(headword string) vocabulary.WordCard {
	return vocabulary.WordCard{
		Word: models.Word{
			ID:           1,
			Headword:     headword,
			Translation:  "перевод",
			PartOfSpeech: "noun",
			Definition:   "a test entry",
			Level:        models.LevelB1,
		},
		Examples: []models.Example{
			{Sentence: "First sentence.", Translation: "Первое предложение."},
			{Sentence: "Second sentence.", Translation: "Второе предложение."},
		},
	}
}

func testUser() *models.User {
	return &models.User{
		ID:                7,
		NotionToken:       "secret-token",
		NotionDatabaseID:  "db-123",
		NotionSyncEnabled: true,
	}
}

func schemaResponse(titleName string) map[string]interface{} {
	return map[string]interface{}{
		"id": "db-123",
		"properties": map[string]interface{}{
			titleName:     map[string]string{"type": "title"},
			"Translation": map[string]string{"type": "rich_text"},
			"Level":       map[string]string{"type": "select"},
			"Examples":    map[string]string{"type": "rich_text"},
		},
	}
}

func TestSyncWordsMapsResolvedColumns(t *testing.T) {
	var pages []map[string]json.RawMessage
	databaseFetches := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, apiVersion, r.Header.Get("Notion-Version"))

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/databases/db-123":
			databaseFetches++
			// The user renamed the title column
			json.NewEncoder(w).Encode(schemaResponse("English Word"))
		case r.Method == http.MethodPost && r.URL.Path == "/pages":
			var req struct {
				Parent     map[string]string          `json:"parent"`
				Properties map[string]json.RawMessage `json:"properties"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "db-123", req.Parent["database_id"])
			pages = append(pages, req.Properties)
			json.NewEncoder(w).Encode(map[string]string{"id": "page-1"})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	syncer := NewSyncer(5 * time.Second)
	syncer.baseURL = server.URL

	synced, err := syncer.SyncWords(context.Background(), testUser(), []vocabulary.WordCard{
		testCard("journey"), testCard("harbor"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	assert.Equal(t, 1, databaseFetches, "schema is resolved once and cached")

	require.Len(t, pages, 2)
	props := pages[0]
	assert.Contains(t, props, "English Word")
	assert.Contains(t, props, "Translation")
	assert.Contains(t, props, "Level")
	assert.Contains(t, props, "Examples")
	// Columns the database does not have are left out
	assert.NotContains(t, props, "Definition")
	assert.NotContains(t, props, "Part of Speech")
}

func TestSyncWordsSkipsFailedPages(t *testing.T) {
	pageCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(schemaResponse("Word"))
		case r.Method == http.MethodPost:
			pageCalls++
			if pageCalls == 1 {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{
					"code": "validation_error", "message": "bad select option",
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "page-2"})
		}
	}))
	defer server.Close()

	syncer := NewSyncer(5 * time.Second)
	syncer.baseURL = server.URL

	synced, err := syncer.SyncWords(context.Background(), testUser(), []vocabulary.WordCard{
		testCard("journey"), testCard("harbor"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, synced)
	assert.Equal(t, 2, pageCalls)
}

func TestSyncWordsDisabled(t *testing.T) {
	syncer := NewSyncer(5 * time.Second)

	user := testUser()
	user.NotionSyncEnabled = false

	synced, err := syncer.SyncWords(context.Background(), user, []vocabulary.WordCard{testCard("journey")})
	require.NoError(t, err)
	assert.Zero(t, synced)
}

func TestCheckDatabaseUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{
			"code": "unauthorized", "message": "API token is invalid",
		})
	}))
	defer server.Close()

	syncer := NewSyncer(5 * time.Second)
	syncer.baseURL = server.URL

	err := syncer.CheckDatabase(context.Background(), testUser())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "unauthorized", apiErr.Code)
}

func TestCheckDatabaseRequiresTitleColumn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "db-123",
			"properties": map[string]interface{}{
				"Translation": map[string]string{"type": "rich_text"},
			},
		})
	}))
	defer server.Close()

	syncer := NewSyncer(5 * time.Second)
	syncer.baseURL = server.URL

	err := syncer.CheckDatabase(context.Background(), testUser())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title column")
}

func TestEnsureDatabaseCreatesCanonicalSchema(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/databases", r.URL.Path)

		var req struct {
			Parent     map[string]string          `json:"parent"`
			Properties map[string]json.RawMessage `json:"properties"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "page-9", req.Parent["page_id"])
		assert.Contains(t, req.Properties, "Word")
		assert.Contains(t, req.Properties, "Part of Speech")
		assert.Contains(t, req.Properties, "Added")

		json.NewEncoder(w).Encode(map[string]interface{}{"id": "db-new"})
	}))
	defer server.Close()

	syncer := NewSyncer(5 * time.Second)
	syncer.baseURL = server.URL

	db, err := syncer.EnsureDatabase(context.Background(), testUser(), "page-9")
	require.NoError(t, err)
	assert.Equal(t, "db-new", db.ID)
}
