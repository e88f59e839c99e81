package notion

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/example/vocala/internal/vocabulary"
	"github.com/example/vocala/pkg/models"
)

// Canonical column names used when creating a database. Existing databases
// may use different names; the schema is resolved from what is actually
// there.
const (
	colWord         = "Word"
	colTranslation  = "Translation"
	colPartOfSpeech = "Part of Speech"
	colDefinition   = "Definition"
	colExamples     = "Examples"
	colLevel        = "Level"
	colAdded        = "Added"
)

// schema maps canonical column roles onto the names of a concrete database
type schema struct {
	title   string
	columns map[string]string
}

// Syncer pushes word cards into per-user Notion databases. Schemas are
// resolved once per database and cached.
type Syncer struct {
	timeout time.Duration
	baseURL string

	mu      sync.Mutex
	schemas map[string]*schema
}

func NewSyncer(timeout time.Duration) *Syncer {
	return &Syncer{
		timeout: timeout,
		schemas: make(map[string]*schema),
	}
}

func (s *Syncer) clientFor(token string) *Client {
	c := NewClient(token, s.timeout)
	if s.baseURL != "" {
		c.baseURL = s.baseURL
	}
	return c
}

// resolveSchema reads the database and figures out which columns can
// receive which card fields. The title column is taken from its type, not
// its name, so renamed databases keep working. Optional columns are
// matched by name, case-insensitively.
func (s *Syncer) resolveSchema(ctx context.Context, client *Client, databaseID string) (*schema, error) {
	s.mu.Lock()
	cached, ok := s.schemas[databaseID]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	db, err := client.GetDatabase(ctx, databaseID)
	if err != nil {
		return nil, err
	}

	resolved := &schema{columns: make(map[string]string)}
	wanted := map[string]string{
		strings.ToLower(colTranslation):  colTranslation,
		strings.ToLower(colPartOfSpeech): colPartOfSpeech,
		strings.ToLower(colDefinition):   colDefinition,
		strings.ToLower(colExamples):     colExamples,
		strings.ToLower(colLevel):        colLevel,
		strings.ToLower(colAdded):        colAdded,
	}
	for name, column := range db.Properties {
		if column.Type == "title" {
			resolved.title = name
			continue
		}
		if canonical, ok := wanted[strings.ToLower(name)]; ok {
			resolved.columns[canonical] = name
		}
	}
	if resolved.title == "" {
		return nil, fmt.Errorf("notion: database %s has no title column", databaseID)
	}

	s.mu.Lock()
	s.schemas[databaseID] = resolved
	s.mu.Unlock()
	return resolved, nil
}

// CheckDatabase verifies that the user's database is reachable and can
// hold word pages. Used when the user links a database in settings.
func (s *Syncer) CheckDatabase(ctx context.Context, user *models.User) error {
	if user.NotionToken == "" || user.NotionDatabaseID == "" {
		return fmt.Errorf("notion: token and database are not configured")
	}
	client := s.clientFor(user.NotionToken)
	_, err := s.resolveSchema(ctx, client, user.NotionDatabaseID)
	return err
}

// SyncWords appends one page per card to the user's database. A card that
// fails is logged and skipped so one bad page does not lose the rest;
// returns how many pages were created.
func (s *Syncer) SyncWords(ctx context.Context, user *models.User, cards []vocabulary.WordCard) (int, error) {
	if !user.NotionSyncEnabled || user.NotionToken == "" || user.NotionDatabaseID == "" {
		return 0, nil
	}

	client := s.clientFor(user.NotionToken)
	resolved, err := s.resolveSchema(ctx, client, user.NotionDatabaseID)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, card := range cards {
		props := s.pageProperties(resolved, card)
		if err := client.CreatePage(ctx, user.NotionDatabaseID, props); err != nil {
			log.Printf("notion: failed to sync %q for user %d: %v", card.Word.Headword, user.ID, err)
			continue
		}
		synced++
	}
	if synced == 0 && len(cards) > 0 {
		return 0, fmt.Errorf("notion: no pages created for user %d", user.ID)
	}
	return synced, nil
}

func (s *Syncer) pageProperties(resolved *schema, card vocabulary.WordCard) map[string]PropertyValue {
	props := map[string]PropertyValue{
		resolved.title: Title(card.Word.Headword),
	}

	set := func(canonical string, value PropertyValue) {
		if name, ok := resolved.columns[canonical]; ok {
			props[name] = value
		}
	}
	set(colTranslation, RichText(card.Word.Translation))
	set(colPartOfSpeech, Select(card.Word.PartOfSpeech))
	set(colLevel, Select(string(card.Word.Level)))
	set(colAdded, Date(time.Now().UTC()))
	if card.Word.Definition != "" {
		set(colDefinition, RichText(card.Word.Definition))
	}
	if len(card.Examples) > 0 {
		lines := make([]string, 0, len(card.Examples))
		for _, ex := range card.Examples {
			lines = append(lines, ex.Sentence)
		}
		set(colExamples, RichText(strings.Join(lines, "\n")))
	}
	return props
}

// EnsureDatabase creates a vocabulary database with the canonical columns
// under the given page and returns it. The caller stores the new ID in the
// user's settings.
func (s *Syncer) EnsureDatabase(ctx context.Context, user *models.User, parentPageID string) (*Database, error) {
	if user.NotionToken == "" {
		return nil, fmt.Errorf("notion: token is not configured")
	}
	client := s.clientFor(user.NotionToken)

	properties := map[string]ColumnSpec{
		colWord:         {Title: &struct{}{}},
		colTranslation:  {RichText: &struct{}{}},
		colPartOfSpeech: {Select: &struct{}{}},
		colDefinition:   {RichText: &struct{}{}},
		colExamples:     {RichText: &struct{}{}},
		colLevel:        {Select: &struct{}{}},
		colAdded:        {Date: &struct{}{}},
	}
	return client.CreateDatabase(ctx, parentPageID, "Vocabulary", properties)
}
