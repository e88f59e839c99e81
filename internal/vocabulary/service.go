// Package vocabulary serves word cards from the shared cache and tops it
// up from the language model when a level runs dry.
package vocabulary

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/vocala/internal/database"
	"github.com/example/vocala/internal/llm"
	"github.com/example/vocala/pkg/models"
)

// ErrContentUnavailable is returned when a request cannot be served in
// full: the cache is short and the generator could not make up the
// difference. Callers get all requested cards or this error, never a
// partial batch.
var ErrContentUnavailable = errors.New("vocabulary: content unavailable")

// WordCard is a cached word together with its example sentences
type WordCard struct {
	Word     models.Word
	Examples []models.Example
}

type wordGenerator interface {
	GenerateWords(ctx context.Context, level models.Level, count int, excludeHeadwords []string) ([]llm.GeneratedWord, error)
	ProviderName() string
	ModelName() string
}

// Service implements the cache-or-generate policy over the word cache
type Service struct {
	words     *database.WordRepository
	examples  *database.ExampleRepository
	generator wordGenerator
	maxCount  int
}

func NewService(words *database.WordRepository, examples *database.ExampleRepository, generator wordGenerator, maxCount int) *Service {
	return &Service{
		words:     words,
		examples:  examples,
		generator: generator,
		maxCount:  maxCount,
	}
}

// GetDailyWords returns exactly count cards for the level, skipping word
// IDs in excludeIDs. Cached words are served first; the shortfall is
// generated, persisted and returned. Generated words that lose an insert
// race are replaced by the cached winner. Count is clamped to the
// configured maximum batch size.
func (s *Service) GetDailyWords(ctx context.Context, level models.Level, count int, excludeIDs []int64) ([]WordCard, error) {
	if count <= 0 {
		return nil, nil
	}
	if s.maxCount > 0 && count > s.maxCount {
		count = s.maxCount
	}

	cached, err := s.words.FindByLevel(ctx, level, excludeIDs, count)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: failed to query cache: %v", err)
	}

	cards, err := s.attachExamples(ctx, cached)
	if err != nil {
		return nil, err
	}
	if len(cards) >= count {
		return cards[:count], nil
	}

	taken := make(map[int64]bool, len(excludeIDs)+len(cards))
	for _, id := range excludeIDs {
		taken[id] = true
	}
	for _, c := range cards {
		taken[c.Word.ID] = true
	}

	generated, err := s.generate(ctx, level, count-len(cards), taken)
	if err != nil {
		return nil, err
	}
	cards = append(cards, generated...)

	if len(cards) < count {
		return nil, fmt.Errorf("%w: level %s, wanted %d words, have %d", ErrContentUnavailable, level, count, len(cards))
	}
	return cards[:count], nil
}

// generate asks the model for `need` new words and persists them. The
// prompt excludes every headword already cached for the level so the model
// does not waste the batch on duplicates. Words whose ID lands in taken
// count toward the shortfall rather than the batch, so a model that
// ignores the exclusion list can never produce a duplicate card.
func (s *Service) generate(ctx context.Context, level models.Level, need int, taken map[int64]bool) ([]WordCard, error) {
	known, err := s.words.Headwords(ctx, level)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: failed to list headwords: %v", err)
	}

	generated, err := s.generator.GenerateWords(ctx, level, need, known)
	if errors.Is(err, llm.ErrUnavailable) {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}
	if err != nil {
		return nil, fmt.Errorf("vocabulary: generation failed: %v", err)
	}

	var cards []WordCard
	for _, gw := range generated {
		if len(cards) >= need {
			break
		}
		card, err := s.persist(ctx, level, gw)
		if err != nil {
			log.Printf("vocabulary: skipping %q: %v", gw.Headword, err)
			continue
		}
		if taken[card.Word.ID] {
			// Already in this batch, or lost the insert race to a word
			// this caller already has
			continue
		}
		taken[card.Word.ID] = true
		cards = append(cards, *card)
	}
	return cards, nil
}

func (s *Service) persist(ctx context.Context, level models.Level, gw llm.GeneratedWord) (*WordCard, error) {
	word := models.Word{
		Headword:     strings.ToLower(gw.Headword),
		Translation:  gw.Translation,
		PartOfSpeech: gw.PartOfSpeech,
		Definition:   gw.Definition,
		Level:        level,
		Provider:     s.generator.ProviderName(),
		Model:        s.generator.ModelName(),
		CreatedAt:    time.Now().UTC(),
	}

	examples := make([]models.Example, 0, len(gw.Examples))
	for _, ex := range gw.Examples {
		examples = append(examples, models.Example{
			Sentence:    ex.Sentence,
			Translation: ex.Translation,
		})
	}

	stored, err := s.words.Insert(ctx, &word, examples)
	if err != nil {
		return nil, err
	}

	storedExamples, err := s.examples.GetByWordID(ctx, stored.ID)
	if err != nil {
		return nil, err
	}
	return &WordCard{Word: *stored, Examples: storedExamples}, nil
}

// Cards loads full cards for already known word IDs, preserving order
func (s *Service) Cards(ctx context.Context, wordIDs []int64) ([]WordCard, error) {
	words, err := s.words.GetByIDs(ctx, wordIDs)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: failed to load words: %v", err)
	}
	byID := make(map[int64]models.Word, len(words))
	for _, w := range words {
		byID[w.ID] = w
	}

	ordered := make([]models.Word, 0, len(wordIDs))
	for _, id := range wordIDs {
		if w, ok := byID[id]; ok {
			ordered = append(ordered, w)
		}
	}
	return s.attachExamples(ctx, ordered)
}

func (s *Service) attachExamples(ctx context.Context, words []models.Word) ([]WordCard, error) {
	if len(words) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(words))
	for _, w := range words {
		ids = append(ids, w.ID)
	}
	byWord, err := s.examples.GetByWordIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: failed to load examples: %v", err)
	}

	cards := make([]WordCard, 0, len(words))
	for _, w := range words {
		cards = append(cards, WordCard{Word: w, Examples: byWord[w.ID]})
	}
	return cards, nil
}
