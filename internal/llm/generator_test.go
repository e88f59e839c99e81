package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocala/pkg/models"
)

// fakeProvider returns scripted responses, then errors
type fakeProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-1" }

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", fmt.Errorf("%w: no scripted response", ErrUnavailable)
}

func newTestGenerator(p Provider, retries int) *Generator {
	g := NewGenerator(p, retries)
	g.sleep = func(time.Duration) {}
	return g
}

const validResponse = `[
	{
		"english_word": "Journey",
		"translation": "путешествие",
		"part_of_speech": "Noun",
		"definition": "an act of travelling",
		"examples": [{"sentence": "The journey took three hours.", "translation": "Путешествие заняло три часа."}]
	}
]`

func TestGenerateWords(t *testing.T) {
	p := &fakeProvider{responses: []string{validResponse}}
	g := newTestGenerator(p, 3)

	words, err := g.GenerateWords(context.Background(), models.LevelB1, 1, nil)
	require.NoError(t, err)
	require.Len(t, words, 1)

	// Identifying fields are normalized on the way in
	assert.Equal(t, "journey", words[0].Headword)
	assert.Equal(t, "noun", words[0].PartOfSpeech)
	assert.Equal(t, 1, p.calls)
}

func TestGenerateWordsRetriesThenSucceeds(t *testing.T) {
	p := &fakeProvider{
		errs:      []error{fmt.Errorf("%w: connection refused", ErrUnavailable), nil},
		responses: []string{"", validResponse},
	}
	g := newTestGenerator(p, 3)

	words, err := g.GenerateWords(context.Background(), models.LevelB1, 1, nil)
	require.NoError(t, err)
	assert.Len(t, words, 1)
	assert.Equal(t, 2, p.calls)
}

func TestGenerateWordsExhaustsRetries(t *testing.T) {
	boom := fmt.Errorf("%w: quota exceeded", ErrUnavailable)
	p := &fakeProvider{errs: []error{boom, boom, boom}}
	g := newTestGenerator(p, 3)

	_, err := g.GenerateWords(context.Background(), models.LevelA2, 5, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, p.calls)
}

func TestGenerateWordsDropsInvalidEntries(t *testing.T) {
	response := `[
		{"english_word": "journey", "translation": "путешествие", "part_of_speech": "noun",
		 "definition": "d", "examples": [{"sentence": "s", "translation": "t"}]},
		{"english_word": "", "translation": "x", "part_of_speech": "noun",
		 "definition": "d", "examples": [{"sentence": "s", "translation": "t"}]},
		{"english_word": "run", "translation": "бежать", "part_of_speech": "action word",
		 "definition": "d", "examples": [{"sentence": "s", "translation": "t"}]}
	]`
	p := &fakeProvider{responses: []string{response}}
	g := newTestGenerator(p, 1)

	words, err := g.GenerateWords(context.Background(), models.LevelA1, 3, nil)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "journey", words[0].Headword)
}

func TestGenerateWordsRetriesOnUnparseableResponse(t *testing.T) {
	p := &fakeProvider{responses: []string{"I cannot do that.", validResponse}}
	g := newTestGenerator(p, 2)

	words, err := g.GenerateWords(context.Background(), models.LevelB2, 1, nil)
	require.NoError(t, err)
	assert.Len(t, words, 1)
	assert.Equal(t, 2, p.calls)
}

func TestParseVocabularyResponseExtractsWrappedArray(t *testing.T) {
	wrapped := "Here are your words:\n```json\n" + validResponse + "\n```\nEnjoy!"
	words, err := parseVocabularyResponse(wrapped)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "Journey", words[0].Headword)
}

func TestParseVocabularyResponseRejectsProse(t *testing.T) {
	_, err := parseVocabularyResponse("Sorry, I can't help with that.")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := GeneratedWord{
		Headword:     "journey",
		Translation:  "путешествие",
		PartOfSpeech: "noun",
		Definition:   "an act of travelling",
		Examples:     []GeneratedExample{{Sentence: "s", Translation: "t"}},
	}
	assert.NoError(t, base.Validate())

	noExamples := base
	noExamples.Examples = nil
	var schemaErr *SchemaError
	err := noExamples.Validate()
	require.Error(t, err)
	assert.True(t, errors.As(err, &schemaErr))

	badPOS := base
	badPOS.PartOfSpeech = "particle"
	assert.Error(t, badPOS.Validate())

	emptySentence := base
	emptySentence.Examples = []GeneratedExample{{Sentence: "  "}}
	assert.Error(t, emptySentence.Validate())
}

func TestBuildVocabularyPromptExcludes(t *testing.T) {
	prompt := buildVocabularyPrompt(models.LevelA2, 3, []string{"journey", "river"})
	assert.Contains(t, prompt, "journey, river")
	assert.Contains(t, prompt, "A2")
	assert.Contains(t, prompt, "Generate exactly 3 words.")
}
