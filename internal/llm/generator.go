package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/vocala/pkg/models"
)

// Generator wraps a Provider with prompt construction, bounded retry and
// response validation
type Generator struct {
	provider   Provider
	maxRetries int
	// sleep is swapped for a no-op in tests
	sleep func(time.Duration)
}

// NewGenerator creates a generator with the given retry budget
func NewGenerator(provider Provider, maxRetries int) *Generator {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Generator{
		provider:   provider,
		maxRetries: maxRetries,
		sleep:      time.Sleep,
	}
}

// GenerateWords asks the provider for count vocabulary records at the given
// level, avoiding the excluded headwords. Invalid records are dropped, so
// the result may be shorter than count; the caller owns the shortfall.
// When every attempt fails the error wraps ErrUnavailable.
func (g *Generator) GenerateWords(ctx context.Context, level models.Level, count int, excludeHeadwords []string) ([]GeneratedWord, error) {
	prompt := buildVocabularyPrompt(level, count, excludeHeadwords)

	var lastErr error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff between attempts
			g.sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}

		response, err := g.provider.Complete(ctx, prompt)
		if err != nil {
			lastErr = err
			log.Printf("llm: attempt %d/%d failed: %v", attempt+1, g.maxRetries, err)
			continue
		}

		words, err := parseVocabularyResponse(response)
		if err != nil {
			// Unusable response body, worth another attempt
			lastErr = err
			log.Printf("llm: attempt %d/%d returned unparseable response: %v", attempt+1, g.maxRetries, err)
			continue
		}

		valid := make([]GeneratedWord, 0, len(words))
		for i := range words {
			words[i].Normalize()
			if err := words[i].Validate(); err != nil {
				log.Printf("llm: discarding generated entry: %v", err)
				continue
			}
			valid = append(valid, words[i])
		}
		return valid, nil
	}

	return nil, fmt.Errorf("%w: %d attempts exhausted: %v", ErrUnavailable, g.maxRetries, lastErr)
}

// ProviderName returns the underlying provider's name
func (g *Generator) ProviderName() string { return g.provider.Name() }

// ModelName returns the underlying provider's model name
func (g *Generator) ModelName() string { return g.provider.Model() }

// buildVocabularyPrompt asks for a strict JSON array so the response can be
// decoded without provider-specific handling
func buildVocabularyPrompt(level models.Level, count int, excludeHeadwords []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert English vocabulary teacher. Generate %d English vocabulary words from the Oxford 3000 wordlist at level %s.\n\n", count, level)
	b.WriteString("Requirements:\n")
	b.WriteString("1. Provide a Russian translation for each word\n")
	b.WriteString("2. Include the part of speech (noun, verb, adjective, adverb, preposition, conjunction, pronoun or interjection)\n")
	b.WriteString("3. Include a short English definition\n")
	b.WriteString("4. Include 2-3 unique example sentences per word, each with a Russian translation\n")
	b.WriteString("5. Focus on practical, commonly used vocabulary\n")

	if len(excludeHeadwords) > 0 {
		fmt.Fprintf(&b, "\nDo NOT use any of these words: %s\n", strings.Join(excludeHeadwords, ", "))
	}

	b.WriteString(`
Respond with ONLY a JSON array, no surrounding text. Each element has this structure:
{
  "english_word": "journey",
  "translation": "путешествие",
  "part_of_speech": "noun",
  "definition": "an act of travelling from one place to another",
  "examples": [
    {"sentence": "The journey took three hours.", "translation": "Путешествие заняло три часа."}
  ]
}
`)
	fmt.Fprintf(&b, "\nGenerate exactly %d words.", count)
	return b.String()
}

// parseVocabularyResponse decodes the model output. Models occasionally wrap
// the JSON in prose or a code fence, so fall back to extracting the
// outermost array.
func parseVocabularyResponse(response string) ([]GeneratedWord, error) {
	var words []GeneratedWord
	if err := json.Unmarshal([]byte(response), &words); err == nil {
		return words, nil
	}

	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("response contains no JSON array")
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &words); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}
	return words, nil
}
