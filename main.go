package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/vocala/internal/bot"
	"github.com/example/vocala/internal/config"
	"github.com/example/vocala/internal/database"
	"github.com/example/vocala/internal/llm"
	"github.com/example/vocala/internal/notion"
	"github.com/example/vocala/internal/scheduler"
	"github.com/example/vocala/internal/srs"
	"github.com/example/vocala/internal/vocabulary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	provider, err := buildProvider(cfg)
	if err != nil {
		log.Fatalf("Failed to configure LLM provider: %v", err)
	}
	log.Printf("Using %s (%s) for word generation", provider.Name(), provider.Model())

	generator := llm.NewGenerator(provider, cfg.LLMMaxRetries)
	service := vocabulary.NewService(database.NewWordRepository(), database.NewExampleRepository(), generator, cfg.MaxWordCount)
	reviews := srs.NewScheduler(database.NewProgressRepository(), cfg.SRSIntervals, cfg.SRSLapsePolicy)
	planner := vocabulary.NewPlanner(service, reviews)
	syncer := notion.NewSyncer(cfg.NotionRequestTimeout)

	b, err := bot.New(cfg, service, planner, reviews, syncer)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries := scheduler.New(b)
	deliveries.Start()
	defer deliveries.Stop()

	go func() {
		if err := b.Start(ctx); err != nil {
			log.Printf("Bot error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Bot started. Press Ctrl+C to stop.")
	sig := <-sigChan
	log.Printf("Received signal: %v", sig)
	cancel()

	select {
	case <-b.Done():
	case <-time.After(5 * time.Second):
		log.Println("Shutdown timed out")
	}
	log.Println("Bot stopped successfully")
}

func buildProvider(cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLMProvider {
	case "google":
		if cfg.GoogleAIAPIKey == "" {
			return nil, fmt.Errorf("GOOGLE_AI_API_KEY environment variable is not set")
		}
		return llm.NewGemini(cfg.GoogleAIAPIKey, cfg.GoogleAIModel, cfg.LLMRequestTimeout), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.LLMRequestTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER: %q", cfg.LLMProvider)
	}
}
