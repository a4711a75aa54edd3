package app

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/slack-go/slack"

	"moodtrack/internal/cache"
	"moodtrack/internal/classifier"
	"moodtrack/internal/config"
	"moodtrack/internal/cryptox"
	"moodtrack/internal/digest"
	"moodtrack/internal/emotion"
	"moodtrack/internal/httpx"
	"moodtrack/internal/storage/sqlite"
)

// App holds the wired pipeline. Everything is constructed once here and
// passed by reference; there are no ambient singletons.
type App struct {
	Config  config.Config
	Service *emotion.Service
	Store   *sqlite.EventStore

	db *sql.DB
	kv cache.KV
}

func New(cfg config.Config) (*App, error) {
	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. Provider=%s DB=%s CacheTTL=%s DailyBudget=%d Timezone=%s ExternalHTTPTimeout=%s",
		providerName(cfg), cfg.DBPath, cfg.CacheTTL(), cfg.LLMDailyBudget, cfg.Timezone, appliedHTTPTimeout,
	)

	codec, err := cryptox.NewFromSecret(cfg.EncryptionSecret, cfg.EncryptionSalt)
	if err != nil {
		return nil, fmt.Errorf("initializing field encryption: %w", err)
	}

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	store := sqlite.NewEventStore(db, codec)
	log.Printf("Database initialized at %s", cfg.DBPath)

	var kv cache.KV
	if cfg.CacheDir != "" {
		badgerKV, err := cache.OpenBadger(cfg.CacheDir)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("opening cache at %s: %w", cfg.CacheDir, err)
		}
		kv = badgerKV
		log.Printf("Result cache at %s", cfg.CacheDir)
	} else {
		kv = cache.NewMemoryKV()
		log.Println("Result cache in memory (cache_dir not set)")
	}

	gateway := classifier.NewGateway(selectProvider(cfg), classifier.Options{
		MaxAttempts: cfg.LLMMaxAttempts,
		Budget:      cache.NewBudget(kv, cfg.LLMDailyBudget),
	})

	service := emotion.NewService(gateway, cache.NewResultCache(kv, cfg.CacheTTL()), store)

	return &App{Config: cfg, Service: service, Store: store, db: db, kv: kv}, nil
}

func (a *App) Close() {
	if err := a.kv.Close(); err != nil {
		log.Printf("cache close error: %v", err)
	}
	if err := a.db.Close(); err != nil {
		log.Printf("database close error: %v", err)
	}
}

func Main() {
	cfg := config.LoadConfig()

	a, err := New(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	if cfg.DigestConfigured() {
		api := slack.New(cfg.SlackBotToken)
		digest.Start(cfg, a.Store, api)
	} else {
		log.Println("Monthly digest disabled (digest_schedule, digest_channel_id or slack_bot_token not set)")
	}

	log.Println("Emotion analysis service ready")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("Shutting down")
}

func selectProvider(cfg config.Config) classifier.SelectProvider {
	switch cfg.LLMProvider {
	case "groq":
		return classifier.PreferPrimary(classifier.NewGroqProvider(cfg.GroqAPIKey, cfg.GroqModel), nil)
	case "anthropic":
		return classifier.PreferPrimary(classifier.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil)
	case "huggingface":
		return classifier.PreferPrimary(classifier.NewHFProvider(cfg.HFAPIToken, cfg.HFEmotionModel, cfg.HFSentimentModel), nil)
	}

	// Default strategy: the free provider when configured, the paid one
	// otherwise.
	var primary, secondary classifier.Provider
	if cfg.GroqAPIKey != "" {
		primary = classifier.NewGroqProvider(cfg.GroqAPIKey, cfg.GroqModel)
	}
	if cfg.AnthropicAPIKey != "" {
		secondary = classifier.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	}
	return classifier.PreferPrimary(primary, secondary)
}

func providerName(cfg config.Config) string {
	if cfg.LLMProvider != "" {
		return cfg.LLMProvider
	}
	if cfg.GroqAPIKey != "" {
		return "groq"
	}
	return "anthropic"
}
