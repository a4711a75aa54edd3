package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultExternalHTTPTimeout = 30 * time.Second

type Config struct {
	// Provider selection: groq (free, primary), anthropic (paid fallback)
	// or huggingface (structured scores). Empty picks by configured keys.
	LLMProvider     string `yaml:"llm_provider"`
	GroqAPIKey      string `yaml:"groq_api_key"`
	GroqModel       string `yaml:"groq_model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`

	HFAPIToken       string `yaml:"hf_api_token"`
	HFEmotionModel   string `yaml:"hf_emotion_model"`
	HFSentimentModel string `yaml:"hf_sentiment_model"`

	LLMMaxAttempts int   `yaml:"llm_max_attempts"`
	LLMDailyBudget int64 `yaml:"llm_daily_budget"`

	DBPath        string `yaml:"db_path"`
	CacheDir      string `yaml:"cache_dir"`
	CacheTTLHours int    `yaml:"cache_ttl_hours"`

	EncryptionSecret string `yaml:"encryption_secret"`
	EncryptionSalt   string `yaml:"encryption_salt"`

	SlackBotToken   string `yaml:"slack_bot_token"`
	DigestChannelID string `yaml:"digest_channel_id"`
	DigestSchedule  string `yaml:"digest_schedule"`

	ExternalHTTPTimeoutSeconds int    `yaml:"external_http_timeout_seconds"`
	Timezone                   string `yaml:"timezone"`

	Location *time.Location `yaml:"-"` // computed from Timezone, not from YAML
}

func LoadConfig() Config {
	var cfg Config

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.GroqAPIKey, "GROQ_API_KEY")
	envOverride(&cfg.GroqModel, "GROQ_MODEL")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.AnthropicModel, "ANTHROPIC_MODEL")
	envOverride(&cfg.HFAPIToken, "HF_API_TOKEN")
	envOverride(&cfg.HFEmotionModel, "HF_EMOTION_MODEL")
	envOverride(&cfg.HFSentimentModel, "HF_SENTIMENT_MODEL")
	envOverrideInt(&cfg.LLMMaxAttempts, "LLM_MAX_ATTEMPTS")
	envOverrideInt64(&cfg.LLMDailyBudget, "LLM_DAILY_BUDGET")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.CacheDir, "CACHE_DIR")
	envOverrideInt(&cfg.CacheTTLHours, "CACHE_TTL_HOURS")
	envOverride(&cfg.EncryptionSecret, "ENCRYPTION_SECRET")
	envOverride(&cfg.EncryptionSalt, "ENCRYPTION_SALT")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.DigestChannelID, "DIGEST_CHANNEL_ID")
	envOverride(&cfg.DigestSchedule, "DIGEST_SCHEDULE")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.Timezone, "TIMEZONE")

	if cfg.LLMMaxAttempts == 0 {
		cfg.LLMMaxAttempts = 3
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./moodtrack.db"
	}
	if cfg.CacheTTLHours == 0 {
		cfg.CacheTTLHours = 1
	}
	if cfg.EncryptionSalt == "" {
		cfg.EncryptionSalt = "moodtrack-field-v1"
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}

	if cfg.EncryptionSecret == "" {
		log.Fatalf("Required config 'encryption_secret' is not set (via config.yaml or env var)")
	}

	switch cfg.LLMProvider {
	case "":
		if cfg.GroqAPIKey == "" && cfg.AnthropicAPIKey == "" {
			log.Fatalf("No classifier provider configured: set groq_api_key or anthropic_api_key")
		}
	case "groq":
		if cfg.GroqAPIKey == "" {
			log.Fatalf("groq_api_key is required when llm_provider=groq")
		}
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Fatalf("anthropic_api_key is required when llm_provider=anthropic")
		}
	case "huggingface":
		if cfg.HFAPIToken == "" || cfg.HFEmotionModel == "" || cfg.HFSentimentModel == "" {
			log.Fatalf("hf_api_token, hf_emotion_model and hf_sentiment_model are required when llm_provider=huggingface")
		}
	default:
		log.Fatalf("llm_provider must be 'groq', 'anthropic' or 'huggingface', got '%s'", cfg.LLMProvider)
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	if cfg.LLMMaxAttempts < 1 {
		log.Fatalf("invalid llm_max_attempts '%d': must be >= 1", cfg.LLMMaxAttempts)
	}
	if cfg.CacheTTLHours < 0 {
		log.Fatalf("invalid cache_ttl_hours '%d': must be >= 0", cfg.CacheTTLHours)
	}

	return cfg
}

// CacheTTL returns the result cache TTL as a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// DigestConfigured reports whether the monthly digest can run.
func (c Config) DigestConfigured() bool {
	return c.DigestSchedule != "" && c.DigestChannelID != "" && c.SlackBotToken != ""
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideInt64(field *int64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
