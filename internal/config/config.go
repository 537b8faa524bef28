package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted by the *_PROVIDER variables
const (
	ProviderGoogle     = "google"
	ProviderGemini     = "gemini"
	ProviderElevenLabs = "elevenlabs"
	ProviderMock       = "mock"
	// ProviderClient disables server-side transcription; clients send transcript messages instead
	ProviderClient = "client"
)

// Error policies for failures while handling a client message
const (
	ErrorPolicyContinue = "continue"
	ErrorPolicyClose    = "close"
)

// Config represents the complete service configuration
type Config struct {
	Port             string
	LogLevel         string
	ErrorPolicy      string
	JWTSecret        string
	AudioPullTimeout time.Duration

	STT      STTConfig
	TTS      TTSConfig
	LLM      LLMConfig
	Calendar CalendarConfig
	Storage  StorageConfig
}

// STTConfig selects and configures speech recognition
type STTConfig struct {
	Provider   string
	SampleRate int
	Encoding   string
	Language   string
}

// TTSConfig selects and configures speech synthesis.
// ElevenLabs specific settings are read by the adapter itself.
type TTSConfig struct {
	Provider   string
	Language   string
	SampleRate int
}

// LLMConfig configures the reasoning engine
type LLMConfig struct {
	Provider         string
	APIKey           string
	Model            string
	Temperature      float32
	SystemPromptPath string
	MaxToolRounds    int
}

// CalendarConfig configures the Google Calendar client
type CalendarConfig struct {
	ID              string
	CredentialsFile string
}

// StorageConfig configures where chat threads are kept
type StorageConfig struct {
	MongoURI        string
	MongoDatabase   string
	ThreadTTL       time.Duration
	CleanupInterval time.Duration
}

// Load reads an optional .env file and then the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables, applying defaults
func FromEnv() *Config {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}

	return &Config{
		Port:             getEnv("PORT", "8000"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ErrorPolicy:      getEnv("ERROR_POLICY", ErrorPolicyContinue),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		AudioPullTimeout: getDuration("AUDIO_PULL_TIMEOUT", 5*time.Second),
		STT: STTConfig{
			Provider:   getEnv("STT_PROVIDER", ProviderGoogle),
			SampleRate: getInt("STT_SAMPLE_RATE", 16000),
			Encoding:   getEnv("STT_ENCODING", "LINEAR16"),
			Language:   getEnv("STT_LANGUAGE", "en-US"),
		},
		TTS: TTSConfig{
			Provider:   getEnv("TTS_PROVIDER", ProviderGoogle),
			Language:   getEnv("TTS_LANGUAGE", "en-US"),
			SampleRate: getInt("TTS_SAMPLE_RATE", 16000),
		},
		LLM: LLMConfig{
			Provider:         getEnv("LLM_PROVIDER", ProviderGemini),
			APIKey:           apiKey,
			Model:            getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Temperature:      float32(getFloat("GEMINI_TEMPERATURE", 0.8)),
			SystemPromptPath: os.Getenv("SYSTEM_PROMPT_PATH"),
			MaxToolRounds:    getInt("AGENT_MAX_TOOL_ROUNDS", 8),
		},
		Calendar: CalendarConfig{
			ID:              getEnv("GOOGLE_CALENDAR_ID", "primary"),
			CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		},
		Storage: StorageConfig{
			MongoURI:        os.Getenv("MONGODB_URI"),
			MongoDatabase:   getEnv("MONGODB_DATABASE", "voxcal"),
			ThreadTTL:       getDuration("THREAD_TTL", 24*time.Hour),
			CleanupInterval: getDuration("THREAD_CLEANUP_INTERVAL", 30*time.Minute),
		},
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}

	if c.ErrorPolicy != ErrorPolicyContinue && c.ErrorPolicy != ErrorPolicyClose {
		return fmt.Errorf("error policy must be %q or %q, got %q", ErrorPolicyContinue, ErrorPolicyClose, c.ErrorPolicy)
	}

	if c.AudioPullTimeout <= 0 {
		return fmt.Errorf("audio pull timeout must be positive, got %v", c.AudioPullTimeout)
	}

	switch c.STT.Provider {
	case ProviderGoogle, ProviderMock, ProviderClient:
	default:
		return fmt.Errorf("unsupported STT provider: %s", c.STT.Provider)
	}

	if c.STT.SampleRate < 8000 || c.STT.SampleRate > 48000 {
		return fmt.Errorf("STT sample rate must be between 8000 and 48000, got %d", c.STT.SampleRate)
	}

	switch c.TTS.Provider {
	case ProviderGoogle, ProviderElevenLabs, ProviderMock:
	default:
		return fmt.Errorf("unsupported TTS provider: %s", c.TTS.Provider)
	}

	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider)
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %f", c.LLM.Temperature)
	}

	if c.LLM.MaxToolRounds <= 0 {
		return fmt.Errorf("max tool rounds must be positive, got %d", c.LLM.MaxToolRounds)
	}

	if c.Storage.ThreadTTL <= 0 || c.Storage.CleanupInterval <= 0 {
		return fmt.Errorf("thread ttl and cleanup interval must be positive")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
