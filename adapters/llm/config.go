package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultModel          = "gemini-2.5-flash"
	defaultTemperature    = 0.8
	defaultMaxToolRounds  = 8
	defaultTimeoutSeconds = 60
)

// GeminiConfig configures the Gemini reasoning engine
type GeminiConfig struct {
	APIKey         string
	Model          string
	Temperature    float32
	SystemPrompt   string
	MaxToolRounds  int
	TimeoutSeconds int
}

// ValidateGeminiConfig validates the GeminiConfig
func ValidateGeminiConfig(config GeminiConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("Gemini API key is required")
	}

	if config.Temperature < 0 || config.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %f", config.Temperature)
	}

	if config.MaxToolRounds < 0 {
		return fmt.Errorf("max tool rounds must be positive, got %d", config.MaxToolRounds)
	}

	if config.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must be positive, got %d", config.TimeoutSeconds)
	}

	return nil
}

// withDefaults fills unset fields
func (c GeminiConfig) withDefaults() GeminiConfig {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Temperature == 0 {
		c.Temperature = defaultTemperature
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
	if c.MaxToolRounds == 0 {
		c.MaxToolRounds = defaultMaxToolRounds
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = defaultTimeoutSeconds
	}
	return c
}

func (c GeminiConfig) timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoadSystemPrompt reads the prompt at path, or returns DefaultSystemPrompt when path is empty
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return DefaultSystemPrompt, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt: %w", err)
	}

	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("system prompt file %s is empty", path)
	}
	return prompt, nil
}

// DefaultSystemPrompt is used when no prompt file is configured
const DefaultSystemPrompt = `You are a friendly voice assistant that manages the user's Google Calendar.

Your replies are spoken aloud, so keep them short and conversational. Do not use markdown, lists or emoji.

You can check whether a time slot is free, list the events on a date, and create new events.
When the user mentions a date without a year, call get_current_year first.
Always pass dates as YYYY-MM-DD and date-times as YYYY-MM-DDTHH:MM:SS in the calendar's local time.
Before creating an event, check that the slot is available. If it is taken, say so and offer to look for another time.
If you need a title or a time to book something, ask for it.
After creating an event, confirm the title, date and time back to the user.`
