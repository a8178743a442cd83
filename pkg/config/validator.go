package config

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var supportedProviders = []string{"ollama", "openai"}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	if !contains(supportedProviders, c.LLM.Provider) {
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("provider must be one of %s", strings.Join(supportedProviders, ", ")),
		})
	}

	if c.LLM.BaseURL == "" && c.LLM.Provider == "ollama" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "model server base URL is required",
		})
	} else if c.LLM.BaseURL != "" && !validURL(c.LLM.BaseURL) {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid model server base URL",
		})
	}

	if c.LLM.Provider == "openai" && c.LLM.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.api_key",
			Message: "api_key is required for the openai provider",
		})
	}

	if c.LLM.TextModel == "" || c.LLM.VisionModel == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.text_model",
			Message: "text_model and vision_model are required",
		})
	}

	if c.LLM.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate Summarizer config
	if c.Summarizer.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "summarizer.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Summarizer.MaxChunkWords < 1 {
		errors = append(errors, ValidationError{
			Field:   "summarizer.max_chunk_words",
			Message: "max_chunk_words must be positive",
		})
	}

	if c.Summarizer.MinLength < 0 || c.Summarizer.MinLength > c.Summarizer.MaxLength {
		errors = append(errors, ValidationError{
			Field:   "summarizer.min_length",
			Message: "min_length must be non-negative and not greater than max_length",
		})
	}

	// Validate Speech config
	if !validURL(c.Speech.BaseURL) {
		errors = append(errors, ValidationError{
			Field:   "speech.base_url",
			Message: "invalid speech base URL",
		})
	}

	if c.Speech.Language != "en" {
		errors = append(errors, ValidationError{
			Field:   "speech.language",
			Message: "only en is supported",
		})
	}

	if c.Speech.Speed < 0.25 || c.Speech.Speed > 4.0 {
		errors = append(errors, ValidationError{
			Field:   "speech.speed",
			Message: "speed must be between 0.25 and 4.0",
		})
	}

	// Validate Loader config
	if c.Loader.MaxUploadBytes < 1 {
		errors = append(errors, ValidationError{
			Field:   "loader.max_upload_bytes",
			Message: "max_upload_bytes must be positive",
		})
	}

	// Validate Artifacts config
	if c.Artifacts.Dir == "" {
		errors = append(errors, ValidationError{
			Field:   "artifacts.dir",
			Message: "artifact directory is required",
		})
	}

	if c.Artifacts.TTL <= 0 {
		errors = append(errors, ValidationError{
			Field:   "artifacts.ttl",
			Message: "ttl must be positive",
		})
	}

	// Validate Fetcher config
	if c.Fetcher.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "fetcher.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate Log config
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errors = append(errors, ValidationError{
			Field:   "log.format",
			Message: "format must be console or json",
		})
	}

	return errors
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
