package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  provider: "ollama"
  base_url: "http://localhost:11434"
  text_model: "llama3"
  vision_model: "llava:13b"
  rate_limit: 1.5
  timeout: 45s

summarizer:
  chunk_size: 512
  max_chunk_words: 300

speech:
  voice: "nova"
  speed: 1.25

artifacts:
  dir: "/var/lib/docintel"
  ttl: 2h

log:
  level: "debug"
  format: "json"
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	// Test loading config
	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	// Verify loaded values
	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, "llama3", config.LLM.TextModel)
	assert.Equal(t, "llava:13b", config.LLM.VisionModel)
	assert.Equal(t, 1.5, config.LLM.RateLimit)
	assert.Equal(t, 45*time.Second, config.LLM.Timeout)
	assert.Equal(t, 512, config.Summarizer.ChunkSize)
	assert.Equal(t, 300, config.Summarizer.MaxChunkWords)
	assert.Equal(t, "nova", config.Speech.Voice)
	assert.Equal(t, 1.25, config.Speech.Speed)
	assert.Equal(t, 2*time.Hour, config.Artifacts.TTL)
	assert.Equal(t, "json", config.Log.Format)

	// Defaults fill the rest
	assert.Equal(t, 40, config.Summarizer.MinLength)
	assert.Equal(t, 150, config.Summarizer.MaxLength)
	assert.Equal(t, "en", config.Speech.Language)
	assert.Equal(t, time.Hour, config.Artifacts.CleanupInterval)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("llm: [unterminated"), 0644))

	_, err := LoadConfig(configPath)
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	config := &Config{}
	applyDefaults(config)

	assert.Equal(t, "ollama", config.LLM.Provider)
	assert.Equal(t, 1024, config.Summarizer.ChunkSize)
	assert.Equal(t, 1024, config.Summarizer.MaxChunkWords)
	assert.Equal(t, 1.0, config.Speech.Speed)
	assert.Equal(t, ":8080", config.Server.Addr)
	assert.Empty(t, config.Validate())
}

func TestConfigValidation(t *testing.T) {
	valid := func() Config {
		c := Config{}
		applyDefaults(&c)
		return c
	}

	tests := []struct {
		name          string
		mutate        func(c *Config)
		expectedErrs  int
		errorMessages []string
	}{
		{
			name:         "valid config",
			mutate:       func(c *Config) {},
			expectedErrs: 0,
		},
		{
			name: "invalid config",
			mutate: func(c *Config) {
				c.LLM.Provider = "bogus"
				c.LLM.BaseURL = "invalid-url"
				c.Summarizer.ChunkSize = 0
				c.Speech.Speed = 10
				c.Log.Format = "xml"
			},
			expectedErrs: 5,
			errorMessages: []string{
				"llm.provider: provider must be one of ollama, openai",
				"llm.base_url: invalid model server base URL",
				"summarizer.chunk_size: chunk_size must be positive",
				"speech.speed: speed must be between 0.25 and 4.0",
				"log.format: format must be console or json",
			},
		},
		{
			name: "openai without key",
			mutate: func(c *Config) {
				c.LLM.Provider = "openai"
				c.LLM.BaseURL = "https://api.openai.com/v1"
			},
			expectedErrs:  1,
			errorMessages: []string{"llm.api_key"},
		},
		{
			name: "min length above max length",
			mutate: func(c *Config) {
				c.Summarizer.MinLength = 200
			},
			expectedErrs:  1,
			errorMessages: []string{"summarizer.min_length"},
		},
		{
			name: "non-english speech",
			mutate: func(c *Config) {
				c.Speech.Language = "fr"
			},
			expectedErrs:  1,
			errorMessages: []string{"speech.language: only en is supported"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(&config)

			errors := config.Validate()
			assert.Len(t, errors, tt.expectedErrs)

			if tt.errorMessages != nil {
				for i, msg := range tt.errorMessages {
					assert.Contains(t, errors[i].Error(), msg)
				}
			}
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://env-ollama:11434")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "http://env-speech/v1")
	t.Setenv("DOCINTEL_ARTIFACT_DIR", "/tmp/env-artifacts")
	t.Setenv("PORT", "9090")

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, "http://env-ollama:11434", config.LLM.BaseURL)
	assert.Equal(t, "sk-test", config.LLM.APIKey)
	assert.Equal(t, "sk-test", config.Speech.APIKey)
	assert.Equal(t, "http://env-speech/v1", config.Speech.BaseURL)
	assert.Equal(t, "/tmp/env-artifacts", config.Artifacts.Dir)
	assert.Equal(t, ":9090", config.Server.Addr)
}

func TestOpenAIBaseURL(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://env-ollama:11434")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configData := `
llm:
  provider: "openai"
  api_key: "sk-x"
  text_model: "gpt-4o-mini"
  vision_model: "gpt-4o"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configData), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	// Neither the ollama default nor OLLAMA_BASE_URL applies
	assert.Empty(t, config.LLM.BaseURL)
	assert.Empty(t, config.Validate())
}

func TestOllamaBaseURLFromEnv(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://env-ollama:11434")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("llm:\n  provider: \"ollama\"\n"), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "http://env-ollama:11434", config.LLM.BaseURL)
}
