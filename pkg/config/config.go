package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		Provider    string        `yaml:"provider"`
		BaseURL     string        `yaml:"base_url"`
		APIKey      string        `yaml:"api_key"`
		TextModel   string        `yaml:"text_model"`
		VisionModel string        `yaml:"vision_model"`
		RateLimit   float64       `yaml:"rate_limit"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"llm"`

	Summarizer struct {
		ChunkSize     int `yaml:"chunk_size"`
		MaxChunkWords int `yaml:"max_chunk_words"`
		MinLength     int `yaml:"min_length"`
		MaxLength     int `yaml:"max_length"`
	} `yaml:"summarizer"`

	Speech struct {
		BaseURL  string  `yaml:"base_url"`
		APIKey   string  `yaml:"api_key"`
		Model    string  `yaml:"model"`
		Voice    string  `yaml:"voice"`
		Language string  `yaml:"language"`
		Speed    float64 `yaml:"speed"`
	} `yaml:"speech"`

	Loader struct {
		MaxUploadBytes int64  `yaml:"max_upload_bytes"`
		ScratchDir     string `yaml:"scratch_dir"`
	} `yaml:"loader"`

	Artifacts struct {
		Dir             string        `yaml:"dir"`
		TTL             time.Duration `yaml:"ttl"`
		CleanupInterval time.Duration `yaml:"cleanup_interval"`
	} `yaml:"artifacts"`

	Fetcher struct {
		Timeout   time.Duration `yaml:"timeout"`
		RateLimit float64       `yaml:"rate_limit"`
	} `yaml:"fetcher"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func LoadConfig(path string) (*Config, error) {
	// A missing .env is fine; anything it sets is picked up by mergeWithEnv
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("DOCINTEL_CONFIG")
	}

	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/docintel/config.yaml"),
			"/etc/docintel/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = "ollama"
	}
	// openai leaves base_url empty so the client uses its own endpoint
	if config.LLM.BaseURL == "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.TextModel == "" {
		config.LLM.TextModel = "mistral"
	}
	if config.LLM.VisionModel == "" {
		config.LLM.VisionModel = "llava"
	}
	if config.LLM.RateLimit == 0 {
		config.LLM.RateLimit = 5
	}
	if config.LLM.Timeout == 0 {
		config.LLM.Timeout = 2 * time.Minute
	}

	if config.Summarizer.ChunkSize == 0 {
		config.Summarizer.ChunkSize = 1024
	}
	if config.Summarizer.MaxChunkWords == 0 {
		config.Summarizer.MaxChunkWords = 1024
	}
	if config.Summarizer.MinLength == 0 {
		config.Summarizer.MinLength = 40
	}
	if config.Summarizer.MaxLength == 0 {
		config.Summarizer.MaxLength = 150
	}

	if config.Speech.BaseURL == "" {
		config.Speech.BaseURL = "https://api.openai.com/v1"
	}
	if config.Speech.Model == "" {
		config.Speech.Model = "tts-1"
	}
	if config.Speech.Voice == "" {
		config.Speech.Voice = "alloy"
	}
	if config.Speech.Language == "" {
		config.Speech.Language = "en"
	}
	if config.Speech.Speed == 0 {
		config.Speech.Speed = 1.0
	}

	if config.Loader.MaxUploadBytes == 0 {
		config.Loader.MaxUploadBytes = 50 << 20
	}

	if config.Artifacts.Dir == "" {
		config.Artifacts.Dir = filepath.Join(os.TempDir(), "docintel-artifacts")
	}
	if config.Artifacts.TTL == 0 {
		config.Artifacts.TTL = 24 * time.Hour
	}
	if config.Artifacts.CleanupInterval == 0 {
		config.Artifacts.CleanupInterval = time.Hour
	}

	if config.Fetcher.Timeout == 0 {
		config.Fetcher.Timeout = 30 * time.Second
	}
	if config.Fetcher.RateLimit == 0 {
		config.Fetcher.RateLimit = 2.0
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "console"
	}
}

// usesOllama reports whether the model server is ollama, the default provider.
func usesOllama(config *Config) bool {
	return config.LLM.Provider == "" || config.LLM.Provider == "ollama"
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && usesOllama(config) {
		config.LLM.BaseURL = baseURL
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		if config.LLM.APIKey == "" {
			config.LLM.APIKey = apiKey
		}
		config.Speech.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.Speech.BaseURL = baseURL
	}
	if dir := os.Getenv("DOCINTEL_ARTIFACT_DIR"); dir != "" {
		config.Artifacts.Dir = dir
	}
	if level := os.Getenv("DOCINTEL_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			config.Server.Addr = ":" + port
		}
	}
}
