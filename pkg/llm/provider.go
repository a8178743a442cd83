package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
	"github.com/xhad/docintel/pkg/logging"
	"golang.org/x/time/rate"
)

var ErrProviderClosed = errors.New("inference provider is closed")

// ProviderConfig represents the configuration shared by every model handle.
type ProviderConfig struct {
	Provider    string // ollama or openai
	BaseURL     string
	APIKey      string
	TextModel   string
	VisionModel string
	RateLimit   float64 // requests per second across all handles
	Timeout     time.Duration

	SpeechBaseURL string
	SpeechAPIKey  string
}

// Provider owns the long-lived inference handles. Each handle is created on
// first use and then shared; it is safe for concurrent use.
type Provider struct {
	config  ProviderConfig
	limiter *rate.Limiter
	closed  atomic.Bool
	logger  *logging.Logger

	text   *lazyModel
	vision *lazyModel
	speech *lazySpeech
}

func NewProvider(config ProviderConfig, logger *logging.Logger) (*Provider, error) {
	if config.Provider == "" {
		config.Provider = "ollama"
	}
	if config.Provider != "ollama" && config.Provider != "openai" {
		return nil, fmt.Errorf("unknown provider %q", config.Provider)
	}
	if config.TextModel == "" {
		config.TextModel = "mistral"
	}
	if config.VisionModel == "" {
		config.VisionModel = "llava"
	}
	if config.BaseURL == "" && config.Provider == "ollama" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 5
	}
	if logger == nil {
		logger = logging.Nop()
	}

	p := &Provider{
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		logger:  logger.WithComponent("provider"),
	}
	p.text = &lazyModel{name: config.TextModel, provider: p, init: func() (llms.Model, error) {
		return p.newModel(config.TextModel)
	}}
	p.vision = &lazyModel{name: config.VisionModel, provider: p, init: func() (llms.Model, error) {
		return p.newModel(config.VisionModel)
	}}
	p.speech = &lazySpeech{provider: p}

	return p, nil
}

// Text returns the handle used for summarization and sentiment.
func (p *Provider) Text() llms.Model { return p.text }

// Vision returns the handle used for image captioning.
func (p *Provider) Vision() llms.Model { return p.vision }

// Speech returns the speech synthesis client.
func (p *Provider) Speech() SpeechClient { return p.speech }

// Close releases the provider. Calls made after Close fail with
// ErrProviderClosed.
func (p *Provider) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.logger.Debug().Msg("provider closed")
	return nil
}

func (p *Provider) newModel(model string) (llms.Model, error) {
	p.logger.Info().Str("provider", p.config.Provider).Str("model", model).Msg("initializing model")

	switch p.config.Provider {
	case "openai":
		opts := []lcopenai.Option{
			lcopenai.WithModel(model),
			lcopenai.WithToken(p.config.APIKey),
		}
		if p.config.BaseURL != "" {
			opts = append(opts, lcopenai.WithBaseURL(p.config.BaseURL))
		}
		return lcopenai.New(opts...)
	default:
		return ollama.New(
			ollama.WithModel(model),
			ollama.WithServerURL(p.config.BaseURL),
		)
	}
}

// wait applies the shared rate limit and the per-call timeout.
func (p *Provider) wait(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if p.closed.Load() {
		return nil, nil, ErrProviderClosed
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	if p.config.Timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
		return ctx, cancel, nil
	}
	return ctx, func() {}, nil
}

// lazyModel defers model construction until the first call.
type lazyModel struct {
	name     string
	provider *Provider
	init     func() (llms.Model, error)

	once  sync.Once
	model llms.Model
	err   error
}

func (m *lazyModel) get() (llms.Model, error) {
	m.once.Do(func() {
		m.model, m.err = m.init()
		if m.err != nil {
			m.err = fmt.Errorf("failed to initialize model %s: %w", m.name, m.err)
		}
	})
	return m.model, m.err
}

func (m *lazyModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	ctx, cancel, err := m.provider.wait(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	model, err := m.get()
	if err != nil {
		return nil, err
	}
	return model.GenerateContent(ctx, messages, options...)
}

func (m *lazyModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// SpeechClient is the part of the OpenAI client used for synthesis.
type SpeechClient interface {
	CreateSpeech(ctx context.Context, request openai.CreateSpeechRequest) (openai.RawResponse, error)
}

type lazySpeech struct {
	provider *Provider
	once     sync.Once
	client   *openai.Client
}

func (s *lazySpeech) get() *openai.Client {
	s.once.Do(func() {
		s.client = NewSpeechClient(s.provider.config.SpeechBaseURL, s.provider.config.SpeechAPIKey, nil)
	})
	return s.client
}

func (s *lazySpeech) CreateSpeech(ctx context.Context, request openai.CreateSpeechRequest) (openai.RawResponse, error) {
	if s.provider.closed.Load() {
		return openai.RawResponse{}, ErrProviderClosed
	}
	if err := s.provider.limiter.Wait(ctx); err != nil {
		return openai.RawResponse{}, err
	}
	// The response body is streamed by the caller, so the timeout is left to ctx.
	return s.get().CreateSpeech(ctx, request)
}

// NewSpeechClient builds an OpenAI-compatible client for the speech endpoint.
func NewSpeechClient(baseURL, apiKey string, httpClient *http.Client) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if httpClient != nil {
		config.HTTPClient = httpClient
	}
	return openai.NewClientWithConfig(config)
}
