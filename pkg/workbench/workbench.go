package workbench

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xhad/docintel/internal/models"
	"github.com/xhad/docintel/internal/types"
	"github.com/xhad/docintel/pkg/config"
	"github.com/xhad/docintel/pkg/fetcher"
	"github.com/xhad/docintel/pkg/llm"
	"github.com/xhad/docintel/pkg/loader"
	"github.com/xhad/docintel/pkg/logging"
	"github.com/xhad/docintel/pkg/store"
)

// DocumentLoader loads uploads and local files. *loader.Loader satisfies it.
type DocumentLoader interface {
	types.Loader
	LoadFile(ctx context.Context, path string) (*models.ExtractedContent, error)
}

// Components are the services a Workbench drives. Fetcher may be nil, in
// which case LoadURL is refused.
type Components struct {
	Loader     DocumentLoader
	Summarizer types.Summarizer
	Sentiment  types.SentimentAnalyzer
	Speech     types.SpeechSynthesizer
	Artifacts  types.ArtifactStore
	Fetcher    types.Fetcher
}

// Workbench is what the CLI and the websocket server call: one Load per
// upload and one transform per user action.
type Workbench struct {
	loader     DocumentLoader
	summarizer types.Summarizer
	sentiment  types.SentimentAnalyzer
	speech     types.SpeechSynthesizer
	artifacts  types.ArtifactStore
	fetcher    types.Fetcher
	logger     *logging.Logger

	provider        *llm.Provider
	cleanupInterval time.Duration
}

func NewWithComponents(c Components, logger *logging.Logger) (*Workbench, error) {
	if c.Loader == nil || c.Summarizer == nil || c.Sentiment == nil || c.Speech == nil || c.Artifacts == nil {
		return nil, fmt.Errorf("workbench requires a loader, a summarizer, a sentiment analyzer, a speech synthesizer and an artifact store")
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &Workbench{
		loader:     c.Loader,
		summarizer: c.Summarizer,
		sentiment:  c.Sentiment,
		speech:     c.Speech,
		artifacts:  c.Artifacts,
		fetcher:    c.Fetcher,
		logger:     logger.WithComponent("workbench"),
	}, nil
}

// New builds every service from cfg around one shared inference provider.
func New(cfg *config.Config, logger *logging.Logger) (*Workbench, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	provider, err := llm.NewProvider(llm.ProviderConfig{
		Provider:      cfg.LLM.Provider,
		BaseURL:       cfg.LLM.BaseURL,
		APIKey:        cfg.LLM.APIKey,
		TextModel:     cfg.LLM.TextModel,
		VisionModel:   cfg.LLM.VisionModel,
		RateLimit:     cfg.LLM.RateLimit,
		Timeout:       cfg.LLM.Timeout,
		SpeechBaseURL: cfg.Speech.BaseURL,
		SpeechAPIKey:  cfg.Speech.APIKey,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create inference provider: %w", err)
	}

	docLoader, err := loader.NewWithConfig(loader.LoaderConfig{
		MaxUploadBytes: cfg.Loader.MaxUploadBytes,
		ScratchDir:     cfg.Loader.ScratchDir,
	}, llm.NewCaptioner(provider.Vision(), llm.CaptionerConfig{}), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create loader: %w", err)
	}

	artifacts, err := store.NewWithConfig(store.ArtifactStoreConfig{
		Dir: cfg.Artifacts.Dir,
		TTL: cfg.Artifacts.TTL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact store: %w", err)
	}

	w, err := NewWithComponents(Components{
		Loader: docLoader,
		Summarizer: llm.NewSummarizer(provider.Text(), llm.SummarizerConfig{
			ChunkSize:     cfg.Summarizer.ChunkSize,
			MaxChunkWords: cfg.Summarizer.MaxChunkWords,
			MinLength:     cfg.Summarizer.MinLength,
			MaxLength:     cfg.Summarizer.MaxLength,
		}, logger),
		Sentiment: llm.NewSentimentAnalyzer(provider.Text()),
		Speech: llm.NewSpeechSynthesizer(provider.Speech(), llm.SpeechConfig{
			Model: cfg.Speech.Model,
			Voice: cfg.Speech.Voice,
			Speed: cfg.Speech.Speed,
		}),
		Artifacts: artifacts,
		Fetcher: fetcher.NewWithConfig(fetcher.FetcherConfig{
			Timeout:   cfg.Fetcher.Timeout,
			RateLimit: cfg.Fetcher.RateLimit,
			MaxBytes:  cfg.Loader.MaxUploadBytes,
		}, logger),
	}, logger)
	if err != nil {
		return nil, err
	}
	w.provider = provider
	w.cleanupInterval = cfg.Artifacts.CleanupInterval
	return w, nil
}

// Artifacts exposes the store so front ends can serve generated files.
func (w *Workbench) Artifacts() types.ArtifactStore {
	return w.artifacts
}

// StartCleaner runs the artifact janitor until ctx is done, when the store
// supports one.
func (w *Workbench) StartCleaner(ctx context.Context) {
	if c, ok := w.artifacts.(interface {
		StartCleaner(context.Context, time.Duration)
	}); ok {
		c.StartCleaner(ctx, w.cleanupInterval)
	}
}

// Close releases the inference handles.
func (w *Workbench) Close() error {
	if w.provider != nil {
		return w.provider.Close()
	}
	return nil
}

func (w *Workbench) Load(ctx context.Context, doc models.UploadedDocument) (*models.ExtractedContent, error) {
	return w.loader.Load(ctx, doc)
}

func (w *Workbench) LoadFile(ctx context.Context, path string) (*models.ExtractedContent, error) {
	return w.loader.LoadFile(ctx, path)
}

// LoadURL downloads a remote document and loads it like an upload.
func (w *Workbench) LoadURL(ctx context.Context, rawURL string) (*models.ExtractedContent, error) {
	if w.fetcher == nil {
		return nil, models.ValidationError("remote documents are not enabled", nil)
	}
	doc, err := w.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return w.loader.Load(ctx, *doc)
}

// Open loads target as a URL when it looks like one and as a local path
// otherwise.
func (w *Workbench) Open(ctx context.Context, target string) (*models.ExtractedContent, error) {
	if fetcher.IsURL(target) {
		return w.LoadURL(ctx, target)
	}
	return w.LoadFile(ctx, target)
}

// Summarize summarizes the extracted text and stores it as summary.txt.
func (w *Workbench) Summarize(ctx context.Context, content *models.ExtractedContent) (*models.SummaryResult, error) {
	if err := requireContent(content); err != nil {
		return nil, err
	}

	summary, chunks, err := w.summarizer.Summarize(ctx, content.Text)
	if err != nil {
		return nil, err
	}

	artifact, err := w.artifacts.Save(models.ArtifactSummary, strings.NewReader(summary))
	if err != nil {
		return nil, err
	}

	w.logger.Info().Str("source", content.Source).Int("chunks", chunks).Str("artifact", artifact.ID).Msg("summary generated")

	return &models.SummaryResult{
		SummaryText: summary,
		Chunks:      chunks,
		Artifact:    artifact,
	}, nil
}

func (w *Workbench) AnalyzeSentiment(ctx context.Context, content *models.ExtractedContent) (*models.SentimentResult, error) {
	if err := requireContent(content); err != nil {
		return nil, err
	}

	result, err := w.sentiment.Analyze(ctx, content.Text)
	if err != nil {
		return nil, err
	}

	w.logger.Info().Str("source", content.Source).Str("label", string(result.Label)).Float64("score", result.Score).Msg("sentiment analyzed")
	return result, nil
}

// ConvertToAudio synthesizes the extracted text into a new mp3 artifact.
// Nothing is stored when synthesis fails.
func (w *Workbench) ConvertToAudio(ctx context.Context, content *models.ExtractedContent) (*models.Artifact, error) {
	if err := requireContent(content); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := w.speech.Synthesize(ctx, content.Text, &buf); err != nil {
		return nil, err
	}

	artifact, err := w.artifacts.Save(models.ArtifactAudio, &buf)
	if err != nil {
		return nil, err
	}

	w.logger.Info().Str("source", content.Source).Int64("bytes", artifact.Size).Str("artifact", artifact.ID).Msg("audio generated")
	return artifact, nil
}

func requireContent(content *models.ExtractedContent) error {
	if content == nil {
		return models.ValidationError("no document loaded", nil)
	}
	return nil
}
