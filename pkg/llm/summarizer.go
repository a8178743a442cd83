package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/xhad/docintel/internal/models"
	"github.com/xhad/docintel/pkg/logging"
	"github.com/xhad/docintel/pkg/processor"
)

// SummarizerConfig represents the configuration for chunked summarization.
type SummarizerConfig struct {
	ChunkSize      int
	MaxChunkWords  int
	MinLength      int
	MaxLength      int
	// SystemPrompt is sent as-is; the token bounds are appended to it.
	SystemPrompt string
}

// Summarizer summarizes text chunk by chunk and joins the results.
type Summarizer struct {
	config    SummarizerConfig
	llm       llms.Model
	processor processor.Processor
	logger    *logging.Logger
}

func NewSummarizer(model llms.Model, config SummarizerConfig, logger *logging.Logger) *Summarizer {
	if config.MinLength == 0 {
		config.MinLength = 40
	}
	if config.MaxLength == 0 {
		config.MaxLength = 150
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = "You are a news-style summarizer. Summarize the user's text in plain prose. " +
			"Reply with the summary only."
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &Summarizer{
		config: config,
		llm:    model,
		processor: processor.NewWithConfig(processor.ProcessorConfig{
			ChunkSize:     config.ChunkSize,
			MaxChunkWords: config.MaxChunkWords,
		}),
		logger: logger.WithComponent("summarizer"),
	}
}

// Summarize returns the per-chunk summaries joined by single spaces, in
// chunk order, and the number of chunks. Any failed chunk fails the call.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, int, error) {
	chunks, err := s.processor.Chunk(text)
	if err != nil {
		return "", 0, err
	}

	system := fmt.Sprintf("%s Use between %d and %d tokens.",
		strings.TrimSpace(s.config.SystemPrompt), s.config.MinLength, s.config.MaxLength)
	summaries := make([]string, 0, len(chunks))

	for i, chunk := range chunks {
		content := []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, system),
			llms.TextParts(llms.ChatMessageTypeHuman, chunk),
		}

		resp, err := s.llm.GenerateContent(ctx, content,
			llms.WithMinLength(s.config.MinLength),
			llms.WithMaxTokens(s.config.MaxLength),
			llms.WithTemperature(0),
		)
		if err != nil {
			return "", 0, models.InferenceError(fmt.Sprintf("summary of chunk %d failed", i+1), err)
		}

		summary, err := firstChoice(resp)
		if err != nil {
			return "", 0, err
		}
		summaries = append(summaries, summary)

		s.logger.Debug().Int("chunk", i+1).Int("of", len(chunks)).Msg("chunk summarized")
	}

	return strings.Join(summaries, " "), len(chunks), nil
}
