package processor

import (
	"strings"

	"github.com/xhad/docintel/internal/models"
)

type ProcessorConfig struct {
	// ChunkSize is the wrap width in characters. It stands in for the
	// summarization model's input token budget.
	ChunkSize int
	// MaxChunkWords triggers truncation of a chunk to ChunkSize characters.
	MaxChunkWords int
	TabSize       int
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1024
	}
	if config.MaxChunkWords == 0 {
		config.MaxChunkWords = 1024
	}
	if config.TabSize == 0 {
		config.TabSize = 8
	}

	return Processor{
		config: config,
	}
}

// Chunk splits text into the pieces that are summarized one at a time.
// Empty chunks are skipped; text with no content at all is rejected.
func (p *Processor) Chunk(text string) ([]string, error) {
	var chunks []string

	for _, chunk := range Wrap(text, p.config.ChunkSize, p.config.TabSize) {
		if len(strings.Fields(chunk)) > p.config.MaxChunkWords {
			chunk = truncateRunes(chunk, p.config.ChunkSize)
		}
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}

	if len(chunks) == 0 {
		return nil, models.ValidationError("no text to summarize", nil)
	}

	return chunks, nil
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
