package types

import (
	"context"
	"io"

	"github.com/xhad/docintel/internal/models"
)

// Core interfaces
type Loader interface {
	Load(ctx context.Context, doc models.UploadedDocument) (*models.ExtractedContent, error)
}

type Captioner interface {
	Caption(ctx context.Context, imagePath string) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, int, error)
}

type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (*models.SentimentResult, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string, w io.Writer) error
}

type ArtifactStore interface {
	Save(kind models.ArtifactKind, r io.Reader) (*models.Artifact, error)
	Get(id string) (*models.Artifact, error)
	Open(id string) (io.ReadCloser, *models.Artifact, error)
	Remove(id string) error
}

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*models.UploadedDocument, error)
}
