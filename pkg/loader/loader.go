package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xhad/docintel/internal/models"
	"github.com/xhad/docintel/internal/types"
	"github.com/xhad/docintel/pkg/logging"
)

type LoaderConfig struct {
	// MaxUploadBytes caps how much of an upload is read before parsing.
	MaxUploadBytes int64
	// ScratchDir is where per-load scratch directories are created.
	// Empty means the system temp directory.
	ScratchDir string
}

// Loader extracts text and image captions from uploaded documents.
type Loader struct {
	config    LoaderConfig
	captioner types.Captioner
	logger    *logging.Logger
}

func NewWithConfig(config LoaderConfig, captioner types.Captioner, logger *logging.Logger) (*Loader, error) {
	if captioner == nil {
		return nil, fmt.Errorf("loader requires a captioner")
	}
	if config.MaxUploadBytes == 0 {
		config.MaxUploadBytes = 50 << 20
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &Loader{
		config:    config,
		captioner: captioner,
		logger:    logger.WithComponent("loader"),
	}, nil
}

// Load dispatches on the document format. Every image found is captioned
// before Load returns; a failed caption fails the whole load. Scratch files
// are removed on every exit path.
func (l *Loader) Load(ctx context.Context, doc models.UploadedDocument) (*models.ExtractedContent, error) {
	format := doc.Format
	if format == "" {
		format = models.DetectFormat(doc.Name)
	}
	if format == models.FormatUnsupported {
		l.logger.Warn().Str("name", doc.Name).Msg("unsupported file format")
		return nil, models.UnsupportedFormatError(doc.Name)
	}
	if doc.Content == nil {
		return nil, models.ValidationError("document has no content", nil)
	}

	data, err := l.readUpload(doc.Content)
	if err != nil {
		return nil, err
	}

	scratch, err := newScratch(l.config.ScratchDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := scratch.Cleanup(); err != nil {
			l.logger.Warn().Err(err).Msg("failed to remove scratch directory")
		}
	}()

	collector := &captionCollector{
		captioner: l.captioner,
		scratch:   scratch,
		logger:    l.logger,
		captions:  []string{},
	}

	var content *models.ExtractedContent
	switch format {
	case models.FormatPDF:
		content, err = l.loadPDF(ctx, data, collector)
	case models.FormatDOCX:
		content, err = l.loadDOCX(ctx, data, collector)
	case models.FormatTXT:
		content, err = loadText(data)
	default:
		return nil, models.UnsupportedFormatError(doc.Name)
	}
	if err != nil {
		return nil, err
	}

	content.Source = doc.Name
	content.Format = format
	content.ImageCaptions = collector.captions

	l.logger.Info().
		Str("name", doc.Name).
		Str("format", string(format)).
		Int("chars", len(content.Text)).
		Int("images", len(content.ImageCaptions)).
		Msg("document loaded")

	return content, nil
}

// LoadFile opens path and loads it under its base name.
func (l *Loader) LoadFile(ctx context.Context, path string) (*models.ExtractedContent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.IOError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	return l.Load(ctx, models.NewUploadedDocument(filepath.Base(path), f))
}

func (l *Loader) readUpload(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.config.MaxUploadBytes+1))
	if err != nil {
		return nil, models.IOError("failed to read upload", err)
	}
	if int64(len(data)) > l.config.MaxUploadBytes {
		return nil, models.ValidationError(
			fmt.Sprintf("upload exceeds %d bytes", l.config.MaxUploadBytes), nil)
	}
	return data, nil
}
