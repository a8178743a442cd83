package loader

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xhad/docintel/internal/models"
	"github.com/xhad/docintel/internal/types"
	"github.com/xhad/docintel/pkg/logging"
)

// scratch is a per-load directory for staged images.
type scratch struct {
	dir   string
	count int
}

func newScratch(parent string) (*scratch, error) {
	dir, err := os.MkdirTemp(parent, "docintel-*")
	if err != nil {
		return nil, models.IOError("failed to create scratch directory", err)
	}
	return &scratch{dir: dir}, nil
}

// stage writes data to a fresh file and reports its type and dimensions.
// Dimensions stay zero for formats the image package cannot decode.
func (s *scratch) stage(data []byte) (models.Image, error) {
	s.count++
	mt := mimetype.Detect(data)

	path := filepath.Join(s.dir, fmt.Sprintf("image_%03d%s", s.count, mt.Extension()))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return models.Image{}, models.IOError("failed to stage image", err)
	}

	img := models.Image{
		Index:    s.count,
		Path:     path,
		MIMEType: mt.String(),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		img.Width = cfg.Width
		img.Height = cfg.Height
	}
	return img, nil
}

func (s *scratch) Cleanup() error {
	if s.dir == "" {
		return nil
	}
	err := os.RemoveAll(s.dir)
	s.dir = ""
	return err
}

// captionCollector captions images one at a time in discovery order.
type captionCollector struct {
	captioner types.Captioner
	scratch   *scratch
	logger    *logging.Logger
	captions  []string
}

func (c *captionCollector) collect(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := c.scratch.stage(data)
	if err != nil {
		return err
	}

	caption, err := c.captioner.Caption(ctx, img.Path)
	if err != nil {
		return models.InferenceError(fmt.Sprintf("failed to caption image %d", img.Index), err)
	}

	c.logger.Debug().
		Int("image", img.Index).
		Str("mime", img.MIMEType).
		Int("width", img.Width).
		Int("height", img.Height).
		Msg("image captioned")

	c.captions = append(c.captions, caption)
	return nil
}
