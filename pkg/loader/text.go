package loader

import (
	"unicode/utf8"

	"github.com/xhad/docintel/internal/models"
)

// loadText returns the upload verbatim. Plain text documents have no images.
func loadText(data []byte) (*models.ExtractedContent, error) {
	if !utf8.Valid(data) {
		return nil, models.ExtractionError("text file is not valid UTF-8", nil)
	}
	return &models.ExtractedContent{Text: string(data)}, nil
}
