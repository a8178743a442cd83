package loader

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gen2brain/go-fitz"
	"github.com/xhad/docintel/internal/models"
)

// loadPDF concatenates page text in page order with no separator between
// pages. Images are taken from MuPDF's structured-text HTML, where each one
// appears as an <img> carrying a data URI.
func (l *Loader) loadPDF(ctx context.Context, data []byte, collector *captionCollector) (*models.ExtractedContent, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, models.ExtractionError("failed to open PDF", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	var text strings.Builder

	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		pageText, err := doc.Text(pageNum)
		if err != nil {
			return nil, models.ExtractionError(fmt.Sprintf("failed to extract text from page %d", pageNum+1), err)
		}
		text.WriteString(pageText)

		html, err := doc.HTML(pageNum, false)
		if err != nil {
			return nil, models.ExtractionError(fmt.Sprintf("failed to render page %d", pageNum+1), err)
		}

		images, err := l.pageImages(html)
		if err != nil {
			return nil, models.ExtractionError(fmt.Sprintf("failed to read images on page %d", pageNum+1), err)
		}

		for _, img := range images {
			if err := collector.collect(ctx, img); err != nil {
				return nil, err
			}
		}

		l.logger.Debug().
			Int("page", pageNum+1).
			Int("images", len(images)).
			Msg("page processed")
	}

	return &models.ExtractedContent{
		Text:      text.String(),
		PageCount: pageCount,
	}, nil
}

// pageImages returns the decoded payload of every inline image in document
// order.
func (l *Loader) pageImages(html string) ([][]byte, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var images [][]byte
	var decodeErr error
	doc.Find("img").EachWithBreak(func(i int, s *goquery.Selection) bool {
		src, ok := s.Attr("src")
		if !ok || !strings.HasPrefix(src, "data:") {
			l.logger.Warn().Int("index", i).Msg("skipping image without inline data")
			return true
		}

		payload, err := decodeDataURI(src)
		if err != nil {
			decodeErr = err
			return false
		}
		images = append(images, payload)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}

	return images, nil
}

// decodeDataURI decodes an RFC 2397 data URI such as
// "data:image/png;base64,iVBOR...".
func decodeDataURI(uri string) ([]byte, error) {
	rest := strings.TrimPrefix(uri, "data:")
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return nil, fmt.Errorf("malformed data URI")
	}

	meta, payload := rest[:comma], rest[comma+1:]
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			return nil, fmt.Errorf("invalid base64 image data: %w", err)
		}
		return data, nil
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid image data: %w", err)
	}
	return []byte(decoded), nil
}
