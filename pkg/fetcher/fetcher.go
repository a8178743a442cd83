package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/xhad/docintel/internal/models"
	"github.com/xhad/docintel/pkg/logging"
	"golang.org/x/time/rate"
)

type FetcherConfig struct {
	RateLimit float64 // requests per second
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
}

// Fetcher downloads remote documents so they can be loaded like uploads.
type Fetcher struct {
	config  FetcherConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *logging.Logger
}

func NewWithConfig(config FetcherConfig, logger *logging.Logger) *Fetcher {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}
	if config.MaxBytes == 0 {
		config.MaxBytes = 50 << 20
	}
	if config.UserAgent == "" {
		config.UserAgent = "docintel/1.0"
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &Fetcher{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		logger:  logger.WithComponent("fetcher"),
	}
}

// IsURL reports whether s looks like an http(s) document address.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetch downloads rawURL. The document name comes from Content-Disposition
// when the server sends one, otherwise from the last path segment.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*models.UploadedDocument, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, models.ValidationError(fmt.Sprintf("invalid document URL %q", rawURL), err)
	}

	// Apply rate limiting
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, models.ValidationError("failed to build request", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, models.IOError(fmt.Sprintf("failed to fetch %s", u.Redacted()), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, models.IOError(fmt.Sprintf("received status code %d for URL: %s", resp.StatusCode, u.Redacted()), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, models.IOError("failed to read response body", err)
	}
	if int64(len(data)) > f.config.MaxBytes {
		return nil, models.ValidationError(fmt.Sprintf("document exceeds %d bytes", f.config.MaxBytes), nil)
	}

	finalURL := u
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}
	name := documentName(finalURL, resp.Header)

	f.logger.Info().
		Str("url", u.Redacted()).
		Str("name", name).
		Int("bytes", len(data)).
		Str("content_type", resp.Header.Get("Content-Type")).
		Msg("document fetched")

	doc := models.NewUploadedDocument(name, bytes.NewReader(data))
	return &doc, nil
}

var extensionsByType = map[string]string{
	"application/pdf": ".pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"text/plain": ".txt",
}

func documentName(u *url.URL, header http.Header) string {
	if cd := header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := path.Base(params["filename"]); params["filename"] != "" && name != "." && name != "/" {
				return name
			}
		}
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		name = "download"
	}

	// Fall back to the content type when the path has no extension
	if path.Ext(name) == "" {
		if mediaType, _, err := mime.ParseMediaType(header.Get("Content-Type")); err == nil {
			if ext, ok := extensionsByType[mediaType]; ok {
				name += ext
			}
		}
	}
	return name
}
