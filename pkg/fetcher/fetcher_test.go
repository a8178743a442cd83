package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/docintel/internal/models"
)

func TestFetch(t *testing.T) {
	// Create a mock server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "docintel/1.0", r.Header.Get("User-Agent"))

		switch r.URL.Path {
		case "/files/notes.txt":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Write([]byte("remote text"))
		case "/download":
			w.Header().Set("Content-Disposition", `attachment; filename="Quarterly Report.PDF"`)
			w.Write([]byte("%PDF-1.4"))
		case "/export":
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
			w.Write([]byte("PK"))
		case "/data.csv":
			w.Write([]byte("a,b,c"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	f := NewWithConfig(FetcherConfig{RateLimit: 100}, nil)

	tests := []struct {
		path       string
		wantName   string
		wantFormat models.Format
	}{
		{"/files/notes.txt", "notes.txt", models.FormatTXT},
		{"/download", "Quarterly Report.PDF", models.FormatPDF},
		{"/export", "export.docx", models.FormatDOCX},
		{"/data.csv", "data.csv", models.FormatUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			doc, err := f.Fetch(context.Background(), server.URL+tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, doc.Name)
			assert.Equal(t, tt.wantFormat, doc.Format)
		})
	}

	doc, err := f.Fetch(context.Background(), server.URL+"/files/notes.txt")
	require.NoError(t, err)
	body, err := io.ReadAll(doc.Content)
	require.NoError(t, err)
	assert.Equal(t, "remote text", string(body))
}

func TestFetchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/big.txt" {
			w.Write(make([]byte, 64))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewWithConfig(FetcherConfig{RateLimit: 100, MaxBytes: 16}, nil)

	_, err := f.Fetch(context.Background(), server.URL+"/missing.pdf")
	require.Error(t, err)
	assert.Equal(t, models.ErrorTypeIO, models.ErrorTypeOf(err))
	assert.Contains(t, err.Error(), "404")

	_, err = f.Fetch(context.Background(), server.URL+"/big.txt")
	assert.Equal(t, models.ErrorTypeValidation, models.ErrorTypeOf(err))

	for _, bad := range []string{"ftp://example.com/a.pdf", "not a url", "http://"} {
		_, err = f.Fetch(context.Background(), bad)
		assert.Equal(t, models.ErrorTypeValidation, models.ErrorTypeOf(err), bad)
	}
}

func TestFetchHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewWithConfig(FetcherConfig{}, nil).Fetch(ctx, server.URL+"/slow.txt")
	assert.Error(t, err)
}

func TestDocumentName(t *testing.T) {
	tests := []struct {
		rawURL string
		header http.Header
		want   string
	}{
		{"https://example.com/a/b/report.pdf", http.Header{}, "report.pdf"},
		{"https://example.com/", http.Header{}, "download"},
		{"https://example.com/", http.Header{"Content-Type": {"text/plain"}}, "download.txt"},
		{"https://example.com/x", http.Header{"Content-Disposition": {`inline; filename="../../etc/passwd.txt"`}}, "passwd.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.rawURL, func(t *testing.T) {
			u, err := url.Parse(tt.rawURL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, documentName(u, tt.header))
		})
	}
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/a.pdf"))
	assert.True(t, IsURL("http://example.com/a.pdf"))
	assert.False(t, IsURL("./docs/a.pdf"))
	assert.False(t, IsURL("ftp://example.com/a.pdf"))
}
