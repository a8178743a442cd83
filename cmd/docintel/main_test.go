package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/docintel/internal/models"
	"github.com/xhad/docintel/pkg/logging"
	"github.com/xhad/docintel/pkg/store"
	"github.com/xhad/docintel/pkg/workbench"
)

type stubLoader struct{}

func (stubLoader) Load(ctx context.Context, doc models.UploadedDocument) (*models.ExtractedContent, error) {
	if doc.Format == models.FormatUnsupported {
		return nil, models.UnsupportedFormatError(doc.Name)
	}
	data, _ := io.ReadAll(doc.Content)
	return &models.ExtractedContent{Source: doc.Name, Format: doc.Format, Text: string(data), ImageCaptions: []string{}}, nil
}

func (l stubLoader) LoadFile(ctx context.Context, path string) (*models.ExtractedContent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.IOError("open", err)
	}
	defer f.Close()
	return l.Load(ctx, models.NewUploadedDocument(filepath.Base(path), f))
}

type stubSummarizer struct{ calls int }

func (s *stubSummarizer) Summarize(ctx context.Context, text string) (string, int, error) {
	s.calls++
	return "tl;dr", 1, nil
}

type stubSentiment struct{ calls int }

func (s *stubSentiment) Analyze(ctx context.Context, text string) (*models.SentimentResult, error) {
	s.calls++
	return &models.SentimentResult{Label: models.SentimentNeutral, Score: 0.5}, nil
}

type stubSpeech struct{}

func (stubSpeech) Synthesize(ctx context.Context, text string, w io.Writer) error {
	_, err := io.WriteString(w, "ID3")
	return err
}

func newTestApp(t *testing.T) (*app, *stubSummarizer, *stubSentiment) {
	t.Helper()
	artifacts, err := store.NewWithConfig(store.ArtifactStoreConfig{Dir: t.TempDir(), TTL: time.Hour}, nil)
	require.NoError(t, err)

	summarizer := &stubSummarizer{}
	sentiment := &stubSentiment{}
	wb, err := workbench.NewWithComponents(workbench.Components{
		Loader:     stubLoader{},
		Summarizer: summarizer,
		Sentiment:  sentiment,
		Speech:     stubSpeech{},
		Artifacts:  artifacts,
	}, nil)
	require.NoError(t, err)

	return &app{logger: logging.Nop(), workbench: wb}, summarizer, sentiment
}

func TestFormatCaptions(t *testing.T) {
	assert.Equal(t, "", formatCaptions(nil))
	assert.Equal(t, "Image 1: a cat\nImage 2: a dog\n", formatCaptions([]string{"a cat", "a dog"}))
}

func TestFormatSentiment(t *testing.T) {
	got := formatSentiment(&models.SentimentResult{Label: models.SentimentPositive, Score: 0.98765})
	assert.Equal(t, "Sentiment: POSITIVE (Confidence: 98.77%)", got)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t,
		"The uploaded file format is unsupported. Please upload a PDF, DOCX, or TXT file.",
		errorMessage(models.UnsupportedFormatError("notes.csv")))
	assert.Equal(t, "no document loaded", errorMessage(models.ValidationError("no document loaded", nil)))
}

func TestOpenUnsupportedFile(t *testing.T) {
	a, _, _ := newTestApp(t)

	path := filepath.Join(t.TempDir(), "notes.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b"), 0644))

	content, err := a.open(context.Background(), path)
	assert.Nil(t, content)
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
}

func TestSpeakWritesAudio(t *testing.T) {
	a, _, _ := newTestApp(t)

	out := filepath.Join(t.TempDir(), "speech.mp3")
	path, err := a.speak(context.Background(), &models.ExtractedContent{Text: "hello"}, out)
	require.NoError(t, err)
	assert.Equal(t, out, path)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "ID3", string(data))
}

func TestShell(t *testing.T) {
	a, summarizer, sentiment := newTestApp(t)

	in := strings.NewReader("help\n\nsummarize\nsentiment\ncaptions\nbogus\nexit\nsummarize\n")
	err := a.shell(context.Background(), &models.ExtractedContent{Source: "a.txt", Text: "hello"}, in)
	require.NoError(t, err)

	// Nothing after exit runs
	assert.Equal(t, 1, summarizer.calls)
	assert.Equal(t, 1, sentiment.calls)
}

func TestShellEndOfInput(t *testing.T) {
	a, summarizer, _ := newTestApp(t)

	err := a.shell(context.Background(), &models.ExtractedContent{Text: "hello"}, strings.NewReader("summarize"))
	require.NoError(t, err)
	assert.Equal(t, 1, summarizer.calls)
}

func TestShellCancelWhileWaiting(t *testing.T) {
	a, summarizer, _ := newTestApp(t)

	// Never written, so the read blocks until the pipe is closed
	in, w := io.Pipe()
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.shell(ctx, &models.ExtractedContent{Text: "hello"}, in)
	}()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("shell did not return after cancellation")
	}
	assert.Equal(t, 0, summarizer.calls)
}
