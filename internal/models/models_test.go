package models_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xhad/docintel/internal/models"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		want models.Format
	}{
		{"report.pdf", models.FormatPDF},
		{"REPORT.PDF", models.FormatPDF},
		{"letter.docx", models.FormatDOCX},
		{"notes.txt", models.FormatTXT},
		{"notes.csv", models.FormatUnsupported},
		{"archive.doc", models.FormatUnsupported},
		{"noextension", models.FormatUnsupported},
		{"", models.FormatUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, models.DetectFormat(tt.name))
		})
	}
}

func TestParseSentimentLabel(t *testing.T) {
	label, ok := models.ParseSentimentLabel(" positive ")
	assert.True(t, ok)
	assert.Equal(t, models.SentimentPositive, label)

	label, ok = models.ParseSentimentLabel("Negative.")
	assert.True(t, ok)
	assert.Equal(t, models.SentimentNegative, label)

	_, ok = models.ParseSentimentLabel("ecstatic")
	assert.False(t, ok)
}

func TestUnsupportedFormatError(t *testing.T) {
	err := fmt.Errorf("load: %w", models.UnsupportedFormatError("notes.csv"))

	assert.True(t, errors.Is(err, models.ErrUnsupportedFormat))
	assert.Equal(t, models.ErrorTypeUnsupportedFormat, models.ErrorTypeOf(err))
	assert.Equal(t, "Unsupported file format.", models.UserMessage(err))
}

func TestUserMessage(t *testing.T) {
	err := models.ValidationError("text is empty", nil)
	assert.Equal(t, "text is empty", models.UserMessage(err))
	assert.Equal(t, "[validation] text is empty", err.Error())

	plain := errors.New("boom")
	assert.Equal(t, "boom", models.UserMessage(plain))
	assert.Equal(t, models.ErrorType(""), models.ErrorTypeOf(plain))
}

func TestArtifactKinds(t *testing.T) {
	assert.Equal(t, "summary.txt", models.ArtifactSummary.DownloadName())
	assert.Equal(t, "output_audio.mp3", models.ArtifactAudio.DownloadName())
	assert.Equal(t, "audio/mpeg", models.ArtifactAudio.MIMEType())
	assert.Equal(t, ".txt", models.ArtifactSummary.Ext())

	now := time.Now()
	a := &models.Artifact{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, a.Expired(now))
	assert.True(t, a.Expired(now.Add(time.Minute)))
	assert.False(t, (&models.Artifact{}).Expired(now))
}
