package models

import (
	"strings"
	"time"
)

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "POSITIVE"
	SentimentNegative SentimentLabel = "NEGATIVE"
	SentimentNeutral  SentimentLabel = "NEUTRAL"
)

// ParseSentimentLabel normalizes a model-produced label. It reports false for
// anything outside the fixed label set.
func ParseSentimentLabel(s string) (SentimentLabel, bool) {
	switch SentimentLabel(normalizeLabel(s)) {
	case SentimentPositive:
		return SentimentPositive, true
	case SentimentNegative:
		return SentimentNegative, true
	case SentimentNeutral:
		return SentimentNeutral, true
	}
	return "", false
}

func normalizeLabel(s string) string {
	return strings.ToUpper(strings.Trim(strings.TrimSpace(s), `."'`))
}

type SentimentResult struct {
	Label SentimentLabel `json:"label"`
	Score float64        `json:"score"`
}

type SummaryResult struct {
	SummaryText string    `json:"summary"`
	Chunks      int       `json:"chunks"`
	Artifact    *Artifact `json:"artifact,omitempty"`
}

type ArtifactKind string

const (
	ArtifactSummary ArtifactKind = "summary"
	ArtifactAudio   ArtifactKind = "audio"
)

// DownloadName is the file name offered to the user for an artifact kind.
func (k ArtifactKind) DownloadName() string {
	switch k {
	case ArtifactSummary:
		return "summary.txt"
	case ArtifactAudio:
		return "output_audio.mp3"
	}
	return string(k)
}

func (k ArtifactKind) MIMEType() string {
	switch k {
	case ArtifactSummary:
		return "text/plain; charset=utf-8"
	case ArtifactAudio:
		return "audio/mpeg"
	}
	return "application/octet-stream"
}

func (k ArtifactKind) Ext() string {
	switch k {
	case ArtifactSummary:
		return ".txt"
	case ArtifactAudio:
		return ".mp3"
	}
	return ".bin"
}

// Artifact is a generated output file. Path is unique per artifact.
type Artifact struct {
	ID           string       `json:"id"`
	Kind         ArtifactKind `json:"kind"`
	DownloadName string       `json:"download_name"`
	Path         string       `json:"-"`
	MIMEType     string       `json:"mime_type"`
	Size         int64        `json:"size"`
	CreatedAt    time.Time    `json:"created_at"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

func (a *Artifact) Expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt)
}
