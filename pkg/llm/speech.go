package llm

import (
	"context"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/xhad/docintel/internal/models"
)

// SpeechConfig represents the configuration for text-to-speech.
type SpeechConfig struct {
	Model string
	Voice string
	Speed float64
}

// SpeechSynthesizer renders text to mp3 audio.
type SpeechSynthesizer struct {
	config SpeechConfig
	client SpeechClient
}

func NewSpeechSynthesizer(client SpeechClient, config SpeechConfig) *SpeechSynthesizer {
	if config.Model == "" {
		config.Model = string(openai.TTSModel1)
	}
	if config.Voice == "" {
		config.Voice = string(openai.VoiceAlloy)
	}
	if config.Speed == 0 {
		config.Speed = 1.0
	}
	return &SpeechSynthesizer{config: config, client: client}
}

// Synthesize writes the spoken form of text to w as mp3.
func (s *SpeechSynthesizer) Synthesize(ctx context.Context, text string, w io.Writer) error {
	if strings.TrimSpace(text) == "" {
		return models.ValidationError("no text to synthesize", nil)
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.config.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.config.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          s.config.Speed,
	})
	if err != nil {
		return models.InferenceError("speech request failed", err)
	}
	defer resp.Close()

	if _, err := io.Copy(w, resp); err != nil {
		return models.IOError("failed to write audio", err)
	}
	return nil
}
