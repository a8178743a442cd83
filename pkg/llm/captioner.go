package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/tmc/langchaingo/llms"
	"github.com/xhad/docintel/internal/models"
)

const defaultCaptionPrompt = "Write a one-sentence caption describing this image. Reply with the caption only."

// CaptionerConfig represents the configuration for image captioning.
type CaptionerConfig struct {
	Prompt    string
	MaxTokens int
}

// Captioner describes images with a vision-capable model.
type Captioner struct {
	config CaptionerConfig
	llm    llms.Model
}

func NewCaptioner(model llms.Model, config CaptionerConfig) *Captioner {
	if config.Prompt == "" {
		config.Prompt = defaultCaptionPrompt
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 60
	}
	return &Captioner{config: config, llm: model}
}

// Caption reads the image at imagePath and returns a short description.
func (c *Captioner) Caption(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", models.IOError("failed to read staged image", err)
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart(mimetype.Detect(data).String(), data),
				llms.TextPart(c.config.Prompt),
			},
		},
	}

	resp, err := c.llm.GenerateContent(ctx, content,
		llms.WithMaxTokens(c.config.MaxTokens),
		llms.WithTemperature(0),
	)
	if err != nil {
		return "", models.InferenceError("caption request failed", err)
	}

	caption, err := firstChoice(resp)
	if err != nil {
		return "", err
	}
	return caption, nil
}

func firstChoice(resp *llms.ContentResponse) (string, error) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", models.InferenceError("no response from model", nil)
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", models.InferenceError(fmt.Sprintf("empty response from model (stop reason %q)", resp.Choices[0].StopReason), nil)
	}
	return text, nil
}
