package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/xhad/docintel/internal/models"
)

const sentimentSystemPrompt = `Classify the overall sentiment of the user's text.
Respond with a JSON object of the form {"label": "POSITIVE" | "NEGATIVE" | "NEUTRAL", "score": <confidence between 0 and 1>}.`

// SentimentAnalyzer classifies whole documents with the text model.
type SentimentAnalyzer struct {
	llm llms.Model
}

func NewSentimentAnalyzer(model llms.Model) *SentimentAnalyzer {
	return &SentimentAnalyzer{llm: model}
}

type sentimentReply struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Analyze sends the text as a single unit and returns the top label.
func (a *SentimentAnalyzer) Analyze(ctx context.Context, text string) (*models.SentimentResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.ValidationError("no text to analyze", nil)
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, sentimentSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, text),
	}

	resp, err := a.llm.GenerateContent(ctx, content,
		llms.WithJSONMode(),
		llms.WithTemperature(0),
		llms.WithMaxTokens(64),
	)
	if err != nil {
		return nil, models.InferenceError("sentiment request failed", err)
	}

	raw, err := firstChoice(resp)
	if err != nil {
		return nil, err
	}

	return parseSentiment(raw)
}

func parseSentiment(raw string) (*models.SentimentResult, error) {
	raw = stripCodeFence(raw)

	var reply sentimentReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, models.ValidationError("model returned malformed sentiment", err)
	}

	label, ok := models.ParseSentimentLabel(reply.Label)
	if !ok {
		return nil, models.ValidationError(fmt.Sprintf("model returned unknown sentiment label %q", reply.Label), nil)
	}

	return &models.SentimentResult{
		Label: label,
		Score: clampScore(reply.Score),
	}, nil
}

func clampScore(score float64) float64 {
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// stripCodeFence removes a ```json ... ``` wrapper some models add even in
// JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
