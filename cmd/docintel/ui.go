package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/docintel/internal/models"
)

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(!color.NoColor),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// withSpinner shows a spinner on stderr while fn runs.
func withSpinner(description string, fn func() error) error {
	spinner := getSpinner(description)
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				spinner.Add(1)
			}
		}
	}()

	err := fn()
	close(done)
	<-stopped
	spinner.Finish()
	return err
}

func formatCaptions(captions []string) string {
	var b strings.Builder
	for i, caption := range captions {
		fmt.Fprintf(&b, "Image %d: %s\n", i+1, caption)
	}
	return b.String()
}

func formatSentiment(result *models.SentimentResult) string {
	return fmt.Sprintf("Sentiment: %s (Confidence: %.2f%%)", result.Label, result.Score*100)
}

func printDocument(content *models.ExtractedContent) {
	color.Cyan("\nExtracted Text:")
	fmt.Println(content.Text)

	if len(content.ImageCaptions) == 0 {
		return
	}
	color.Cyan("\nImage Captions:")
	fmt.Print(formatCaptions(content.ImageCaptions))
}

// errorMessage renders err for the terminal. Unsupported uploads get the
// re-upload prompt.
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	if models.ErrorTypeOf(err) == models.ErrorTypeUnsupportedFormat {
		return models.UnsupportedUploadPrompt
	}
	return models.UserMessage(err)
}
