package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xhad/docintel/internal/models"
)

var shellCmd = &cobra.Command{
	Use:   "shell <file|url>",
	Short: "Load a document and run transforms on it interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		content, err := a.open(ctx, args[0])
		if err != nil {
			return err
		}
		printDocument(content)

		return a.shell(ctx, content, cmd.InOrStdin())
	},
}

const shellHelp = `Commands:
  summarize        summarize the document
  sentiment        classify the document's sentiment
  audio [path]     convert the document to mp3
  text             print the extracted text
  captions         print the image captions
  load <file|url>  replace the current document
  help             show this help
  exit             quit`

// shell runs one transform per command until exit or end of input.
func (a *app) shell(ctx context.Context, content *models.ExtractedContent, in io.Reader) error {
	color.Cyan("\nType 'help' for commands, 'exit' to quit")

	lines, scanErr := readLines(ctx, in)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\ndocintel> ")

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				return *scanErr
			}
			line = l
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "exit", "quit":
			return nil
		case "help":
			fmt.Println(shellHelp)
		case "text":
			fmt.Println(content.Text)
		case "captions":
			if len(content.ImageCaptions) == 0 {
				color.Yellow("No images found.")
				continue
			}
			fmt.Print(formatCaptions(content.ImageCaptions))
		case "load":
			if len(fields) < 2 {
				color.Red("Usage: load <file|url>")
				continue
			}
			loaded, err := a.open(ctx, fields[1])
			if err != nil {
				color.Red("%s", errorMessage(err))
				continue
			}
			content = loaded
		case "summarize":
			var result *models.SummaryResult
			err := withSpinner(" Summarizing...", func() error {
				var err error
				result, err = a.workbench.Summarize(ctx, content)
				return err
			})
			if err != nil {
				color.Red("Error: %s", errorMessage(err))
				continue
			}
			assistantPrompt("\nSummary: %s\n", result.SummaryText)
		case "sentiment":
			var result *models.SentimentResult
			err := withSpinner(" Analyzing sentiment...", func() error {
				var err error
				result, err = a.workbench.AnalyzeSentiment(ctx, content)
				return err
			})
			if err != nil {
				color.Red("Error: %s", errorMessage(err))
				continue
			}
			assistantPrompt("\n%s\n", formatSentiment(result))
		case "audio":
			path := ""
			if len(fields) > 1 {
				path = fields[1]
			}
			written, err := a.speak(ctx, content, path)
			if err != nil {
				color.Red("Error: %s", errorMessage(err))
				continue
			}
			color.Green("✓ Audio written to %s", written)
		default:
			color.Yellow("Unknown command %q. Type 'help' for commands.", fields[0])
		}
	}
}

// readLines scans in on its own goroutine so a blocked read never holds up
// cancellation. The error is set before lines is closed.
func readLines(ctx context.Context, in io.Reader) (<-chan string, *error) {
	lines := make(chan string)
	var err error

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		err = scanner.Err()
	}()

	return lines, &err
}
