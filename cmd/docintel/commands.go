package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xhad/docintel/internal/models"
	"github.com/xhad/docintel/internal/types"
	"github.com/xhad/docintel/server"
)

var (
	summaryOutput string
	audioOutput   string
)

var loadCmd = &cobra.Command{
	Use:   "load <file|url>",
	Short: "Extract the text and image captions of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		content, err := a.open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printDocument(content)
		return nil
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file|url>",
	Short: "Summarize a document",
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

		var result *models.SummaryResult
		err = withSpinner(" Summarizing...", func() error {
			result, err = a.workbench.Summarize(ctx, content)
			return err
		})
		if err != nil {
			return err
		}

		color.Cyan("\nSummary:")
		fmt.Println(result.SummaryText)

		if summaryOutput != "" {
			if err := a.export(result.Artifact, summaryOutput); err != nil {
				return err
			}
			color.Green("✓ Summary written to %s", summaryOutput)
		}
		return nil
	},
}

var sentimentCmd = &cobra.Command{
	Use:   "sentiment <file|url>",
	Short: "Classify the sentiment of a document",
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

		var result *models.SentimentResult
		err = withSpinner(" Analyzing sentiment...", func() error {
			result, err = a.workbench.AnalyzeSentiment(ctx, content)
			return err
		})
		if err != nil {
			return err
		}

		fmt.Println(formatSentiment(result))
		return nil
	},
}

var speakCmd = &cobra.Command{
	Use:   "speak <file|url>",
	Short: "Convert a document to mp3 audio",
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

		path, err := a.speak(ctx, content, audioOutput)
		if err != nil {
			return err
		}
		color.Green("✓ Audio written to %s", path)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the websocket server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		a.workbench.StartCleaner(ctx)

		srv := server.NewWithConfig(server.ServerConfig{
			Addr:            a.cfg.Server.Addr,
			MaxMessageBytes: a.cfg.Loader.MaxUploadBytes*4/3 + 4096,
		}, a.workbench, a.logger)
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	summarizeCmd.Flags().StringVarP(&summaryOutput, "output", "o", "", "also write the summary to this path")
	speakCmd.Flags().StringVarP(&audioOutput, "output", "o", "", "output path (default output_audio.mp3)")

	rootCmd.AddCommand(loadCmd, summarizeCmd, sentimentCmd, speakCmd, shellCmd, serveCmd)
}

// open loads a local path or URL behind a spinner.
func (a *app) open(ctx context.Context, target string) (*models.ExtractedContent, error) {
	var content *models.ExtractedContent
	err := withSpinner(" Extracting document...", func() error {
		var err error
		content, err = a.workbench.Open(ctx, target)
		return err
	})
	if err != nil {
		return nil, err
	}
	color.Green("✓ Loaded %s (%d characters, %d images)", content.Source, len([]rune(content.Text)), len(content.ImageCaptions))
	return content, nil
}

// speak synthesizes content and copies the audio artifact to path, or to
// the artifact's download name when path is empty.
func (a *app) speak(ctx context.Context, content *models.ExtractedContent, path string) (string, error) {
	var artifact *models.Artifact
	err := withSpinner(" Converting to audio...", func() error {
		var err error
		artifact, err = a.workbench.ConvertToAudio(ctx, content)
		return err
	})
	if err != nil {
		return "", err
	}

	if path == "" {
		path = artifact.DownloadName
	}
	if err := a.export(artifact, path); err != nil {
		return "", err
	}
	return path, nil
}

// export copies an artifact out of the store.
func (a *app) export(artifact *models.Artifact, path string) error {
	return exportArtifact(a.workbench.Artifacts(), artifact.ID, path)
}

func exportArtifact(artifacts types.ArtifactStore, id, path string) error {
	rc, _, err := artifacts.Open(id)
	if err != nil {
		return err
	}
	defer rc.Close()

	f, err := os.Create(path)
	if err != nil {
		return models.IOError(fmt.Sprintf("failed to create %s", path), err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return models.IOError(fmt.Sprintf("failed to write %s", path), err)
	}
	if err := f.Close(); err != nil {
		return models.IOError(fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}
