package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/xhad/docintel/internal/models"
	"github.com/xhad/docintel/pkg/logging"
)

// Request is a client message. A load carries either Name and Data (the
// file contents, base64 encoded in JSON) or URL.
type Request struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	Data []byte `json:"data,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Message is a server reply.
type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

type DocumentPayload struct {
	Source        string   `json:"source"`
	Format        string   `json:"format"`
	Text          string   `json:"text"`
	ImageCaptions []string `json:"image_captions"`
	PageCount     int      `json:"page_count,omitempty"`
}

type ArtifactPayload struct {
	ID           string    `json:"id"`
	DownloadName string    `json:"download_name"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type SummaryPayload struct {
	Chunks   int             `json:"chunks"`
	Artifact ArtifactPayload `json:"artifact"`
}

// session is one websocket connection. It holds at most one loaded document
// and handles messages one at a time.
type session struct {
	id      string
	server  *Server
	conn    *websocket.Conn
	logger  *logging.Logger
	content *models.ExtractedContent
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	sess := &session{
		id:     id,
		server: s,
		conn:   conn,
		logger: s.logger.WithField("session", id),
	}
	sess.logger.Info().Str("remote", r.RemoteAddr).Msg("session opened")
	sess.run(r.Context())
	sess.logger.Info().Msg("session closed")
}

// run reads on a separate goroutine so that a closed connection cancels the
// work in progress, while messages are still handled in arrival order.
func (sess *session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sess.conn.SetReadLimit(sess.server.config.MaxMessageBytes)

	incoming := make(chan []byte)
	go func() {
		defer close(incoming)
		defer cancel()
		for {
			_, data, err := sess.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					sess.logger.Debug().Err(err).Msg("read failed")
				}
				return
			}
			select {
			case incoming <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	sess.send("status", "Upload a PDF, DOCX, or TXT file to begin.", nil)
	for data := range incoming {
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			sess.send("error", "Malformed message.", nil)
			continue
		}
		sess.handle(ctx, req)
	}
}

func (sess *session) handle(ctx context.Context, req Request) {
	switch req.Type {
	case "load":
		sess.load(ctx, req)
	case "summarize":
		sess.summarize(ctx)
	case "sentiment":
		sess.sentiment(ctx)
	case "audio":
		sess.audio(ctx)
	default:
		sess.send("error", fmt.Sprintf("Unknown message type %q.", req.Type), nil)
	}
}

func (sess *session) load(ctx context.Context, req Request) {
	// A new upload replaces the current document, successful or not
	sess.content = nil

	var (
		content *models.ExtractedContent
		err     error
	)
	switch {
	case req.URL != "":
		sess.send("status", fmt.Sprintf("Fetching %s...", req.URL), nil)
		content, err = sess.server.workbench.LoadURL(ctx, req.URL)
	case req.Name != "":
		sess.send("status", fmt.Sprintf("Processing %s...", req.Name), nil)
		content, err = sess.server.workbench.Load(ctx, models.NewUploadedDocument(req.Name, bytes.NewReader(req.Data)))
	default:
		sess.send("error", "A load needs a file name and data, or a URL.", nil)
		return
	}

	if err != nil {
		if errors.Is(err, models.ErrUnsupportedFormat) {
			sess.send("error", models.UnsupportedUploadPrompt, nil)
			return
		}
		sess.fail("load", err)
		return
	}

	sess.content = content
	sess.send("document", fmt.Sprintf("Loaded %s.", content.Source), DocumentPayload{
		Source:        content.Source,
		Format:        string(content.Format),
		Text:          content.Text,
		ImageCaptions: content.ImageCaptions,
		PageCount:     content.PageCount,
	})
}

func (sess *session) summarize(ctx context.Context) {
	if !sess.requireDocument() {
		return
	}
	sess.send("status", "Summarizing...", nil)

	result, err := sess.server.workbench.Summarize(ctx, sess.content)
	if err != nil {
		sess.fail("summarize", err)
		return
	}
	sess.send("summary", result.SummaryText, SummaryPayload{
		Chunks:   result.Chunks,
		Artifact: artifactPayload(result.Artifact),
	})
}

func (sess *session) sentiment(ctx context.Context) {
	if !sess.requireDocument() {
		return
	}
	sess.send("status", "Analyzing sentiment...", nil)

	result, err := sess.server.workbench.AnalyzeSentiment(ctx, sess.content)
	if err != nil {
		sess.fail("sentiment", err)
		return
	}
	sess.send("sentiment", fmt.Sprintf("Sentiment: %s (Confidence: %.2f%%)", result.Label, result.Score*100), result)
}

func (sess *session) audio(ctx context.Context) {
	if !sess.requireDocument() {
		return
	}
	sess.send("status", "Converting to audio...", nil)

	artifact, err := sess.server.workbench.ConvertToAudio(ctx, sess.content)
	if err != nil {
		sess.fail("audio", err)
		return
	}
	sess.send("audio", "Audio ready.", artifactPayload(artifact))
}

func (sess *session) requireDocument() bool {
	if sess.content == nil {
		sess.send("error", "Load a document first.", nil)
		return false
	}
	return true
}

func (sess *session) fail(action string, err error) {
	sess.logger.Error().Err(err).Str("action", action).Str("type", string(models.ErrorTypeOf(err))).Msg("request failed")
	sess.send("error", models.UserMessage(err), nil)
}

func (sess *session) send(msgType, content string, data interface{}) {
	msg := Message{
		Type:    msgType,
		Content: content,
		Data:    data,
	}
	sess.conn.SetWriteDeadline(time.Now().Add(sess.server.config.WriteTimeout))
	if err := sess.conn.WriteJSON(msg); err != nil {
		sess.logger.Debug().Err(err).Str("type", msgType).Msg("failed to send message")
	}
}

func artifactPayload(a *models.Artifact) ArtifactPayload {
	return ArtifactPayload{
		ID:           a.ID,
		DownloadName: a.DownloadName,
		URL:          artifactURL(a),
		Size:         a.Size,
		ExpiresAt:    a.ExpiresAt,
	}
}
