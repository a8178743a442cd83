package server

import (
	"context"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/xhad/docintel/internal/models"
	"github.com/xhad/docintel/internal/types"
	"github.com/xhad/docintel/pkg/logging"
	"github.com/xhad/docintel/pkg/store"
)

// Workbench is the document pipeline a session drives. *workbench.Workbench
// satisfies it.
type Workbench interface {
	Load(ctx context.Context, doc models.UploadedDocument) (*models.ExtractedContent, error)
	LoadURL(ctx context.Context, rawURL string) (*models.ExtractedContent, error)
	Summarize(ctx context.Context, content *models.ExtractedContent) (*models.SummaryResult, error)
	AnalyzeSentiment(ctx context.Context, content *models.ExtractedContent) (*models.SentimentResult, error)
	ConvertToAudio(ctx context.Context, content *models.ExtractedContent) (*models.Artifact, error)
	Artifacts() types.ArtifactStore
}

type ServerConfig struct {
	Addr string
	// MaxMessageBytes caps a single websocket message, base64 payload included.
	MaxMessageBytes int64
	WriteTimeout    time.Duration
}

type Server struct {
	config    ServerConfig
	workbench Workbench
	logger    *logging.Logger
	upgrader  websocket.Upgrader
	router    chi.Router
}

func NewWithConfig(config ServerConfig, wb Workbench, logger *logging.Logger) *Server {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.MaxMessageBytes == 0 {
		// 50MB upload after base64 expansion, plus the envelope
		config.MaxMessageBytes = (50<<20)*4/3 + 4096
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Server{
		config:    config,
		workbench: wb,
		logger:    logger.WithComponent("server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Be careful with this in production
			},
		},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"docintel"}`))
	})
	r.Get("/ws", s.handleWebSocket)
	r.Get("/artifacts/{id}", s.handleArtifact)

	return r
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Msg("starting websocket server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info().Msg("shutting down websocket server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rc, artifact, err := s.workbench.Artifacts().Open(id)
	if err != nil {
		if errors.Is(err, store.ErrArtifactNotFound) {
			http.Error(w, "artifact not found", http.StatusNotFound)
			return
		}
		s.logger.Error().Err(err).Str("id", id).Msg("failed to open artifact")
		http.Error(w, "failed to open artifact", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", artifact.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": artifact.DownloadName,
	}))
	w.Header().Set("Content-Length", strconv.FormatInt(artifact.Size, 10))
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn().Err(err).Str("id", id).Msg("artifact download interrupted")
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request handled")
	})
}

// artifactURL is the download path served by handleArtifact.
func artifactURL(a *models.Artifact) string {
	return "/artifacts/" + a.ID
}
