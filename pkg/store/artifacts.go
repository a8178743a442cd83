package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xhad/docintel/internal/models"
	"github.com/xhad/docintel/pkg/logging"
)

const (
	DefaultArtifactTTL     = 24 * time.Hour
	DefaultCleanupInterval = time.Hour
)

var ErrArtifactNotFound = errors.New("artifact not found")

type ArtifactStoreConfig struct {
	Dir string
	TTL time.Duration
	Now func() time.Time
}

// ArtifactStore keeps generated files on disk under unique names and
// forgets them once they expire.
type ArtifactStore struct {
	config ArtifactStoreConfig
	logger *logging.Logger

	mu        sync.RWMutex
	artifacts map[string]*models.Artifact
}

func NewWithConfig(config ArtifactStoreConfig, logger *logging.Logger) (*ArtifactStore, error) {
	if config.Dir == "" {
		config.Dir = filepath.Join(os.TempDir(), "docintel-artifacts")
	}
	if config.TTL == 0 {
		config.TTL = DefaultArtifactTTL
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = logging.Nop()
	}

	if err := os.MkdirAll(config.Dir, 0o755); err != nil {
		return nil, models.IOError("failed to create artifact directory", err)
	}

	return &ArtifactStore{
		config:    config,
		logger:    logger.WithComponent("artifacts"),
		artifacts: make(map[string]*models.Artifact),
	}, nil
}

// Save copies r into a new artifact of the given kind.
func (s *ArtifactStore) Save(kind models.ArtifactKind, r io.Reader) (*models.Artifact, error) {
	id := uuid.NewString()
	path := filepath.Join(s.config.Dir, fmt.Sprintf("%s-%s%s", kind, id, kind.Ext()))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, models.IOError("failed to create artifact", err)
	}

	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, models.IOError("failed to write artifact", err)
	}

	now := s.config.Now()
	artifact := &models.Artifact{
		ID:           id,
		Kind:         kind,
		DownloadName: kind.DownloadName(),
		Path:         path,
		MIMEType:     kind.MIMEType(),
		Size:         size,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.config.TTL),
	}

	s.mu.Lock()
	s.artifacts[id] = artifact
	s.mu.Unlock()

	s.logger.Debug().Str("id", id).Str("kind", string(kind)).Int64("size", size).Msg("artifact saved")

	copied := *artifact
	return &copied, nil
}

// Get returns the metadata of a live artifact.
func (s *ArtifactStore) Get(id string) (*models.Artifact, error) {
	s.mu.RLock()
	artifact, ok := s.artifacts[id]
	s.mu.RUnlock()

	if !ok || artifact.Expired(s.config.Now()) {
		return nil, ErrArtifactNotFound
	}
	copied := *artifact
	return &copied, nil
}

// Open returns a reader over a live artifact's contents.
func (s *ArtifactStore) Open(id string) (io.ReadCloser, *models.Artifact, error) {
	artifact, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(artifact.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrArtifactNotFound
		}
		return nil, nil, models.IOError("failed to open artifact", err)
	}
	return f, artifact, nil
}

func (s *ArtifactStore) Remove(id string) error {
	s.mu.Lock()
	artifact, ok := s.artifacts[id]
	delete(s.artifacts, id)
	s.mu.Unlock()

	if !ok {
		return ErrArtifactNotFound
	}
	if err := os.Remove(artifact.Path); err != nil && !os.IsNotExist(err) {
		return models.IOError("failed to remove artifact", err)
	}
	return nil
}

// StartCleaner removes expired artifacts every interval until ctx is done.
func (s *ArtifactStore) StartCleaner(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	go s.cleanupLoop(ctx, interval)
}

func (s *ArtifactStore) cleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed, err := s.CleanupExpired(); err != nil {
				s.logger.Warn().Err(err).Msg("artifact cleanup failed")
			} else if removed > 0 {
				s.logger.Info().Int("removed", removed).Msg("expired artifacts removed")
			}
		}
	}
}

// CleanupExpired deletes expired artifacts, plus leftover artifact files
// from earlier runs that are older than the TTL. It returns how many files
// were removed.
func (s *ArtifactStore) CleanupExpired() (int, error) {
	now := s.config.Now()

	s.mu.Lock()
	var expired []*models.Artifact
	for id, artifact := range s.artifacts {
		if artifact.Expired(now) {
			expired = append(expired, artifact)
			delete(s.artifacts, id)
		}
	}
	known := make(map[string]bool, len(s.artifacts))
	for _, artifact := range s.artifacts {
		known[artifact.Path] = true
	}
	s.mu.Unlock()

	removed := 0
	for _, artifact := range expired {
		if err := os.Remove(artifact.Path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", artifact.Path).Msg("failed to remove artifact")
			continue
		}
		removed++
	}

	entries, err := os.ReadDir(s.config.Dir)
	if err != nil {
		return removed, models.IOError("failed to list artifact directory", err)
	}
	for _, entry := range entries {
		path := filepath.Join(s.config.Dir, entry.Name())
		if entry.IsDir() || known[path] || !isArtifactFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil || now.Sub(info.ModTime()) < s.config.TTL {
			continue
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
	}

	return removed, nil
}

func isArtifactFile(name string) bool {
	for _, kind := range []models.ArtifactKind{models.ArtifactSummary, models.ArtifactAudio} {
		if strings.HasPrefix(name, string(kind)+"-") && strings.HasSuffix(name, kind.Ext()) {
			return true
		}
	}
	return false
}
