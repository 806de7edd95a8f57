package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dharanesh-gopal/extra-curricular-module/internal/domain/shared"
	"github.com/dharanesh-gopal/extra-curricular-module/pkg/logger"
)

// DefaultPath is where the artifact is persisted when no path is configured.
const DefaultPath = "models/dropout_model.json"

// Store loads, synthesizes, and saves the dropout model artifact.
//
// Arena-style lifecycle: Load runs once at startup, after which the artifact
// pointer never changes and request threads only read it. Save writes the
// current artifact; it never mutates it.
type Store struct {
	path string
	log  *logger.Logger

	mu       sync.RWMutex
	artifact *Artifact
}

// NewStore creates a Store persisting at the given path. An empty path uses
// DefaultPath.
func NewStore(path string, log *logger.Logger) *Store {
	if path == "" {
		path = DefaultPath
	}
	if log == nil {
		log = logger.Default()
	}
	return &Store{path: path, log: log.With(logger.Component("model_store"))}
}

// Load reads the persisted artifact, or synthesizes the default when the
// file is absent or unreadable. After Load returns nil the store is ready.
func (s *Store) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	artifact, err := s.read()
	switch {
	case err == nil:
		s.log.Info("model artifact loaded", logger.String("path", s.path))
	case errors.Is(err, os.ErrNotExist):
		s.log.Info("no persisted model artifact, synthesizing default", logger.String("path", s.path))
		artifact = Synthesize()
	default:
		// A corrupted artifact must not keep the engine from becoming
		// ready; fall back to the synthesized default but surface the cause.
		s.log.Warn("model artifact unreadable, synthesizing default",
			logger.String("path", s.path), logger.Err(err))
		artifact = Synthesize()
	}

	s.mu.Lock()
	s.artifact = artifact
	s.mu.Unlock()
	return nil
}

// read loads and validates the persisted artifact file.
func (s *Store) read() (*Artifact, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, shared.WrapError("model", "Load", shared.ErrModelCorrupted, "failed to decode artifact", err)
	}
	if !artifact.valid() {
		return nil, shared.NewDomainError("model", "Load", shared.ErrModelCorrupted, "artifact has inconsistent shape")
	}
	return &artifact, nil
}

// Ready reports whether an artifact is available. This is the liveness
// signal consumed by the risk engine's readiness probe.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifact != nil
}

// Artifact returns the loaded artifact. Nil until Load has run. Callers must
// treat the result as read-only.
func (s *Store) Artifact() *Artifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifact
}

// Save persists the current artifact to disk, creating the parent directory
// if needed.
func (s *Store) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	artifact := s.artifact
	s.mu.RUnlock()

	if artifact == nil {
		return shared.NewDomainError("model", "Save", shared.ErrModelNotReady, "no artifact loaded")
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	s.log.Info("model artifact saved", logger.String("path", s.path))
	return nil
}
