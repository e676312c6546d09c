package preferences

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/satriahrh/arunika/sttconsole/domain/entities"
	"github.com/satriahrh/arunika/sttconsole/domain/repositories"
)

// YAMLStore persists preferences in a YAML file
type YAMLStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewYAMLStore creates a store backed by path. The file is created on first save.
func NewYAMLStore(path string, logger *zap.Logger) repositories.PreferenceRepository {
	return &YAMLStore{path: path, logger: logger}
}

// Load implements repositories.PreferenceRepository
func (s *YAMLStore) Load(ctx context.Context) (*entities.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read preferences %s: %w", s.path, err)
	}

	var prefs entities.Preferences
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("failed to parse preferences %s: %w", s.path, err)
	}
	if prefs.ColorMode != "" {
		if _, err := entities.ParseColorMode(string(prefs.ColorMode)); err != nil {
			s.logger.Warn("Ignoring stored color mode", zap.String("path", s.path), zap.Error(err))
			prefs.ColorMode = ""
		}
	}
	return &prefs, nil
}

// Save implements repositories.PreferenceRepository. The file is replaced atomically.
func (s *YAMLStore) Save(ctx context.Context, prefs *entities.Preferences) error {
	if prefs == nil {
		return errors.New("preferences cannot be nil")
	}

	data, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".preferences-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace preferences %s: %w", s.path, err)
	}

	s.logger.Debug("Preferences saved", zap.String("path", s.path), zap.String("color_mode", string(prefs.ColorMode)))
	return nil
}
