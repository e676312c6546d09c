package usecase

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/satriahrh/arunika/sttconsole/domain/entities"
	"github.com/satriahrh/arunika/sttconsole/domain/repositories"
)

// ThemeService holds the color mode chosen at startup and persists changes
type ThemeService struct {
	repo   repositories.PreferenceRepository
	logger *zap.Logger

	mu   sync.RWMutex
	mode entities.ColorMode
}

// NewThemeService resolves the initial mode: the stored preference, then
// systemDefault, then dark.
func NewThemeService(ctx context.Context, repo repositories.PreferenceRepository, systemDefault entities.ColorMode, logger *zap.Logger) (*ThemeService, error) {
	mode := entities.DefaultColorMode
	if _, err := entities.ParseColorMode(string(systemDefault)); err == nil {
		mode = systemDefault
	}

	stored, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	if stored != nil && stored.ColorMode != "" {
		mode = stored.ColorMode
	}

	logger.Debug("Color mode resolved", zap.String("mode", string(mode)))
	return &ThemeService{repo: repo, logger: logger, mode: mode}, nil
}

// Mode returns the current color mode
func (s *ThemeService) Mode() entities.ColorMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Palette returns the palette of the current mode
func (s *ThemeService) Palette() entities.Palette {
	return entities.PaletteFor(s.Mode())
}

// Toggle flips between light and dark and persists the result
func (s *ThemeService) Toggle(ctx context.Context) (entities.ColorMode, error) {
	s.mu.Lock()
	s.mode = s.mode.Toggle()
	mode := s.mode
	s.mu.Unlock()

	return mode, s.persist(ctx, mode)
}

// SetMode changes the mode and persists it. The in-memory mode changes even
// when persisting fails.
func (s *ThemeService) SetMode(ctx context.Context, mode entities.ColorMode) error {
	if _, err := entities.ParseColorMode(string(mode)); err != nil {
		return err
	}

	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()

	return s.persist(ctx, mode)
}

func (s *ThemeService) persist(ctx context.Context, mode entities.ColorMode) error {
	if err := s.repo.Save(ctx, &entities.Preferences{ColorMode: mode}); err != nil {
		s.logger.Error("Failed to persist color mode", zap.String("mode", string(mode)), zap.Error(err))
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
