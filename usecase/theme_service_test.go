package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/arunika/sttconsole/adapters/preferences"
	"github.com/satriahrh/arunika/sttconsole/domain/entities"
)

// failingPrefs fails every save
type failingPrefs struct {
	stored *entities.Preferences
}

func (f *failingPrefs) Load(ctx context.Context) (*entities.Preferences, error) {
	return f.stored, nil
}

func (f *failingPrefs) Save(ctx context.Context, prefs *entities.Preferences) error {
	return errors.New("disk full")
}

func TestThemeService_InitialMode(t *testing.T) {
	tests := []struct {
		name          string
		stored        *entities.Preferences
		systemDefault entities.ColorMode
		want          entities.ColorMode
	}{
		{"default is dark", nil, "", entities.ColorModeDark},
		{"system default", nil, entities.ColorModeLight, entities.ColorModeLight},
		{"invalid system default", nil, "sepia", entities.ColorModeDark},
		{"stored wins", &entities.Preferences{ColorMode: entities.ColorModeLight}, entities.ColorModeDark, entities.ColorModeLight},
		{"empty stored mode", &entities.Preferences{}, entities.ColorModeLight, entities.ColorModeLight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewThemeService(context.Background(), &failingPrefs{stored: tt.stored}, tt.systemDefault, zaptest.NewLogger(t))
			if err != nil {
				t.Fatalf("NewThemeService failed: %v", err)
			}
			if svc.Mode() != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, svc.Mode())
			}
		})
	}
}

func TestThemeService_TogglePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	store := preferences.NewYAMLStore(path, zaptest.NewLogger(t))

	svc, err := NewThemeService(ctx, store, "", zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewThemeService failed: %v", err)
	}
	if svc.Palette().Primary != "#90caf9" {
		t.Errorf("Expected dark palette, got %+v", svc.Palette())
	}

	mode, err := svc.Toggle(ctx)
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if mode != entities.ColorModeLight || svc.Palette().Primary != "#1976d2" {
		t.Errorf("Expected light mode after toggle, got %s", mode)
	}

	// A new service sees the persisted choice
	reloaded, err := NewThemeService(ctx, store, entities.ColorModeDark, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewThemeService failed: %v", err)
	}
	if reloaded.Mode() != entities.ColorModeLight {
		t.Errorf("Expected persisted light mode, got %s", reloaded.Mode())
	}
}

func TestThemeService_SetMode(t *testing.T) {
	ctx := context.Background()
	svc, _ := NewThemeService(ctx, &failingPrefs{}, "", zaptest.NewLogger(t))

	if err := svc.SetMode(ctx, "sepia"); err == nil {
		t.Error("Expected error for invalid mode")
	}
	if svc.Mode() != entities.ColorModeDark {
		t.Error("Invalid mode must not change the current mode")
	}

	if err := svc.SetMode(ctx, entities.ColorModeLight); err == nil {
		t.Error("Expected persist error")
	}
	if svc.Mode() != entities.ColorModeLight {
		t.Error("Mode should change in memory even when persisting fails")
	}
}
