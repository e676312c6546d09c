package repositories

import (
	"context"

	"github.com/satriahrh/arunika/sttconsole/domain/entities"
)

// TranscriptRepository archives finished capture sessions
type TranscriptRepository interface {
	Save(ctx context.Context, record *entities.TranscriptRecord) error
	GetByID(ctx context.Context, id string) (*entities.TranscriptRecord, error)
	// ListRecent returns up to limit records, newest first
	ListRecent(ctx context.Context, limit int) ([]*entities.TranscriptRecord, error)
}

// PreferenceRepository persists user preferences
type PreferenceRepository interface {
	// Load returns nil, nil when nothing has been stored yet
	Load(ctx context.Context) (*entities.Preferences, error)
	Save(ctx context.Context, prefs *entities.Preferences) error
}
