package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/satriahrh/arunika/sttconsole/domain"
	"github.com/satriahrh/arunika/sttconsole/domain/entities"
	"github.com/satriahrh/arunika/sttconsole/domain/repositories"
)

const transcriptCollection = "transcripts"

var _ repositories.TranscriptRepository = (*TranscriptRepository)(nil)

// TranscriptRepository archives finished transcripts in MongoDB
type TranscriptRepository struct {
	collection *mongo.Collection
}

// NewTranscriptRepository creates a new MongoDB transcript archive
func NewTranscriptRepository(db *mongo.Database) *TranscriptRepository {
	return &TranscriptRepository{
		collection: db.Collection(transcriptCollection),
	}
}

// EnsureIndexes creates the lookup and ordering indexes
func (r *TranscriptRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "record_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "ended_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create transcript indexes: %w", err)
	}
	return nil
}

// Save implements repositories.TranscriptRepository. Saving an existing id replaces it.
func (r *TranscriptRepository) Save(ctx context.Context, record *entities.TranscriptRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	if err := record.Validate(); err != nil {
		return err
	}

	doc := bson.M{
		"record_id":   record.ID,
		"started_at":  record.StartedAt,
		"ended_at":    record.EndedAt,
		"segments":    record.Segments,
		"model":       record.Model,
		"frames_sent": record.FramesSent,
		"bytes_sent":  record.BytesSent,
	}

	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"record_id": record.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save transcript %s: %w", record.ID, err)
	}
	return nil
}

// GetByID implements repositories.TranscriptRepository
func (r *TranscriptRepository) GetByID(ctx context.Context, id string) (*entities.TranscriptRecord, error) {
	if id == "" {
		return nil, errors.New("record ID cannot be empty")
	}

	var record entities.TranscriptRecord
	err := r.collection.FindOne(ctx, bson.M{"record_id": id}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get transcript %s: %w", id, err)
	}
	return &record, nil
}

// ListRecent implements repositories.TranscriptRepository
func (r *TranscriptRepository) ListRecent(ctx context.Context, limit int) ([]*entities.TranscriptRecord, error) {
	if limit <= 0 {
		return []*entities.TranscriptRecord{}, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "ended_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer cursor.Close(ctx)

	records := []*entities.TranscriptRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode transcripts: %w", err)
	}
	return records, nil
}
