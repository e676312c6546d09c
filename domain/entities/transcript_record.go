package entities

import (
	"errors"
	"strings"
	"time"
)

// TranscriptRecord is the archived result of one finished capture session
type TranscriptRecord struct {
	ID         string    `json:"id" bson:"record_id"`
	StartedAt  time.Time `json:"started_at" bson:"started_at"`
	EndedAt    time.Time `json:"ended_at" bson:"ended_at"`
	Segments   []string  `json:"segments" bson:"segments"`
	Model      string    `json:"model" bson:"model"`
	FramesSent int64     `json:"frames_sent" bson:"frames_sent"`
	BytesSent  int64     `json:"bytes_sent" bson:"bytes_sent"`
}

// Text joins the segments with single spaces
func (r *TranscriptRecord) Text() string {
	return strings.Join(r.Segments, " ")
}

// Validate validates the record
func (r *TranscriptRecord) Validate() error {
	if r.ID == "" {
		return errors.New("record id is required")
	}
	if r.EndedAt.Before(r.StartedAt) {
		return errors.New("record ends before it starts")
	}
	return nil
}
