package api

import (
	"github.com/satriahrh/arunika/sttconsole/domain/entities"
	"github.com/satriahrh/arunika/sttconsole/internal/audio"
	"github.com/satriahrh/arunika/sttconsole/usecase"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// StatusResponse is the status bar of the console
type StatusResponse struct {
	usecase.STTStatus
	Line string `json:"line"`
}

// LogsResponse wraps the log book
type LogsResponse struct {
	Entries []entities.LogEntry `json:"entries"`
}

// WaveformResponse is the envelope of the latest captured buffer
type WaveformResponse struct {
	Width   int            `json:"width"`
	Columns []audio.Column `json:"columns"`
}

// TranscriptsResponse lists archived transcripts
type TranscriptsResponse struct {
	Transcripts []*entities.TranscriptRecord `json:"transcripts"`
}

// ThemeRequest sets the color mode
type ThemeRequest struct {
	Mode string `json:"mode"`
}

// ThemeResponse is the current color mode and its palette
type ThemeResponse struct {
	Mode    entities.ColorMode `json:"mode"`
	Palette entities.Palette   `json:"palette"`
}

// ReplyResponse is the model's answer on the LLM page
type ReplyResponse struct {
	Model string `json:"model"`
	Reply string `json:"reply"`
}
