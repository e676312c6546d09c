package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/arunika/sttconsole/domain"
	"github.com/satriahrh/arunika/sttconsole/domain/entities"
	"github.com/satriahrh/arunika/sttconsole/domain/repositories"
	"github.com/satriahrh/arunika/sttconsole/internal/audio"
	"github.com/satriahrh/arunika/sttconsole/internal/capture"
	"github.com/satriahrh/arunika/sttconsole/internal/metrics"
	"github.com/satriahrh/arunika/sttconsole/internal/websocket"
	"github.com/satriahrh/arunika/sttconsole/internal/worker"
)

const (
	// MetaKindLevel is the periodic input level metadata
	MetaKindLevel = "level"

	wireEncoding = "pcm_s16le"
	closeWait    = 2 * time.Second
)

// STTConfig configures an STTService
type STTConfig struct {
	BackendURL    string
	Device        repositories.DeviceConfig
	Model         string
	MetaInterval  time.Duration
	SendQueueSize int
}

// STTStatus is the status line of the console
type STTStatus struct {
	Running   bool                     `json:"running"`
	Backend   entities.ConnectionState `json:"backend"`
	Error     string                   `json:"error,omitempty"`
	Model     string                   `json:"model"`
	SessionID string                   `json:"session_id,omitempty"`
	Stats     domain.StatsSnapshot     `json:"stats"`
	Level     audio.Level              `json:"level"`
}

// Line renders the status the way the console prints it
func (s STTStatus) Line() string {
	state := "Idle"
	if s.Running {
		state = "Capturing"
	}
	return fmt.Sprintf("Status: %s | Backend: %s | Model: %s", state, s.Backend, s.Model)
}

// TranscriptView is a copy of the transcript state
type TranscriptView struct {
	Finals  []string `json:"finals"`
	Partial string   `json:"partial"`
}

// STTService owns one streaming session at a time: capture, transport and the
// state rendered by the console (connection, transcript, logs, level, waveform).
type STTService struct {
	opener  repositories.DeviceOpener
	archive repositories.TranscriptRepository
	config  STTConfig
	metrics *metrics.Metrics
	logger  *zap.Logger

	transcript *entities.Transcript
	logs       *entities.LogBook
	snapshot   *audio.Snapshot

	mu        sync.Mutex
	run       uint64
	running   bool
	connState entities.ConnectionState
	errText   string
	level     audio.Level
	sessionID string
	startedAt time.Time
	client    *websocket.Client
	capture   *capture.Session
	levelTask *worker.PeriodicTask
}

// NewSTTService creates an idle service. archive may be nil.
func NewSTTService(
	opener repositories.DeviceOpener,
	archive repositories.TranscriptRepository,
	config STTConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *STTService {
	if config.MetaInterval <= 0 {
		config.MetaInterval = time.Second
	}
	return &STTService{
		opener:     opener,
		archive:    archive,
		config:     config,
		metrics:    m,
		logger:     logger,
		transcript: entities.NewTranscript(),
		logs:       entities.NewLogBook(entities.DefaultLogCapacity),
		snapshot:   audio.NewSnapshot(),
		connState:  entities.ConnectionDisconnected,
	}
}

// Start connects to the backend and begins capturing. It returns once capture
// is running, or with the device error. Starting a running session is a no-op.
func (s *STTService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.run++
	run := s.run
	s.running = true
	s.connState = entities.ConnectionConnecting
	s.errText = ""
	s.level = audio.Level{}
	s.sessionID = uuid.NewString()
	s.startedAt = time.Now()
	sessionID := s.sessionID
	s.transcript.Reset()
	s.snapshot.Reset()

	logger := s.logger.With(zap.String("session_id", sessionID))
	client := websocket.NewClient(websocket.ClientConfig{
		URL:          s.config.BackendURL,
		MetaInterval: s.config.MetaInterval,
		QueueSize:    s.config.SendQueueSize,
		Metrics:      s.metrics,
		Hello: map[string]any{
			"sessionId":  sessionID,
			"sampleRate": s.config.Device.SampleRate,
			"bufferSize": s.config.Device.BufferSize,
			"channels":   1,
			"encoding":   wireEncoding,
			"model":      s.config.Model,
		},
	}, s.transportHandlers(run), logger)
	s.client = client
	s.mu.Unlock()

	client.Connect(context.WithoutCancel(ctx))

	session := capture.NewSession(s.opener, capture.Options{
		Device:  s.config.Device,
		Framer:  audio.NewFramer(s.snapshot, s.setLevel),
		Sink:    func(frame audio.Frame) { client.SendAudioFrame(frame) },
		Metrics: s.metrics,
	}, logger)

	if err := session.Start(ctx); err != nil {
		client.Close()
		s.mu.Lock()
		if s.run == run {
			s.running = false
			s.client = nil
			s.errText = err.Error()
		}
		s.mu.Unlock()
		logger.Error("Failed to start streaming session", zap.Error(err))
		return err
	}

	levelTask := worker.NewPeriodicTask("level-metadata", s.config.MetaInterval, func(context.Context) {
		lvl := s.Level()
		client.SendMetadata(MetaKindLevel, map[string]any{"rms": lvl.RMS, "peak": lvl.Peak})
	}, logger)

	s.mu.Lock()
	if s.run != run || !s.running {
		// Stopped while the device was being acquired
		s.mu.Unlock()
		session.Stop(ctx)
		client.Stop()
		return nil
	}
	s.capture = session
	s.levelTask = levelTask
	s.mu.Unlock()

	levelTask.Start()
	logger.Info("Streaming session started", zap.String("backend", s.config.BackendURL))
	return nil
}

func (s *STTService) transportHandlers(run uint64) websocket.Handlers {
	return websocket.Handlers{
		OnOpen: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.run == run {
				s.connState = entities.ConnectionConnected
			}
		},
		OnError: func(err error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.run != run {
				return
			}
			s.connState = entities.ConnectionError
			s.errText = fmt.Sprintf("backend connection failed: %v", err)
		},
		OnClose: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.run != run {
				return
			}
			if s.connState != entities.ConnectionError {
				s.connState = entities.ConnectionDisconnected
			}
		},
		OnMessage: func(msg domain.ServerMessage) {
			s.mu.Lock()
			current := s.run == run
			s.mu.Unlock()
			if current {
				domain.Dispatch(msg, s)
			}
		},
	}
}

// HandlePartial implements domain.ServerMessageHandler
func (s *STTService) HandlePartial(msg domain.PartialMessage) {
	s.transcript.SetPartial(msg.Text)
}

// HandleFinal implements domain.ServerMessageHandler
func (s *STTService) HandleFinal(msg domain.FinalMessage) {
	s.transcript.AppendFinal(msg.Text)
}

// HandleLog implements domain.ServerMessageHandler
func (s *STTService) HandleLog(msg domain.LogMessage) {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	s.logs.Append(entities.LogEntry{
		Text:  msg.Text,
		Level: entities.ParseLogLevel(msg.Level),
		Time:  ts,
		Seq:   msg.Seq,
	})
}

// HandleServerError implements domain.ServerMessageHandler
func (s *STTService) HandleServerError(msg domain.ErrorMessage) {
	s.logger.Warn("Backend reported an error", zap.String("kind", msg.Kind), zap.String("error", msg.Message))
	s.logs.Append(entities.LogEntry{
		Text:  fmt.Sprintf("SERVER ERROR: %s: %s", msg.Kind, msg.Message),
		Level: entities.LogLevelError,
		Time:  time.Now(),
	})
}

// Stop ends capture, sends the stop command, closes the connection and
// archives the transcript. Stopping an idle service is a no-op.
func (s *STTService) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	session, client, levelTask := s.capture, s.client, s.levelTask
	s.capture, s.levelTask = nil, nil
	sessionID, startedAt := s.sessionID, s.startedAt
	s.mu.Unlock()

	if levelTask != nil {
		levelTask.Stop()
	}
	if session != nil {
		session.Stop(ctx)
	}

	var stats domain.StatsSnapshot
	if client != nil {
		client.Stop()
		select {
		case <-client.Done():
		case <-time.After(closeWait):
		case <-ctx.Done():
		}
		stats = client.Stats()
	}

	s.logger.Info("Streaming session stopped",
		zap.String("session_id", sessionID),
		zap.Int64("frames", stats.Frames),
		zap.Int64("bytes", stats.Bytes))

	s.archiveTranscript(ctx, sessionID, startedAt, stats)
	return nil
}

func (s *STTService) archiveTranscript(ctx context.Context, sessionID string, startedAt time.Time, stats domain.StatsSnapshot) {
	finals := s.transcript.Finals()
	if s.archive == nil || len(finals) == 0 {
		return
	}
	record := &entities.TranscriptRecord{
		ID:         sessionID,
		StartedAt:  startedAt,
		EndedAt:    time.Now(),
		Segments:   finals,
		Model:      s.config.Model,
		FramesSent: stats.Frames,
		BytesSent:  stats.Bytes,
	}
	if err := s.archive.Save(ctx, record); err != nil {
		s.logger.Error("Failed to archive transcript", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// Flush asks the backend to finalize buffered audio. It reports whether the
// command was sent.
func (s *STTService) Flush() bool {
	s.mu.Lock()
	client, running := s.client, s.running
	s.mu.Unlock()

	if !running || client == nil {
		return false
	}
	return client.Flush()
}

// Clear empties the transcript, logs and error text of an idle session
func (s *STTService) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return domain.ErrSessionRunning
	}
	s.transcript.Reset()
	s.logs.Clear()
	s.errText = ""
	return nil
}

// Status returns the status line
func (s *STTService) Status() STTStatus {
	s.mu.Lock()
	status := STTStatus{
		Running:   s.running,
		Backend:   s.connState,
		Error:     s.errText,
		Model:     s.config.Model,
		SessionID: s.sessionID,
		Level:     s.level,
	}
	client := s.client
	s.mu.Unlock()

	if client != nil {
		status.Stats = client.Stats()
	}
	return status
}

// Transcript returns a copy of the transcript state
func (s *STTService) Transcript() TranscriptView {
	return TranscriptView{
		Finals:  s.transcript.Finals(),
		Partial: s.transcript.Partial(),
	}
}

// Logs returns the log book entries, oldest first
func (s *STTService) Logs() []entities.LogEntry {
	return s.logs.Entries()
}

// Waveform returns the min/max envelope of the latest captured buffer
func (s *STTService) Waveform(width int) []audio.Column {
	return audio.Envelope(s.snapshot.Load(), width)
}

// Level returns the latest input level
func (s *STTService) Level() audio.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

func (s *STTService) setLevel(level audio.Level) {
	s.mu.Lock()
	s.level = level
	s.mu.Unlock()
	s.metrics.SetInputRMS(level.RMS)
}

// RecentTranscripts lists archived transcripts, newest first
func (s *STTService) RecentTranscripts(ctx context.Context, limit int) ([]*entities.TranscriptRecord, error) {
	if s.archive == nil {
		return []*entities.TranscriptRecord{}, nil
	}
	return s.archive.ListRecent(ctx, limit)
}

// TranscriptByID returns one archived transcript
func (s *STTService) TranscriptByID(ctx context.Context, id string) (*entities.TranscriptRecord, error) {
	if s.archive == nil {
		return nil, domain.ErrRecordNotFound
	}
	return s.archive.GetByID(ctx, id)
}
