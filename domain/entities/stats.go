package entities

import (
	"time"

	"github.com/satriahrh/arunika/sttconsole/domain"
)

// Statistics counts what the transport has sent since the session started.
// It is not safe for concurrent use; the owner guards it.
type Statistics struct {
	FramesSent int64
	BytesSent  int64
	StartedAt  time.Time
}

// NewStatistics starts counting at the given time
func NewStatistics(startedAt time.Time) Statistics {
	return Statistics{StartedAt: startedAt}
}

// RecordFrame accounts for one transmitted audio frame
func (s *Statistics) RecordFrame(size int) {
	s.FramesSent++
	s.BytesSent += int64(size)
}

// Snapshot samples the counters without resetting them
func (s Statistics) Snapshot(now time.Time) domain.StatsSnapshot {
	return domain.StatsSnapshot{
		Frames:   s.FramesSent,
		Bytes:    s.BytesSent,
		Started:  s.StartedAt.UnixMilli(),
		UptimeMs: now.Sub(s.StartedAt).Milliseconds(),
	}
}
