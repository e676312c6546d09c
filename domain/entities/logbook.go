package entities

import (
	"strings"
	"sync"
	"time"
)

// DefaultLogCapacity is the number of entries kept before the oldest are dropped
const DefaultLogCapacity = 500

// LogLevel is the severity of a log entry
type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ParseLogLevel maps a server-provided level to a LogLevel, defaulting to info
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warn", "warning":
		return LogLevelWarn
	case "error", "err", "fatal":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// LogEntry is one immutable line of the diagnostic log
type LogEntry struct {
	Text  string    `json:"text"`
	Level LogLevel  `json:"level"`
	Time  time.Time `json:"time"`
	Seq   *int64    `json:"seq,omitempty"`
}

// LogBook is a bounded, ordered log
type LogBook struct {
	mu       sync.RWMutex
	capacity int
	entries  []LogEntry
}

// NewLogBook creates a log book holding at most capacity entries
func NewLogBook(capacity int) *LogBook {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &LogBook{
		capacity: capacity,
		entries:  make([]LogEntry, 0, capacity),
	}
}

// Append adds an entry, dropping the oldest one when full
func (l *LogBook) Append(entry LogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) >= l.capacity {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.entries = append(l.entries, entry)
}

// Entries returns a copy of the entries, oldest first
func (l *LogBook) Entries() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries
func (l *LogBook) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear removes all entries
func (l *LogBook) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}
