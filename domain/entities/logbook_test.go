package entities

import (
	"fmt"
	"testing"
	"time"
)

func TestLogBookDropsOldest(t *testing.T) {
	book := NewLogBook(DefaultLogCapacity)

	for i := 0; i < DefaultLogCapacity+1; i++ {
		book.Append(LogEntry{Text: fmt.Sprintf("line %d", i), Level: LogLevelInfo, Time: time.Now()})
	}

	if book.Len() != DefaultLogCapacity {
		t.Fatalf("Expected %d entries, got %d", DefaultLogCapacity, book.Len())
	}

	entries := book.Entries()
	if entries[0].Text != "line 1" {
		t.Errorf("Expected oldest entry to be 'line 1', got '%s'", entries[0].Text)
	}
	if entries[len(entries)-1].Text != fmt.Sprintf("line %d", DefaultLogCapacity) {
		t.Errorf("Expected newest entry last, got '%s'", entries[len(entries)-1].Text)
	}
}

func TestLogBookDefaultCapacity(t *testing.T) {
	book := NewLogBook(0)
	for i := 0; i < 600; i++ {
		book.Append(LogEntry{Text: "x"})
	}
	if book.Len() != DefaultLogCapacity {
		t.Errorf("Expected %d entries, got %d", DefaultLogCapacity, book.Len())
	}
}

func TestLogBookClear(t *testing.T) {
	book := NewLogBook(10)
	book.Append(LogEntry{Text: "x"})
	book.Clear()
	if book.Len() != 0 {
		t.Errorf("Expected empty log book, got %d", book.Len())
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"info", LogLevelInfo},
		{"WARN", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"", LogLevelInfo},
		{"debug", LogLevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestColorModeToggle(t *testing.T) {
	if ColorModeDark.Toggle() != ColorModeLight {
		t.Error("Expected dark to toggle to light")
	}
	if ColorModeLight.Toggle() != ColorModeDark {
		t.Error("Expected light to toggle to dark")
	}

	if _, err := ParseColorMode("sepia"); err == nil {
		t.Error("Expected error for unknown color mode")
	}
	if PaletteFor(ColorModeDark).Primary != "#90caf9" {
		t.Errorf("Unexpected dark primary %s", PaletteFor(ColorModeDark).Primary)
	}
}
