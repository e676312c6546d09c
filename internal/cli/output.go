package cli

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/satriahrh/arunika/sttconsole/domain/entities"
	"github.com/satriahrh/arunika/sttconsole/internal/audio"
	"github.com/satriahrh/arunika/sttconsole/usecase"
)

const (
	levelBarWidth = 30
	logTimeFormat = "15:04:05"
)

// printer writes the console views as plain text lines
type printer struct {
	mu  sync.Mutex
	out io.Writer

	finals   int
	partial  string
	logs     int
	lastLine string
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out}
}

// Update prints whatever changed since the previous call
func (p *printer) Update(status usecase.STTStatus, transcript usecase.TranscriptView, logs []entities.LogEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if line := status.Line(); line != p.lastLine {
		fmt.Fprintln(p.out, line)
		if status.Error != "" {
			fmt.Fprintln(p.out, "  "+status.Error)
		}
		p.lastLine = line
	}

	if len(logs) < p.logs {
		p.logs = 0
	}
	for _, entry := range logs[p.logs:] {
		fmt.Fprintln(p.out, formatLogEntry(entry))
	}
	p.logs = len(logs)

	if len(transcript.Finals) < p.finals {
		p.finals = 0
	}
	for _, text := range transcript.Finals[p.finals:] {
		fmt.Fprintln(p.out, "> "+text)
	}
	p.finals = len(transcript.Finals)

	if transcript.Partial != p.partial {
		if transcript.Partial != "" {
			fmt.Fprintln(p.out, "~ "+transcript.Partial)
		}
		p.partial = transcript.Partial
	}
}

// Level prints the input meter
func (p *printer) Level(level audio.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "level %s %.3f\n", levelBar(level.RMS, levelBarWidth), level.RMS)
}

// Printf writes a free-form line
func (p *printer) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

// formatLogEntry renders "[15:04:05] #7 text"
func formatLogEntry(entry entities.LogEntry) string {
	var b strings.Builder
	b.WriteString("[" + entry.Time.Format(logTimeFormat) + "]")
	if entry.Seq != nil {
		fmt.Fprintf(&b, " #%d", *entry.Seq)
	}
	if entry.Level != entities.LogLevelInfo {
		b.WriteString(" " + strings.ToUpper(string(entry.Level)))
	}
	b.WriteString(" " + entry.Text)
	return b.String()
}

// levelBar draws rms (0..1) as a bar of the given width
func levelBar(rms float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(math.Min(math.Max(rms, 0), 1) * float64(width)))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}
