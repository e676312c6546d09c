package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/arunika/sttconsole/internal/audio"
	"github.com/satriahrh/arunika/sttconsole/internal/config"
)

func testDeps(t *testing.T, backendURL string) *Dependencies {
	t.Helper()
	return &Dependencies{
		Config: &config.Config{
			BackendURL:      backendURL,
			SampleRate:      16000,
			BufferSize:      800,
			MetaInterval:    100 * time.Millisecond,
			SendQueueSize:   16,
			Model:           "tiny.en",
			Port:            "0",
			PreferencesPath: filepath.Join(t.TempDir(), "prefs.yaml"),
			MicTestDuration: 300 * time.Millisecond,
		},
		Logger: zap.NewNop(),
	}
}

func execute(t *testing.T, deps *Dependencies, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(deps)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_InvalidURL(t *testing.T) {
	deps := testDeps(t, "ws://localhost:8765")

	if _, err := execute(t, deps, "--url", "http://example.com", "mictest"); err == nil {
		t.Fatal("Expected an error for a non-websocket URL")
	}
}

func TestMicTestCmd_WritesWAV(t *testing.T) {
	deps := testDeps(t, "ws://localhost:8765")
	path := filepath.Join(t.TempDir(), "clip.wav")

	out, err := execute(t, deps, "--mock-mic", "mictest", "--out", path)
	if err != nil {
		t.Fatalf("mictest failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Saved") {
		t.Errorf("Expected a summary line, got %q", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Clip not written: %v", err)
	}
	if _, rate, err := audio.DecodeWAV(data); err != nil || rate != 16000 {
		t.Errorf("Invalid clip: rate=%d err=%v", rate, err)
	}
}

func TestStreamCmd_PrintsTranscript(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"log","text":"model loaded","seq":1}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"final","text":"hello there"}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	deps := testDeps(t, "ws://localhost:1")

	out, err := execute(t, deps, "--mock-mic", "--url", url, "stream", "--duration", "700ms", "--level=false")
	if err != nil {
		t.Fatalf("stream failed: %v\n%s", err, out)
	}

	for _, want := range []string{"Status: Capturing", "#1 model loaded", "> hello there", "Status: Idle", "Sent "} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}
