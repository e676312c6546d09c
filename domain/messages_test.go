package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type recordingHandler struct {
	partials []string
	finals   []string
	logs     []LogMessage
	errors   []ErrorMessage
}

func (h *recordingHandler) HandlePartial(msg PartialMessage)    { h.partials = append(h.partials, msg.Text) }
func (h *recordingHandler) HandleFinal(msg FinalMessage)        { h.finals = append(h.finals, msg.Text) }
func (h *recordingHandler) HandleLog(msg LogMessage)            { h.logs = append(h.logs, msg) }
func (h *recordingHandler) HandleServerError(msg ErrorMessage) { h.errors = append(h.errors, msg) }

func TestDecodeServerMessage(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantType ServerMessageType
		wantNil  bool
		wantErr  bool
	}{
		{name: "partial", message: `{"type":"partial","text":"wor"}`, wantType: ServerMessageTypePartial},
		{name: "final", message: `{"type":"final","text":"hello"}`, wantType: ServerMessageTypeFinal},
		{name: "log", message: `{"type":"log","text":"loaded","level":"info","ts":1700000000.5,"seq":3}`, wantType: ServerMessageTypeLog},
		{name: "error", message: `{"type":"error","kind":"model","error":"oom"}`, wantType: ServerMessageTypeError},
		{name: "unknown type", message: `{"type":"pong"}`, wantNil: true},
		{name: "missing type", message: `{"text":"orphan"}`, wantNil: true},
		{name: "not json", message: `hello there`, wantErr: true},
		{name: "truncated json", message: `{"type":"final","text":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeServerMessage([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeServerMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedMessage) {
					t.Errorf("Expected ErrMalformedMessage, got %v", err)
				}
				return
			}
			if tt.wantNil {
				if msg != nil {
					t.Errorf("Expected nil message, got %#v", msg)
				}
				return
			}
			if msg.MessageType() != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, msg.MessageType())
			}
		})
	}
}

func TestDecodeLogMessageFields(t *testing.T) {
	msg, err := DecodeServerMessage([]byte(`{"type":"log","text":"loaded","level":"warn","ts":1700000000.5,"seq":7}`))
	if err != nil {
		t.Fatalf("DecodeServerMessage() error = %v", err)
	}

	logMsg, ok := msg.(LogMessage)
	if !ok {
		t.Fatalf("Expected LogMessage, got %T", msg)
	}
	if logMsg.Text != "loaded" || logMsg.Level != "warn" {
		t.Errorf("Unexpected log fields: %+v", logMsg)
	}
	if logMsg.Seq == nil || *logMsg.Seq != 7 {
		t.Errorf("Expected seq 7, got %v", logMsg.Seq)
	}
	want := time.Unix(1700000000, 500_000_000)
	if !logMsg.Timestamp.Equal(want) {
		t.Errorf("Expected timestamp %v, got %v", want, logMsg.Timestamp)
	}
}

func TestDecodeLogMessageMillisecondTimestamp(t *testing.T) {
	msg, _ := DecodeServerMessage([]byte(`{"type":"log","text":"x","ts":1700000000123}`))
	logMsg := msg.(LogMessage)
	if logMsg.Timestamp.UnixMilli() != 1700000000123 {
		t.Errorf("Expected millisecond timestamp, got %v", logMsg.Timestamp)
	}
	if logMsg.Seq != nil {
		t.Errorf("Expected nil seq, got %v", *logMsg.Seq)
	}
}

func TestDispatch(t *testing.T) {
	h := &recordingHandler{}
	messages := []ServerMessage{
		FinalMessage{Text: "hello"},
		PartialMessage{Text: "wor"},
		LogMessage{Text: "tick"},
		ErrorMessage{Kind: "decode", Message: "bad frame"},
	}
	for _, msg := range messages {
		if !Dispatch(msg, h) {
			t.Errorf("Dispatch(%T) returned false", msg)
		}
	}

	if len(h.finals) != 1 || h.finals[0] != "hello" {
		t.Errorf("Unexpected finals: %v", h.finals)
	}
	if len(h.partials) != 1 || h.partials[0] != "wor" {
		t.Errorf("Unexpected partials: %v", h.partials)
	}
	if len(h.logs) != 1 || len(h.errors) != 1 {
		t.Errorf("Expected one log and one error, got %d and %d", len(h.logs), len(h.errors))
	}

	if Dispatch(nil, h) {
		t.Error("Dispatch(nil) should return false")
	}
}

func TestNewMetaMessage(t *testing.T) {
	data := map[string]any{"sampleRate": 16000}
	msg := NewMetaMessage(MetaKindHello, data, StatsSnapshot{Frames: 1, Bytes: 8192, Started: 10, UptimeMs: 5})

	if _, tagged := data["kind"]; tagged {
		t.Error("NewMetaMessage must not mutate the caller's map")
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded["type"] != "meta" {
		t.Errorf("Expected type meta, got %v", decoded["type"])
	}
	payload := decoded["data"].(map[string]any)
	if payload["kind"] != MetaKindHello {
		t.Errorf("Expected kind hello, got %v", payload["kind"])
	}
	stats := decoded["stats"].(map[string]any)
	for _, key := range []string{"frames", "bytes", "started", "uptimeMs"} {
		if _, ok := stats[key]; !ok {
			t.Errorf("Expected stats key %s", key)
		}
	}
}

func TestControlMessageJSON(t *testing.T) {
	raw, _ := json.Marshal(ControlMessage{Command: CommandFlush})
	if string(raw) != `{"command":"flush"}` {
		t.Errorf("Unexpected control JSON: %s", raw)
	}
}
