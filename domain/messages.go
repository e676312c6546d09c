package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ServerMessageType is the `type` discriminator of messages sent by the STT backend
type ServerMessageType string

// Supported server message types
const (
	ServerMessageTypePartial ServerMessageType = "partial"
	ServerMessageTypeFinal   ServerMessageType = "final"
	ServerMessageTypeLog     ServerMessageType = "log"
	ServerMessageTypeError   ServerMessageType = "error"
)

// Command is a control command sent to the STT backend
type Command string

const (
	CommandFlush Command = "flush"
	CommandStop  Command = "stop"
)

// MetaKindHello is the metadata kind that is never rate limited.
const MetaKindHello = "hello"

// ControlMessage represents {"command": "..."}
type ControlMessage struct {
	Command Command `json:"command"`
}

// StatsSnapshot is the transport statistics attached to every meta message
type StatsSnapshot struct {
	Frames   int64 `json:"frames"`
	Bytes    int64 `json:"bytes"`
	Started  int64 `json:"started"` // unix milliseconds
	UptimeMs int64 `json:"uptimeMs"`
}

// MetaMessage represents {"type": "meta", "data": ..., "stats": ...}
type MetaMessage struct {
	Type  string         `json:"type"`
	Data  map[string]any `json:"data"`
	Stats StatsSnapshot  `json:"stats"`
}

// NewMetaMessage builds a meta envelope, tagging data with its kind
func NewMetaMessage(kind string, data map[string]any, stats StatsSnapshot) MetaMessage {
	payload := make(map[string]any, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}
	payload["kind"] = kind
	return MetaMessage{Type: "meta", Data: payload, Stats: stats}
}

// ServerMessage is one of PartialMessage, FinalMessage, LogMessage or ErrorMessage.
// The set is closed: only types in this package implement it.
type ServerMessage interface {
	MessageType() ServerMessageType
	serverMessage()
}

// PartialMessage carries an interim transcript that replaces the previous one
type PartialMessage struct {
	Text string
}

// FinalMessage carries a transcript segment the backend will not revise
type FinalMessage struct {
	Text string
}

// LogMessage is a diagnostic line emitted by the backend
type LogMessage struct {
	Text      string
	Level     string
	Timestamp time.Time
	Seq       *int64
}

// ErrorMessage is a server-side error report
type ErrorMessage struct {
	Kind    string
	Message string
}

func (PartialMessage) MessageType() ServerMessageType { return ServerMessageTypePartial }
func (FinalMessage) MessageType() ServerMessageType   { return ServerMessageTypeFinal }
func (LogMessage) MessageType() ServerMessageType     { return ServerMessageTypeLog }
func (ErrorMessage) MessageType() ServerMessageType   { return ServerMessageTypeError }

func (PartialMessage) serverMessage() {}
func (FinalMessage) serverMessage()   {}
func (LogMessage) serverMessage()     {}
func (ErrorMessage) serverMessage()   {}

// ServerMessageHandler receives every kind of server message.
type ServerMessageHandler interface {
	HandlePartial(msg PartialMessage)
	HandleFinal(msg FinalMessage)
	HandleLog(msg LogMessage)
	HandleServerError(msg ErrorMessage)
}

// Dispatch routes msg to the matching handler method. It reports false for nil.
func Dispatch(msg ServerMessage, h ServerMessageHandler) bool {
	switch m := msg.(type) {
	case PartialMessage:
		h.HandlePartial(m)
	case FinalMessage:
		h.HandleFinal(m)
	case LogMessage:
		h.HandleLog(m)
	case ErrorMessage:
		h.HandleServerError(m)
	default:
		return false
	}
	return true
}

// serverEnvelope is the union of all fields the backend may send
type serverEnvelope struct {
	Type  ServerMessageType `json:"type"`
	Text  string            `json:"text"`
	Level string            `json:"level"`
	TS    *float64          `json:"ts"`
	Seq   *int64            `json:"seq"`
	Kind  string            `json:"kind"`
	Error string            `json:"error"`
}

// DecodeServerMessage parses a backend payload.
// Invalid JSON yields ErrMalformedMessage; an unknown type yields (nil, nil).
func DecodeServerMessage(data []byte) (ServerMessage, error) {
	var env serverEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch env.Type {
	case ServerMessageTypePartial:
		return PartialMessage{Text: env.Text}, nil
	case ServerMessageTypeFinal:
		return FinalMessage{Text: env.Text}, nil
	case ServerMessageTypeLog:
		msg := LogMessage{Text: env.Text, Level: env.Level, Seq: env.Seq}
		if env.TS != nil {
			msg.Timestamp = timestampFromNumber(*env.TS)
		}
		return msg, nil
	case ServerMessageTypeError:
		return ErrorMessage{Kind: env.Kind, Message: env.Error}, nil
	default:
		return nil, nil
	}
}

// timestampFromNumber accepts unix seconds (possibly fractional) or unix milliseconds.
func timestampFromNumber(ts float64) time.Time {
	if math.IsNaN(ts) || math.IsInf(ts, 0) || ts <= 0 {
		return time.Time{}
	}
	if ts > 1e11 {
		return time.UnixMilli(int64(ts))
	}
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*1e9))
}
