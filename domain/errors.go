package domain

import "errors"

var (
	// ErrPermissionDenied is returned when the user or OS refuses microphone access.
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrDeviceUnavailable is returned when no capture device can be opened.
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	// ErrMalformedMessage marks inbound payloads that are not valid JSON.
	ErrMalformedMessage = errors.New("malformed server message")
	ErrEmptyPrompt      = errors.New("user text is required")
	ErrNoRecording      = errors.New("no recording available")
	ErrRecordNotFound   = errors.New("transcript record not found")
	// ErrSessionRunning is returned for operations that need an idle session.
	ErrSessionRunning = errors.New("capture session is running")
)
