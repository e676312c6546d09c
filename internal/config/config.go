package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/satriahrh/arunika/sttconsole/domain/entities"
	"github.com/satriahrh/arunika/sttconsole/domain/repositories"
)

const (
	defaultBackendURL      = "ws://localhost:8765"
	defaultSampleRate      = 16000
	defaultBufferSize      = 4096
	defaultMetaInterval    = time.Second
	defaultSendQueue       = 64
	defaultModel           = "tiny.en"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultPreferencesPath = ".sttconsole/preferences.yaml"
	defaultMicTestDuration = 5 * time.Second
	defaultMongoDatabase   = "sttconsole"
	defaultGeminiModel     = "gemini-2.0-flash"
)

// Config holds the runtime configuration of the console
// Optional fields with defaults:
// - BackendURL: STT backend websocket endpoint (default: "ws://localhost:8765")
// - SampleRate / BufferSize: capture format (default: 16000 Hz, 4096 samples)
// - MetaInterval: period of level metadata (default: 1s)
// - Model: model name shown in the status line (default: "tiny.en")
// - MongoURI: transcript archive; in-memory when empty
// - GeminiAPIKey: LLM page backend; canned replies when empty
type Config struct {
	BackendURL       string
	SampleRate       int
	BufferSize       int
	MetaInterval     time.Duration
	SendQueueSize    int
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
	Model            string

	Port            string
	LogLevel        string
	PreferencesPath string
	ColorMode       entities.ColorMode
	MicTestDuration time.Duration

	MongoURI      string
	MongoDatabase string

	GeminiAPIKey string
	GeminiModel  string
}

// Load reads .env files (missing files are ignored) and then the environment
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only
func FromEnv() (*Config, error) {
	var errs []error

	cfg := &Config{
		BackendURL:       getString("STT_BACKEND_URL", defaultBackendURL),
		SampleRate:       getInt("STT_SAMPLE_RATE", defaultSampleRate, &errs),
		BufferSize:       getInt("STT_BUFFER_SIZE", defaultBufferSize, &errs),
		MetaInterval:     getDuration("STT_META_INTERVAL", defaultMetaInterval, &errs),
		SendQueueSize:    getInt("STT_SEND_QUEUE", defaultSendQueue, &errs),
		EchoCancellation: getBool("STT_ECHO_CANCELLATION", true, &errs),
		NoiseSuppression: getBool("STT_NOISE_SUPPRESSION", true, &errs),
		AutoGainControl:  getBool("STT_AUTO_GAIN", true, &errs),
		Model:            getString("WHISPER_MODEL", defaultModel),
		Port:             getString("PORT", defaultPort),
		LogLevel:         getString("LOG_LEVEL", defaultLogLevel),
		PreferencesPath:  getString("PREFERENCES_PATH", defaultPreferencesPath),
		MicTestDuration:  getDuration("MICTEST_DURATION", defaultMicTestDuration, &errs),
		MongoURI:         os.Getenv("MONGODB_URI"),
		MongoDatabase:    getString("MONGODB_DATABASE", defaultMongoDatabase),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getString("GEMINI_MODEL", defaultGeminiModel),
	}

	if mode := os.Getenv("COLOR_MODE"); mode != "" {
		parsed, err := entities.ParseColorMode(mode)
		if err != nil {
			errs = append(errs, fmt.Errorf("COLOR_MODE: %w", err))
		}
		cfg.ColorMode = parsed
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid STT_BACKEND_URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("STT_BACKEND_URL must use ws or wss scheme, got %q", u.Scheme)
	}
	if c.SampleRate < 8000 || c.SampleRate > 48000 {
		return fmt.Errorf("sample rate must be between 8000 and 48000, got %d", c.SampleRate)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", c.BufferSize)
	}
	if c.MetaInterval <= 0 {
		return fmt.Errorf("meta interval must be positive, got %s", c.MetaInterval)
	}
	if c.SendQueueSize <= 0 {
		return fmt.Errorf("send queue size must be positive, got %d", c.SendQueueSize)
	}
	if c.MicTestDuration <= 0 {
		return fmt.Errorf("mic test duration must be positive, got %s", c.MicTestDuration)
	}
	return nil
}

// DeviceConfig returns the capture parameters
func (c *Config) DeviceConfig() repositories.DeviceConfig {
	return repositories.DeviceConfig{
		SampleRate:       c.SampleRate,
		BufferSize:       c.BufferSize,
		Channels:         1,
		EchoCancellation: c.EchoCancellation,
		NoiseSuppression: c.NoiseSuppression,
		AutoGainControl:  c.AutoGainControl,
	}
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int, errs *[]error) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func getBool(key string, def bool, errs *[]error) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return def
	}
	return b
}

func getDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}
