package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/arunika/sttconsole/adapters/llm"
	"github.com/satriahrh/arunika/sttconsole/adapters/memory"
	"github.com/satriahrh/arunika/sttconsole/adapters/microphone"
	"github.com/satriahrh/arunika/sttconsole/adapters/mongo"
	"github.com/satriahrh/arunika/sttconsole/adapters/preferences"
	"github.com/satriahrh/arunika/sttconsole/domain/repositories"
	"github.com/satriahrh/arunika/sttconsole/internal/metrics"
	"github.com/satriahrh/arunika/sttconsole/usecase"
)

// app holds the wired services of one command run
type app struct {
	STT     *usecase.STTService
	MicTest *usecase.MicTestService
	Theme   *usecase.ThemeService
	LLM     *usecase.LLMService
	Metrics *metrics.Metrics

	logger  *zap.Logger
	closers []func(context.Context) error
}

// newApp selects adapters from the configuration and builds the services
func newApp(ctx context.Context, deps *Dependencies, flags *globalFlags) (*app, error) {
	cfg, logger := deps.Config, deps.Logger
	a := &app{Metrics: metrics.NewMetrics(), logger: logger}

	var opener repositories.DeviceOpener
	if flags.mockMic {
		opener = microphone.NewSyntheticOpener(microphone.SyntheticOptions{}, logger)
	} else {
		opener = microphone.NewMalgoOpener(logger)
	}

	var archive repositories.TranscriptRepository
	if cfg.MongoURI != "" {
		client, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect transcript archive: %w", err)
		}
		a.closers = append(a.closers, client.Close)

		repo := mongo.NewTranscriptRepository(client.Database)
		if err := repo.EnsureIndexes(ctx); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to prepare transcript archive: %w", err)
		}
		archive = repo
	} else {
		logger.Info("MONGODB_URI not set, transcripts are kept in memory")
		archive = memory.NewTranscriptRepository()
	}

	var model repositories.LargeLanguageModel
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiLLM(ctx, llm.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		}, logger)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		model = gemini
	} else {
		model = llm.NewMockLLM()
	}

	theme, err := usecase.NewThemeService(ctx, preferences.NewYAMLStore(cfg.PreferencesPath, logger), cfg.ColorMode, logger)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Theme = theme
	a.LLM = usecase.NewLLMService(model, logger)
	a.STT = usecase.NewSTTService(opener, archive, usecase.STTConfig{
		BackendURL:    cfg.BackendURL,
		Device:        cfg.DeviceConfig(),
		Model:         cfg.Model,
		MetaInterval:  cfg.MetaInterval,
		SendQueueSize: cfg.SendQueueSize,
	}, a.Metrics, logger)
	a.MicTest = usecase.NewMicTestService(opener, usecase.MicTestConfig{
		Device:   cfg.DeviceConfig(),
		Duration: cfg.MicTestDuration,
	}, a.Metrics, logger)

	return a, nil
}

// Close stops running sessions and releases external clients
func (a *app) Close(ctx context.Context) {
	if a.STT != nil {
		a.STT.Stop(ctx)
	}
	if a.MicTest != nil {
		a.MicTest.Stop(ctx)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("Failed to close client", zap.Error(err))
		}
	}
}
