package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/arunika/sttconsole/domain"
	"github.com/satriahrh/arunika/sttconsole/domain/entities"
	"github.com/satriahrh/arunika/sttconsole/internal/metrics"
	"github.com/satriahrh/arunika/sttconsole/usecase"
)

const (
	defaultWaveformWidth = 256
	maxWaveformWidth     = 4096
	defaultListLimit     = 20
	maxListLimit         = 100
)

// Services are the use cases exposed over HTTP
type Services struct {
	STT     *usecase.STTService
	MicTest *usecase.MicTestService
	Theme   *usecase.ThemeService
	LLM     *usecase.LLMService
}

type handlers struct {
	Services
	logger *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, services Services, m *metrics.Metrics, logger *zap.Logger) {
	h := &handlers{Services: services, logger: logger}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "sttconsole",
		})
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	v1 := e.Group("/api/v1")

	// Live transcription
	v1.GET("/stt/status", h.sttStatus)
	v1.POST("/stt/start", h.sttStart)
	v1.POST("/stt/stop", h.sttStop)
	v1.POST("/stt/flush", h.sttFlush)
	v1.POST("/stt/clear", h.sttClear)
	v1.GET("/stt/transcript", h.sttTranscript)
	v1.GET("/stt/logs", h.sttLogs)
	v1.GET("/stt/waveform", h.sttWaveform)
	v1.GET("/transcripts", h.listTranscripts)
	v1.GET("/transcripts/:id", h.getTranscript)

	// Theme
	v1.GET("/theme", h.getTheme)
	v1.PUT("/theme", h.setTheme)
	v1.POST("/theme/toggle", h.toggleTheme)

	// Mic test
	v1.POST("/mictest/start", h.micTestStart)
	v1.POST("/mictest/stop", h.micTestStop)
	v1.GET("/mictest/status", h.micTestStatus)
	v1.GET("/mictest/waveform", h.micTestWaveform)
	v1.GET("/mictest/recording.wav", h.micTestRecording)
	v1.DELETE("/mictest/recording", h.micTestClear)

	// LLM page
	v1.GET("/llm", h.llmInfo)
	v1.POST("/llm/reply", h.llmReply)
}

func (h *handlers) statusResponse() StatusResponse {
	status := h.STT.Status()
	return StatusResponse{STTStatus: status, Line: status.Line()}
}

func (h *handlers) sttStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.statusResponse())
}

func (h *handlers) sttStart(c echo.Context) error {
	if err := h.STT.Start(c.Request().Context()); err != nil {
		return h.captureError(c, "Failed to start transcription", err)
	}
	return c.JSON(http.StatusOK, h.statusResponse())
}

func (h *handlers) sttStop(c echo.Context) error {
	if err := h.STT.Stop(c.Request().Context()); err != nil {
		h.logger.Error("Failed to stop transcription", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "stop_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, h.statusResponse())
}

func (h *handlers) sttFlush(c echo.Context) error {
	if !h.STT.Flush() {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "not_connected",
			Message: "Flush requires a connected capture session",
		})
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *handlers) sttClear(c echo.Context) error {
	if err := h.STT.Clear(); err != nil {
		return sessionRunning(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) sttTranscript(c echo.Context) error {
	return c.JSON(http.StatusOK, h.STT.Transcript())
}

func (h *handlers) sttLogs(c echo.Context) error {
	return c.JSON(http.StatusOK, LogsResponse{Entries: h.STT.Logs()})
}

func (h *handlers) sttWaveform(c echo.Context) error {
	width, err := intParam(c, "width", defaultWaveformWidth, maxWaveformWidth)
	if err != nil {
		return badRequest(c, err)
	}
	return c.JSON(http.StatusOK, WaveformResponse{Width: width, Columns: h.STT.Waveform(width)})
}

func (h *handlers) listTranscripts(c echo.Context) error {
	limit, err := intParam(c, "limit", defaultListLimit, maxListLimit)
	if err != nil {
		return badRequest(c, err)
	}
	records, err := h.STT.RecentTranscripts(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list transcripts", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "archive_unavailable",
			Message: "Failed to list transcripts",
		})
	}
	return c.JSON(http.StatusOK, TranscriptsResponse{Transcripts: records})
}

func (h *handlers) getTranscript(c echo.Context) error {
	record, err := h.STT.TranscriptByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, domain.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Transcript not found",
		})
	}
	if err != nil {
		h.logger.Error("Failed to load transcript", zap.String("id", c.Param("id")), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "archive_unavailable",
			Message: "Failed to load transcript",
		})
	}
	return c.JSON(http.StatusOK, record)
}

func (h *handlers) themeResponse() ThemeResponse {
	return ThemeResponse{Mode: h.Theme.Mode(), Palette: h.Theme.Palette()}
}

func (h *handlers) getTheme(c echo.Context) error {
	return c.JSON(http.StatusOK, h.themeResponse())
}

func (h *handlers) setTheme(c echo.Context) error {
	var req ThemeRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error("Failed to bind theme request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	mode, err := entities.ParseColorMode(req.Mode)
	if err != nil {
		return badRequest(c, err)
	}
	// The mode is applied even when it cannot be persisted
	if err := h.Theme.SetMode(c.Request().Context(), mode); err != nil {
		h.logger.Warn("Color mode not persisted", zap.Error(err))
	}
	return c.JSON(http.StatusOK, h.themeResponse())
}

func (h *handlers) toggleTheme(c echo.Context) error {
	if _, err := h.Theme.Toggle(c.Request().Context()); err != nil {
		h.logger.Warn("Color mode not persisted", zap.Error(err))
	}
	return c.JSON(http.StatusOK, h.themeResponse())
}

func (h *handlers) micTestStart(c echo.Context) error {
	if err := h.MicTest.Start(c.Request().Context()); err != nil {
		return h.captureError(c, "Failed to start mic test", err)
	}
	return c.JSON(http.StatusOK, h.MicTest.Status())
}

func (h *handlers) micTestStop(c echo.Context) error {
	if err := h.MicTest.Stop(c.Request().Context()); err != nil {
		h.logger.Error("Failed to stop mic test", zap.Error(err))
	}
	return c.JSON(http.StatusOK, h.MicTest.Status())
}

func (h *handlers) micTestStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.MicTest.Status())
}

func (h *handlers) micTestWaveform(c echo.Context) error {
	width, err := intParam(c, "width", defaultWaveformWidth, maxWaveformWidth)
	if err != nil {
		return badRequest(c, err)
	}
	return c.JSON(http.StatusOK, WaveformResponse{Width: width, Columns: h.MicTest.Waveform(width)})
}

func (h *handlers) micTestRecording(c echo.Context) error {
	wav, err := h.MicTest.Recording()
	if err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_recording",
			Message: err.Error(),
		})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="mictest.wav"`)
	return c.Blob(http.StatusOK, "audio/wav", wav)
}

func (h *handlers) micTestClear(c echo.Context) error {
	if err := h.MicTest.Clear(); err != nil {
		return sessionRunning(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) llmInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, h.LLM.Info())
}

func (h *handlers) llmReply(c echo.Context) error {
	var req usecase.ReplyRequest
	if err := c.Bind(&req); err != nil {
		h.logger.Error("Failed to bind reply request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	reply, err := h.LLM.Reply(c.Request().Context(), req)
	if errors.Is(err, domain.ErrEmptyPrompt) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "User text is required",
		})
	}
	if err != nil {
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "generation_failed",
			Message: "Failed to generate reply",
		})
	}
	return c.JSON(http.StatusOK, ReplyResponse{Model: h.LLM.Info().Model, Reply: reply})
}

// captureError maps device acquisition failures to HTTP errors
func (h *handlers) captureError(c echo.Context, msg string, err error) error {
	h.logger.Warn(msg, zap.Error(err))
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "permission_denied",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrDeviceUnavailable):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "device_unavailable",
			Message: err.Error(),
		})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "capture_failed",
			Message: err.Error(),
		})
	}
}

func sessionRunning(c echo.Context, err error) error {
	return c.JSON(http.StatusConflict, ErrorResponse{
		Error:   "session_running",
		Message: err.Error(),
	})
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_parameter",
		Message: err.Error(),
	})
}

func intParam(c echo.Context, name string, def, max int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	if n > max {
		n = max
	}
	return n, nil
}
