package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/arunika/sttconsole/internal/api"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd runs the HTTP console
func NewServeCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP console",
		Long:  "Serve the console API: live transcription, mic test, theme and the LLM page.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = deps.Config.Port
			}
			return runServe(cmd.Context(), deps, flags, port)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides PORT)")

	return cmd
}

func runServe(ctx context.Context, deps *Dependencies, flags *globalFlags, port string) error {
	logger := deps.Logger

	application, err := newApp(ctx, deps, flags)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, api.Services{
		STT:     application.STT,
		MicTest: application.MicTest,
		Theme:   application.Theme,
		LLM:     application.LLM,
	}, application.Metrics, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("Console started",
		zap.String("port", port),
		zap.String("backend", deps.Config.BackendURL),
		zap.Bool("mock_mic", flags.mockMic))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			application.Close(context.Background())
			return err
		}
	}

	logger.Info("Console is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	application.Close(shutdownCtx)
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("Console exited")
	return nil
}
