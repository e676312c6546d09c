package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/arunika/sttconsole/internal/worker"
)

// NewMicTestCmd records a short local clip and saves it as WAV
func NewMicTestCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "mictest",
		Short: "Record a short clip to check the microphone",
		Long:  "Record for MICTEST_DURATION (default 5s) without contacting the backend and write the clip as a WAV file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApp(cmd.Context(), deps, flags)
			if err != nil {
				return err
			}
			defer application.Close(context.Background())

			w := cmd.OutOrStdout()
			mic := application.MicTest

			countdown := worker.NewPeriodicTask("mictest-print", time.Second, func(context.Context) {
				if status := mic.Status(); status.Recording {
					fmt.Fprintf(w, "Recording... %ds\n", status.Countdown)
				}
			}, deps.Logger)
			countdown.Start()
			wav, err := mic.Record(cmd.Context())
			countdown.Stop()
			if err != nil {
				return err
			}

			if err := os.WriteFile(out, wav, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			deps.Logger.Debug("Mic test clip written", zap.String("path", out), zap.Int("bytes", len(wav)))
			fmt.Fprintf(w, "Saved %.1fs of audio to %s\n", mic.Status().Seconds, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "mictest.wav", "Output WAV file")

	return cmd
}
