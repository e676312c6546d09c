package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/satriahrh/arunika/sttconsole/internal/worker"
)

const (
	refreshInterval = 250 * time.Millisecond
	levelInterval   = time.Second
)

// NewStreamCmd streams the microphone and prints the transcript to stdout
func NewStreamCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	var duration time.Duration
	var showLevel bool

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream the microphone and print transcripts",
		Long:  "Capture audio and stream it to the backend, printing the status line, server logs and transcripts.\nRuns until Ctrl+C or --duration elapses.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			return runStream(ctx, deps, flags, newPrinter(cmd.OutOrStdout()), showLevel)
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop after this long (0 runs until interrupted)")
	cmd.Flags().BoolVar(&showLevel, "level", true, "Print the input level meter")

	return cmd
}

func runStream(ctx context.Context, deps *Dependencies, flags *globalFlags, p *printer, showLevel bool) error {
	application, err := newApp(context.WithoutCancel(ctx), deps, flags)
	if err != nil {
		return err
	}
	defer application.Close(context.Background())

	stt := application.STT
	if err := stt.Start(ctx); err != nil {
		p.Update(stt.Status(), stt.Transcript(), stt.Logs())
		return err
	}

	refresh := worker.NewPeriodicTask("stream-refresh", refreshInterval, func(context.Context) {
		p.Update(stt.Status(), stt.Transcript(), stt.Logs())
	}, deps.Logger)
	meter := worker.NewPeriodicTask("stream-level", levelInterval, func(context.Context) {
		p.Level(stt.Level())
	}, deps.Logger)

	refresh.Start()
	if showLevel {
		meter.Start()
	}

	<-ctx.Done()
	refresh.Stop()
	meter.Stop()

	// Ask for a final result before closing
	stt.Flush()
	if err := stt.Stop(context.Background()); err != nil {
		return err
	}

	status := stt.Status()
	p.Update(status, stt.Transcript(), stt.Logs())
	p.Printf("Sent %d frames (%d bytes)\n", status.Stats.Frames, status.Stats.Bytes)
	return nil
}
