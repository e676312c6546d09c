package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/arunika/sttconsole/internal/config"
)

// Dependencies are shared by every command
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger
}

type globalFlags struct {
	mockMic bool
	url     string
}

// NewRootCmd builds the sttconsole command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "sttconsole",
		Short:         "Stream microphone audio to a speech-to-text backend",
		Long:          "A demo console that captures microphone audio, streams it as 16-bit PCM over a websocket and shows live transcripts and server logs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.url != "" {
				deps.Config.BackendURL = flags.url
				return deps.Config.Validate()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&flags.mockMic, "mock-mic", false, "Use a synthetic sine tone instead of the microphone")
	rootCmd.PersistentFlags().StringVar(&flags.url, "url", "", "STT backend websocket URL (overrides STT_BACKEND_URL)")

	rootCmd.AddCommand(NewServeCmd(deps, flags))
	rootCmd.AddCommand(NewStreamCmd(deps, flags))
	rootCmd.AddCommand(NewMicTestCmd(deps, flags))

	return rootCmd
}
