package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/petems/thoughtpad/internal/config"
	"github.com/petems/thoughtpad/internal/logging"
)

var (
	cfg          *config.Config
	cfgFile      string
	verboseLevel int
	log          = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "thoughtpad",
	Short: "Record voice notes for transcription",
	Long: `Thought Pad records audio from an input device and saves it as a
16-bit PCM WAV file, ready to be sent to a speech-to-text service.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile == "" {
			cfgFile = config.Path()
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log = logging.New(logLevel(cfg.LogLevel, verboseLevel))
		log.Debug().Str("config", cfgFile).Msg("Loaded configuration")
		return nil
	},
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.Version = version
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the platform config dir)")
	rootCmd.PersistentFlags().CountVarP(&verboseLevel, "verbose", "v", "increase log verbosity (-v debug, -vv trace)")

	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(noteCmd)
}

// logLevel lets -v flags raise the configured level
func logLevel(configured string, verbose int) string {
	switch {
	case verbose >= 2:
		return zerolog.LevelTraceValue
	case verbose == 1:
		return zerolog.LevelDebugValue
	default:
		return configured
	}
}
