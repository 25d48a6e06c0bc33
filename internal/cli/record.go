package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/petems/thoughtpad/internal/app"
	"github.com/petems/thoughtpad/internal/audio"
	"github.com/petems/thoughtpad/internal/notify"
	"github.com/petems/thoughtpad/internal/permissions"
)

var recordDevice int

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a voice note",
	Long: `Record from the selected input device until stopped, then save the
audio as a 16-bit PCM WAV file and print its path.

While recording, type a command and press Enter:
  p        pause or resume
  c        discard the recording and start over
  s        stop and save (also Enter, end of input or Ctrl+C)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("device") {
			cfg.PreferredDevice = recordDevice
		}

		if err := permissions.EnsureMicrophone(); err != nil {
			return err
		}

		if dir := cfg.Audio.RecordingsDir; dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create recordings directory: %w", err)
			}
		}

		backend, err := audio.NewPortAudio()
		if err != nil {
			return err
		}
		defer backend.Close()

		session, err := audio.NewSession(backend, audio.Options{
			SampleRate:      cfg.Audio.SampleRate,
			Channels:        cfg.Audio.Channels,
			FramesPerBuffer: cfg.Audio.FramesPerBuffer,
			Dir:             cfg.Audio.RecordingsDir,
			Logger:          log,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		status := newConsoleStatus(out)
		handoff := printRecording(out)
		if cfg.Notifications {
			send := desktopNotifier(log, notify.Notify)
			status.notify = send
			handoff = notifySaved(handoff, send)
		}

		application := app.New(app.Config{
			Session:       session,
			Config:        cfg,
			Logger:        log,
			StatusUpdater: status,
			Handoff:       handoff,
		})

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		runErr := runRecording(ctx, application, cmd.InOrStdin(), out)

		// Stop with a fresh context, ctx is already done after a signal
		if err := application.Shutdown(context.Background()); err != nil && runErr == nil {
			runErr = err
		}

		// Keep a finished recording on disk, remove anything else
		if _, ok := session.OutputPath(); !ok {
			session.Close()
		}
		return runErr
	},
}

func init() {
	recordCmd.Flags().IntVarP(&recordDevice, "device", "d", -1, "input device index (overrides config, see 'thoughtpad devices')")
}

// runRecording starts a take and applies stdin commands until told to stop
func runRecording(ctx context.Context, a *app.App, in io.Reader, out io.Writer) error {
	if err := a.Toggle(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Recording. p = pause/resume, c = start over, s or Enter = stop")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	commands := readCommands(ctx, in)
	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-commands:
			if !ok {
				return nil
			}
			switch c {
			case "", "s":
				return nil
			case "p":
				togglePause(a, out)
			case "c":
				if err := a.Clear(); err != nil {
					return err
				}
				if err := a.Toggle(ctx); err != nil {
					return err
				}
			default:
				fmt.Fprintf(out, "Unknown command %q\n", c)
			}
		}
	}
}

func togglePause(a *app.App, out io.Writer) {
	if err := a.TogglePause(); err != nil {
		fmt.Fprintf(out, "Cannot pause or resume: %v\n", err)
	}
}

// readCommands delivers trimmed input lines and closes at end of input or
// when ctx is done
func readCommands(ctx context.Context, in io.Reader) <-chan string {
	commands := make(chan string)
	go func() {
		defer close(commands)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case commands <- strings.ToLower(strings.TrimSpace(scanner.Text())):
			case <-ctx.Done():
				return
			}
		}
	}()
	return commands
}

func printRecording(out io.Writer) app.Handoff {
	return func(ctx context.Context, path string) error {
		info, err := audio.Inspect(path)
		if err != nil {
			return fmt.Errorf("failed to read saved recording: %w", err)
		}
		fmt.Fprintf(out, "Saved %s (%.1fs, %d Hz, %d ch, %d-bit)\n",
			path, info.Duration.Seconds(), info.SampleRate, info.Channels, info.BitDepth)
		return nil
	}
}

// notifySaved reports a successful handoff on the desktop
func notifySaved(next app.Handoff, notify func(string)) app.Handoff {
	return func(ctx context.Context, path string) error {
		if err := next(ctx, path); err != nil {
			return err
		}
		notify("Recording saved to " + path)
		return nil
	}
}

// desktopNotifier logs notifications that could not be shown
func desktopNotifier(logger zerolog.Logger, send func(string) error) func(string) {
	return func(message string) {
		if err := send(message); err != nil {
			logger.Warn().Err(err).Str("message", message).Msg("Desktop notification failed")
		}
	}
}
