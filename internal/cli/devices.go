package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petems/thoughtpad/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Long: `List audio input devices in the order the system reports them.
Indices can change between runs when devices are plugged in or removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := audio.NewPortAudio()
		if err != nil {
			return err
		}
		defer backend.Close()

		session, err := audio.NewSession(backend, audio.Options{Logger: log})
		if err != nil {
			return err
		}
		defer session.Close()

		devices, err := session.InputDevices()
		if err != nil {
			return err
		}
		return printDevices(cmd, devices, cfg.PreferredDevice)
	},
}

func printDevices(cmd *cobra.Command, devices []audio.Device, preferred int) error {
	out := cmd.OutOrStdout()
	if len(devices) == 0 {
		fmt.Fprintln(out, "No audio input devices found")
		return nil
	}

	fmt.Fprintf(out, "Audio input devices (%d found):\n", len(devices))
	for _, d := range devices {
		var marks string
		if d.Default {
			marks += " [default]"
		}
		if d.Index == preferred {
			marks += " [preferred]"
		}
		fmt.Fprintf(out, "  %2d. %s (%d ch)%s\n", d.Index, d.Name, d.MaxChannels, marks)
	}
	return nil
}
