package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/petems/thoughtpad/internal/note"
)

var noteCmd = &cobra.Command{
	Use:   "note [file]",
	Short: "Split a formatted transcript into title and body",
	Long: `Read a formatted transcript ("Title: ..." followed by the body) from a
file, or stdin when no file is given, and print its title and body as YAML.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open note: %w", err)
			}
			defer f.Close()
			in = f
		}
		return printNote(in, cmd.OutOrStdout())
	},
}

func printNote(in io.Reader, out io.Writer) error {
	text, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read note: %w", err)
	}

	n, err := note.Parse(string(text))
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(out)
	defer enc.Close()
	return enc.Encode(n)
}
