package cmd

import (
	"fmt"

	"github.com/audiolibrelab/duocap/internal/capture"

	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available capture sources",
	Long: `List the audio sources the capture layer can record from. Monitor
sources carry system audio output; the rest are microphones or other
inputs. Use the names with capture.mic_source and capture.system_source.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pw := capture.NewPipeWire()
		sources, err := pw.ListSources()
		if err != nil {
			return fmt.Errorf("failed to list sources: %w", err)
		}

		if len(sources) == 0 {
			fmt.Println("No capture sources found")
			return nil
		}

		fmt.Printf("Capture sources (%d found):\n", len(sources))
		for _, src := range sources {
			kind := "input"
			if src.IsMonitor {
				kind = "monitor"
			}
			fmt.Printf("  %-8s %s\n", kind, src.Name)
		}

		fmt.Println("\nConfigure with:")
		fmt.Println("  duocap config set capture.mic_source=<input name>")
		fmt.Println("  duocap config set capture.system_source=<monitor name>")
		return nil
	},
}
