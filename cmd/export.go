package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/audiolibrelab/duocap/internal/service"
	"github.com/audiolibrelab/duocap/internal/wav"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export a recording at a different sample rate",
	Long: `Re-encode a recorded WAV file at another sample rate using ffmpeg.
Without an argument the most recent recording in the output directory is
exported. The result is written next to the source file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rate, _ := cmd.Flags().GetInt("rate")
		if rate <= 0 {
			return fmt.Errorf("invalid target rate: %d", rate)
		}

		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			var err error
			path, err = service.LastPathIn(cfg.Output.Directory)
			if err != nil {
				return fmt.Errorf("no recording to export: %w", err)
			}
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open recording: %w", err)
		}
		samples, srcRate, err := wav.Decode(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to decode recording: %w", err)
		}

		conv := wav.NewConverter(cfg.Capture.FFmpegPath)
		out, err := conv.Resample(cmd.Context(), samples, srcRate, rate)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		outPath := fmt.Sprintf("%s_%dhz.wav", strings.TrimSuffix(path, ".wav"), rate)
		if err := os.WriteFile(outPath, out, 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}

		fmt.Printf("Exported %s (%d Hz -> %d Hz)\n", outPath, srcRate, rate)
		return nil
	},
}

func init() {
	exportCmd.Flags().Int("rate", 44100, "target sample rate")
}
