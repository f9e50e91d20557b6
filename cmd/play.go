package cmd

import (
	"fmt"

	"github.com/audiolibrelab/duocap/internal/play"
	"github.com/audiolibrelab/duocap/internal/service"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [file]",
	Short: "Play a recording",
	Long: `Play a recorded WAV file through the system audio player. Without an
argument the most recent recording in the output directory is played.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			var err error
			path, err = service.LastPathIn(cfg.Output.Directory)
			if err != nil {
				return fmt.Errorf("no recording to play: %w", err)
			}
		}

		if err := play.New().Play(path); err != nil {
			return fmt.Errorf("playback failed: %w", err)
		}
		return nil
	},
}
