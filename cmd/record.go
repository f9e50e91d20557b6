package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/audiolibrelab/duocap/internal/service"

	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record microphone and system audio",
	Long: `Record audio from the microphone and the system audio monitor
simultaneously. The two sources are echo-cancelled and mixed into a
single mono WAV file in the output directory. Press Ctrl+C to stop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if out, _ := cmd.Flags().GetString("output"); out != "" {
			cfg.Output.Directory = out
		}

		svc := service.New(cfg, cfgFile)

		if err := svc.StartRecording(cmd.Context()); err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}

		slog.Info("Recording... Press Ctrl+C to stop")

		// Handle interruption
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		slog.Info("Stopping recording...")

		result, err := svc.StopRecording(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to stop recording: %w", err)
		}
		if result == nil {
			fmt.Println("No recording produced")
			return nil
		}

		fmt.Printf("Recorded %s at %d Hz (%d bytes)\n",
			result.Duration.Round(10*time.Millisecond), result.SampleRate, len(result.Container))
		return nil
	},
}

func init() {
	recordCmd.Flags().StringP("output", "o", "", "output directory (overrides config)")
}
