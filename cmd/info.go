package cmd

import (
	"fmt"
	"os/exec"

	"github.com/audiolibrelab/duocap/internal/capture"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show resolved configuration and external tool availability",
	Long: `Display the resolved configuration paths and check that the external
tools each capture backend depends on are installed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("=== PATHS ===\n")
		fmt.Printf("config:     %s\n", cfgFile)
		fmt.Printf("recordings: %s\n", cfg.Output.Directory)

		fmt.Printf("\n=== AUDIO ===\n")
		fmt.Printf("sample_rate:       %d\n", cfg.Audio.SampleRate)
		fmt.Printf("system_audio:      %t\n", cfg.Audio.SystemAudioEnabled)
		fmt.Printf("echo_cancellation: %t (sensitivity: %s)\n",
			cfg.Audio.EchoCancellationEnabled, cfg.Audio.EchoSensitivity)
		fmt.Printf("scenario:          system=%s voice=%s\n",
			cfg.Audio.SystemAudioScenario, cfg.Audio.VoiceRecordingMode)

		fmt.Printf("\n=== BACKENDS ===\n")
		fmt.Printf("configured: %s\n", cfg.Capture.Backend)
		for _, backend := range capture.GetAvailableBackends() {
			fmt.Printf("  %-8s %s\n", backend, backendToolStatus(backend))
		}

		ffmpeg := cfg.Capture.FFmpegPath
		if ffmpeg == "" {
			ffmpeg = "ffmpeg"
		}
		fmt.Printf("\n=== TOOLS ===\n")
		for _, tool := range []string{"parec", "pw-record", "pw-link", "pactl", ffmpeg} {
			fmt.Printf("  %-12s %s\n", tool, toolStatus(tool))
		}

		return nil
	},
}

func backendToolStatus(backend capture.BackendType) string {
	switch backend {
	case capture.BackendTypeProcess:
		return "requires parec"
	case capture.BackendTypeStream:
		return "requires pw-record and pw-link"
	default:
		return ""
	}
}

func toolStatus(tool string) string {
	if _, err := exec.LookPath(tool); err != nil {
		return "MISSING"
	}
	return "ok"
}
