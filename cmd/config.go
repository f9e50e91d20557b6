package cmd

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and manage DuoCap configuration settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set key=value [key=value...]",
	Short: "Update configuration values",
	Long: `Update one or more configuration values and persist them to the
config file. Keys use dotted paths, for example:

  duocap config set audio.echo_sensitivity=high
  duocap config set audio.system_audio_enabled=false capture.backend=stream`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		updates := make(map[string]string, len(args))
		for _, arg := range args {
			key, value, found := strings.Cut(arg, "=")
			if !found {
				return fmt.Errorf("invalid argument %q, expected key=value", arg)
			}
			updates[key] = value
		}

		if err := cfg.ApplyUpdates(updates); err != nil {
			return err
		}
		if err := cfg.Save(cfgFile); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Updated %d setting(s) in %s\n", len(updates), cfgFile)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
