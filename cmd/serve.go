package cmd

import (
	"fmt"

	"github.com/audiolibrelab/duocap/internal/server"
	"github.com/audiolibrelab/duocap/internal/service"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server for remote control",
	Long: `Start the DuoCap web server to control recording over HTTP.
This allows starting and stopping recordings from another device on the
same network; a WebSocket endpoint at /ws pushes live status updates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		if port == "" {
			port = cfg.Server.Port
		}

		svc := service.New(cfg, cfgFile)
		srv := server.NewServer(svc, port)

		// Start server (this blocks)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("port", "", "port for the web server (overrides config)")
}
