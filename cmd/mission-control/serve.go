package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	serveAddr string
	serveEcho bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	Long:  "serve exposes the query, notification and chat endpoints and streams live telemetry over WebSockets.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(cfg, log, nil, serveEcho, os.Stdout)
		if err != nil {
			return err
		}
		ln, err := net.Listen("tcp", cfg.Server.Addr)
		if err != nil {
			return err
		}
		return a.serve(ctx, ln)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config and MISSION_CONTROL_ADDR)")
	serveCmd.Flags().BoolVar(&serveEcho, "echo", false, "Also print produced readings to STDOUT as JSON lines")
}
