// Command lobbyserver runs the SFS2X-compatible lobby server: the
// BlueBox HTTP tunnel and the direct TCP endpoint, sharing one session
// registry, one room registry, and one message processor.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/race/lobbyserver/internal/config"
	"github.com/race/lobbyserver/internal/logger"
	"github.com/race/lobbyserver/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lobbyserver",
		Short: "SFS2X-compatible multiplayer lobby server",
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		configPath  string
		blueBoxPort int
		tcpPort     int
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the BlueBox HTTP and direct TCP listeners",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("bluebox-port") {
				cfg.Ports.BlueBoxHTTP = blueBoxPort
			}
			if cmd.Flags().Changed("tcp-port") {
				cfg.Ports.SFS2XDirect = tcpPort
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level = logLevel
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			log := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
			srv := server.New(cfg, log)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().IntVar(&blueBoxPort, "bluebox-port", config.DefaultBlueBoxPort, "BlueBox HTTP listen port")
	cmd.Flags().IntVar(&tcpPort, "tcp-port", config.DefaultSFS2XPort, "direct SFS2X TCP listen port")
	cmd.Flags().StringVar(&logLevel, "log-level", "INFO", "log level: DEBUG, INFO, WARN, ERROR")

	return cmd
}
