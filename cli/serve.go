package cli

import (
	"alarm/integration/ntfy"
	"alarm/monitor"
	"alarm/server"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Expose the alarm relay over an HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			s := server.New(cfg.Server, newSwitch(cfg, opts.mqtt, ""), ntfy.New(cfg.NTFY)).
				WithMonitor(monitor.New(cfg.Monitor))
			defer s.Close()

			return s.ListenAndServe(cmd.Context())
		},
	}
}
