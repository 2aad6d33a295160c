package main

import (
	"fmt"
	"os"

	"github.com/matheus3301/tgscan/internal/daemon"
	"github.com/matheus3301/tgscan/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func main() {
	var p daemon.Params

	cmd := &cobra.Command{
		Use:           "tgscand",
		Short:         "Run the Telegram keyword scan daemon",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if p.Session != "" {
				if err := session.ValidateName(p.Session); err != nil {
					return err
				}
			}
			app := fx.New(daemon.Module(p))
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
	cmd.Flags().StringVar(&p.Session, "session", "", "session name (overrides config default)")
	cmd.Flags().StringVar(&p.SocketPath, "socket", "", "control socket path (default <base>/daemon.sock)")
	cmd.Flags().BoolVar(&p.Debug, "debug", false, "log at debug level")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
