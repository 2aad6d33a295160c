package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/matheus3301/tgscan/internal/session"
	"github.com/matheus3301/tgscan/internal/tui/client"
	"github.com/matheus3301/tgscan/internal/tui/model"
	"github.com/spf13/cobra"
)

// cli carries the global flags and I/O shared by all commands.
type cli struct {
	socket  string
	jsonOut bool
	timeout time.Duration
	debug   bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	dial   func(socket string) (*client.Client, error)
}

func main() {
	c := &cli{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		dial:   client.New,
	}
	if err := newRootCmd(c).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", model.ErrorText(err))
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "tgscanctl",
		Short:         "Control the tgscan daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&c.socket, "socket", session.SocketPath(), "daemon control socket")
	pf.BoolVar(&c.jsonOut, "json", false, "output in JSON format")
	pf.DurationVar(&c.timeout, "timeout", 10*time.Second, "timeout for daemon calls")
	pf.BoolVar(&c.debug, "debug", false, "verbose logging (login)")

	root.AddCommand(
		c.statusCmd(),
		c.startCmd(),
		c.stopCmd(),
		c.watchCmd(),
		c.sessionsCmd(),
		c.runsCmd(),
		c.forwardsCmd(),
		c.loginCmd(),
		c.shutdownCmd(),
	)
	return root
}

// connect dials the daemon and returns a call context bounded by --timeout.
func (c *cli) connect(cmd *cobra.Command) (*client.Client, context.Context, context.CancelFunc, error) {
	cl, err := c.dial(c.socket)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	return cl, ctx, func() {
		cancel()
		_ = cl.Close()
	}, nil
}

func (c *cli) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func (c *cli) outputJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTime(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format(time.DateTime)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
