package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/matheus3301/tgscan/internal/rpc"
	"github.com/matheus3301/tgscan/internal/scan"
	"github.com/matheus3301/tgscan/internal/tui/model"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/emptypb"
)

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and scan status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, ctx, done, err := c.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			d, err := cl.Session.GetDaemonStatus(ctx, &emptypb.Empty{})
			if err != nil {
				return err
			}
			st, err := cl.Scan.GetScanStatus(ctx, &emptypb.Empty{})
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.outputJSON(struct {
					Daemon *rpc.DaemonStatus `json:"daemon"`
					Scan   *rpc.ScanStatus   `json:"scan"`
				}{d, st})
			}

			c.printf("Daemon:   pid %d, up %s\n", d.PID, (time.Duration(d.UptimeMs) * time.Millisecond).Round(time.Second))
			c.printf("Socket:   %s\n", d.Socket)
			c.printf("Session:  %s\n", st.Session)
			c.printf("State:    %s\n", st.State)
			if st.RunID != "" {
				c.printf("Run:      %s on %s (%s)\n", shortID(st.RunID), st.Target, strings.Join(st.Keywords, ", "))
				c.printf("Counts:   scanned %d, matched %d, forwarded %d\n", st.Scanned, st.Matched, st.Forwarded)
			}
			if st.Last != nil {
				c.printf("Last run: %s %s", shortID(st.Last.RunID), st.Last.Outcome)
				if st.Last.Error != "" {
					c.printf(" (%s)", st.Last.Error)
				}
				c.printf("\n")
			}
			return nil
		},
	}
}

func (c *cli) startCmd() *cobra.Command {
	var (
		target   string
		keywords string
		follow   bool
	)
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start scanning a chat for keywords",
		Example: `  tgscanctl start --target @market --keywords "bike, lock"
  tgscanctl start --target https://t.me/market --keywords bike --follow`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, ctx, done, err := c.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			var events <-chan *rpc.EventEnvelope
			var streamErr <-chan error
			if follow {
				wctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer cancel()
				events, streamErr, err = subscribe(wctx, cl.Scan)
				if err != nil {
					return err
				}
			}

			resp, err := cl.Scan.StartScan(ctx, &rpc.StartScanRequest{
				Target:   target,
				Keywords: scan.ParseKeywords(keywords),
			})
			if err != nil {
				return err
			}
			if !follow {
				if c.jsonOut {
					return c.outputJSON(resp)
				}
				c.printf("Scan %s started.\n", resp.RunID)
				return nil
			}
			return c.follow(resp.RunID, events, streamErr)
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "", "chat to scan (@name, t.me link or numeric id)")
	cmd.Flags().StringVarP(&keywords, "keywords", "k", "", "comma separated keywords")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "stream events until the scan finishes")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("keywords")
	return cmd
}

// follow prints events until runID finishes. A failed run is an error.
func (c *cli) follow(runID string, events <-chan *rpc.EventEnvelope, streamErr <-chan error) error {
	for {
		select {
		case env, ok := <-events:
			if !ok {
				return <-streamErr
			}
			c.printEvent(env)
			if env.Kind != rpc.EventScanFinished {
				continue
			}
			var fin rpc.ScanFinishedEvent
			if err := env.Decode(&fin); err != nil || fin.RunID != runID {
				continue
			}
			if fin.Error != "" {
				return errors.New(fin.Error)
			}
			return nil
		}
	}
}

func (c *cli) stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, ctx, done, err := c.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			resp, err := cl.Scan.StopScan(ctx, &emptypb.Empty{})
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.outputJSON(resp)
			}
			if resp.Stopped {
				c.printf("Stop requested.\n")
			} else {
				c.printf("No scan running.\n")
			}
			return nil
		},
	}
}

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream daemon events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := c.dial(c.socket)
			if err != nil {
				return err
			}
			defer func() { _ = cl.Close() }()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			events, streamErr, err := subscribe(ctx, cl.Scan)
			if err != nil {
				return err
			}
			for env := range events {
				c.printEvent(env)
			}
			if err := <-streamErr; err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

func (c *cli) printEvent(env *rpc.EventEnvelope) {
	if c.jsonOut {
		_ = c.outputJSON(env)
		return
	}
	if line := model.Describe(env); line != "" {
		c.printf("%s\n", line)
	}
}

// subscribe opens the event stream and pumps it into a channel. The error
// channel yields nil on a clean end of stream or cancellation.
func subscribe(ctx context.Context, sc rpc.ScanServiceClient) (<-chan *rpc.EventEnvelope, <-chan error, error) {
	stream, err := sc.WatchScanEvents(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, nil, err
	}
	// Receiving the header confirms the subscription is live before the
	// caller triggers the events it wants to see.
	if _, err := stream.Header(); err != nil {
		return nil, nil, err
	}

	events := make(chan *rpc.EventEnvelope, 64)
	errc := make(chan error, 1)
	go func() {
		defer close(events)
		for {
			env, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) || ctx.Err() != nil {
					err = nil
				}
				errc <- err
				return
			}
			select {
			case events <- env:
			case <-ctx.Done():
				errc <- nil
				return
			}
		}
	}()
	return events, errc, nil
}
