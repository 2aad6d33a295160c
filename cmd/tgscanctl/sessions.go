package main

import (
	"github.com/matheus3301/tgscan/internal/rpc"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/emptypb"
)

func (c *cli) sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List or select sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the sessions known to the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, ctx, done, err := c.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			resp, err := cl.Session.ListSessions(ctx, &emptypb.Empty{})
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.outputJSON(resp)
			}
			if len(resp.Sessions) == 0 {
				c.printf("No sessions found. Create one with: tgscanctl login <name>\n")
				return nil
			}
			for _, s := range resp.Sessions {
				marker := " "
				if s.Active {
					marker = "*"
				}
				c.printf("%s %-20s %s\n", marker, s.Name, s.Path)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "select <name>",
		Short: "Make a session active (refused while a scan runs)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, ctx, done, err := c.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			resp, err := cl.Session.SelectSession(ctx, &rpc.SelectSessionRequest{Name: args[0]})
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.outputJSON(resp)
			}
			c.printf("Active session: %s\n", resp.Active)
			return nil
		},
	})

	return cmd
}

func (c *cli) runsCmd() *cobra.Command {
	var (
		limit   int32
		session string
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List journaled scan runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, ctx, done, err := c.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			resp, err := cl.Scan.ListRuns(ctx, &rpc.ListRunsRequest{Session: session, Limit: limit})
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.outputJSON(resp)
			}
			if len(resp.Runs) == 0 {
				c.printf("No runs recorded.\n")
				return nil
			}
			c.printf("%-8s  %-19s  %-12s  %-24s  %-11s  %7s  %7s  %5s\n",
				"RUN", "STARTED", "SESSION", "TARGET", "OUTCOME", "SCANNED", "MATCHED", "FWD")
			for _, r := range resp.Runs {
				c.printf("%-8s  %-19s  %-12s  %-24s  %-11s  %7d  %7d  %5d\n",
					shortID(r.RunID), formatTime(r.StartedAtUnixMs), r.Session, r.Target,
					r.Outcome, r.Scanned, r.Matched, r.Forwarded)
				if r.Error != "" {
					c.printf("          error: %s\n", r.Error)
				}
			}
			return nil
		},
	}
	cmd.Flags().Int32VarP(&limit, "limit", "n", 20, "maximum number of runs")
	cmd.Flags().StringVar(&session, "session", "", "only runs of this session")
	return cmd
}

func (c *cli) forwardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forwards <run-id>",
		Short: "List the messages a run forwarded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, ctx, done, err := c.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			resp, err := cl.Scan.ListForwards(ctx, &rpc.ListForwardsRequest{RunID: args[0]})
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.outputJSON(resp)
			}
			if len(resp.Forwards) == 0 {
				c.printf("No forwards recorded for %s.\n", args[0])
				return nil
			}
			for _, f := range resp.Forwards {
				c.printf("%10d  %-19s  %s\n", f.MsgID, formatTime(f.ForwardedAtUnixMs), f.Keyword)
			}
			return nil
		},
	}
}

func (c *cli) shutdownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown",
		Short: "Stop the daemon, cancelling any running scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, ctx, done, err := c.connect(cmd)
			if err != nil {
				return err
			}
			defer done()

			if _, err := cl.Session.Shutdown(ctx, &emptypb.Empty{}); err != nil {
				return err
			}
			c.printf("Daemon shutting down.\n")
			return nil
		},
	}
}
