package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/matheus3301/tgscan/internal/rpc"
	"github.com/matheus3301/tgscan/internal/session"
	"github.com/matheus3301/tgscan/internal/tui"
	"github.com/matheus3301/tgscan/internal/tui/client"
	"github.com/matheus3301/tgscan/internal/tui/model"
	"github.com/spf13/cobra"
)

func main() {
	var (
		socketPath  string
		sessionName string
		noStart     bool
	)

	cmd := &cobra.Command{
		Use:           "tgscan",
		Short:         "Terminal UI for scanning a Telegram chat for keywords",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sessionName != "" {
				if err := session.ValidateName(sessionName); err != nil {
					return err
				}
			}

			// Probe daemon health; auto-start if needed.
			if !client.Probe(socketPath, 2*time.Second) {
				if noStart {
					return fmt.Errorf("daemon not running on %s", socketPath)
				}
				fmt.Fprintln(os.Stderr, "daemon not running, starting...")
				if err := startDaemon(socketPath, sessionName); err != nil {
					return fmt.Errorf("start daemon: %w", err)
				}
				if !waitForDaemon(socketPath, 10*time.Second) {
					return fmt.Errorf("daemon did not become ready")
				}
			}

			c, err := client.New(socketPath)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if sessionName != "" {
				if err := selectSession(c, sessionName); err != nil {
					return err
				}
			}
			return tui.NewApp(c).Run()
		},
	}
	cmd.Flags().StringVar(&socketPath, "socket", session.SocketPath(), "daemon control socket")
	cmd.Flags().StringVar(&sessionName, "session", "", "session to select on start")
	cmd.Flags().BoolVar(&noStart, "no-start", false, "do not start the daemon when it is not running")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", model.ErrorText(err))
		os.Exit(1)
	}
}

// selectSession makes name active on an already running daemon. A daemon
// busy with a scan keeps its session; the UI shows which one is active.
func selectSession(c *client.Client, name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := c.Session.SelectSession(ctx, &rpc.SelectSessionRequest{Name: name})
	if err != nil && model.IsScanInProgress(err) {
		fmt.Fprintf(os.Stderr, "scan in progress, keeping the current session\n")
		return nil
	}
	return err
}

func startDaemon(socketPath, sessionName string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	tgscand := filepath.Join(filepath.Dir(executable), "tgscand")
	if _, err := os.Stat(tgscand); err != nil {
		tgscand = "tgscand"
	}

	args := []string{"--socket", socketPath}
	if sessionName != "" {
		args = append(args, "--session", sessionName)
	}
	cmd := exec.Command(tgscand, args...)
	// Inherit stderr so daemon startup errors are visible.
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

// waitForDaemon polls with a real status call, not just a socket connect.
func waitForDaemon(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if client.Probe(socketPath, time.Second) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}
