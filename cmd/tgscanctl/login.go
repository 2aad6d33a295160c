package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/matheus3301/tgscan/internal/config"
	"github.com/matheus3301/tgscan/internal/logging"
	"github.com/matheus3301/tgscan/internal/qrterm"
	"github.com/matheus3301/tgscan/internal/secrets"
	"github.com/matheus3301/tgscan/internal/session"
	"github.com/matheus3301/tgscan/internal/telegram"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

type loginFlags struct {
	qr         bool
	phone      string
	apiID      int
	apiHash    string
	setDefault bool
}

func (c *cli) loginCmd() *cobra.Command {
	var f loginFlags
	cmd := &cobra.Command{
		Use:   "login <name>",
		Short: "Create a new session by logging in to Telegram",
		Long: `Create <base>/sessions/<name>.session by logging in with a phone code, or
with --qr by scanning a QR code from an already logged-in Telegram app.
Accounts with two-step verification are asked for their password.

API credentials come from --api-id/--api-hash, the keyring, TGSCAN_API_ID and
TGSCAN_API_HASH, or config.toml, in that order. They are saved to the keyring
for the new session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.login(cmd.Context(), args[0], f)
		},
	}
	cmd.Flags().BoolVar(&f.qr, "qr", false, "log in by scanning a QR code")
	cmd.Flags().StringVar(&f.phone, "phone", "", "phone number in international format")
	cmd.Flags().IntVar(&f.apiID, "api-id", 0, "Telegram API id")
	cmd.Flags().StringVar(&f.apiHash, "api-hash", "", "Telegram API hash")
	cmd.Flags().BoolVar(&f.setDefault, "default", false, "make this the default session")
	return cmd
}

func (c *cli) login(ctx context.Context, name string, f loginFlags) error {
	if err := session.ValidateName(name); err != nil {
		return err
	}
	if err := session.EnsureDir(); err != nil {
		return err
	}
	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		return err
	}

	creds := secrets.NewStore(secrets.Credentials{APIID: cfg.APIID, APIHash: cfg.APIHash})
	login, err := resolveCredentials(name, f, creds)
	if err != nil {
		return err
	}

	logger, err := logging.New(filepath.Join(session.LogDir(), "tgscanctl.log"), c.debug,
		zap.String("cmd", "login"), zap.String("session", name))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client := telegram.New(telegram.Options{
		Store:       session.NewStore(session.SessionsDir()),
		Credentials: creds,
		Logger:      logger.Named("mtproto"),
	})

	opts := telegram.LoginOptions{
		Session:     name,
		Credentials: login,
		Prompter:    newPrompter(c.in, c.out, f.phone),
	}
	if f.qr {
		opts.ShowQR = func(url string) error {
			block, err := qrterm.Render(url, "  ")
			if err != nil {
				return err
			}
			c.printf("\nScan this code in Telegram: Settings > Devices > Link Desktop Device\n\n%s\n", block)
			return nil
		}
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	acct, err := client.Login(ctx, opts)
	if err != nil {
		return err
	}
	logger.Info("session created", zap.Int64("user_id", acct.ID))

	who := acct.FirstName
	if acct.Username != "" {
		who += " (@" + acct.Username + ")"
	}
	c.printf("Logged in as %s. Session %q saved.\n", strings.TrimSpace(who), name)

	if f.setDefault || cfg.DefaultSession == "" {
		cfg.DefaultSession = name
		if err := config.Save(session.ConfigPath(), cfg); err != nil {
			return err
		}
		c.printf("Default session set to %q.\n", name)
	}
	return nil
}

// credentialSource looks up saved API credentials for a session.
type credentialSource interface {
	Lookup(session string) (secrets.Credentials, error)
}

// resolveCredentials picks the API credentials for a login: flags win,
// then whatever the store resolves (keyring, then config fallback).
func resolveCredentials(name string, f loginFlags, src credentialSource) (secrets.Credentials, error) {
	if f.apiID != 0 || f.apiHash != "" {
		creds := secrets.Credentials{APIID: f.apiID, APIHash: f.apiHash}
		if !creds.Valid() {
			return secrets.Credentials{}, oops.Errorf("both --api-id and --api-hash are required")
		}
		return creds, nil
	}
	creds, err := src.Lookup(name)
	if err != nil {
		return secrets.Credentials{}, oops.
			Hint("pass --api-id and --api-hash, or set api_id and api_hash in config.toml").
			Wrap(err)
	}
	return creds, nil
}

// prompter reads login answers line by line. Passwords are read without
// echo when input is a terminal.
type prompter struct {
	in    *bufio.Reader
	fd    int
	tty   bool
	out   io.Writer
	phone string
}

func newPrompter(in io.Reader, out io.Writer, phone string) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out, phone: phone, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.tty = true
	}
	return p
}

func (p *prompter) Phone(ctx context.Context) (string, error) {
	if p.phone != "" {
		return p.phone, nil
	}
	return p.ask(ctx, "Phone number (international format): ")
}

func (p *prompter) Code(ctx context.Context) (string, error) {
	return p.ask(ctx, "Login code: ")
}

func (p *prompter) Password(ctx context.Context) (string, error) {
	if !p.tty {
		return p.ask(ctx, "Two-step verification password: ")
	}
	_, _ = fmt.Fprint(p.out, "Two-step verification password: ")
	b, err := term.ReadPassword(p.fd)
	_, _ = fmt.Fprintln(p.out)
	if err != nil {
		return "", oops.Wrapf(err, "read password")
	}
	return string(b), nil
}

func (p *prompter) ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	_, _ = fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && (err != io.EOF || line == "") {
		return "", oops.Wrapf(err, "read answer")
	}
	if line == "" {
		return "", oops.Errorf("empty answer")
	}
	return line, nil
}
