package telegram

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/auth/qrlogin"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/matheus3301/tgscan/internal/secrets"
	"github.com/matheus3301/tgscan/internal/session"
	"github.com/samber/oops"
	"go.uber.org/zap"
)

// ErrSessionExists is returned when logging in would overwrite a session file.
var ErrSessionExists = errors.New("session already exists")

// Prompter asks the operator for login input.
type Prompter interface {
	Phone(ctx context.Context) (string, error)
	Code(ctx context.Context) (string, error)
	Password(ctx context.Context) (string, error)
}

// Account describes the user a session is logged in as.
type Account struct {
	ID        int64
	Username  string
	FirstName string
	Phone     string
}

// LoginOptions configures a new session login.
type LoginOptions struct {
	Session     string
	Credentials secrets.Credentials
	Prompter    Prompter
	// ShowQR, when set, switches to QR login and is called with every
	// login token URL.
	ShowQR func(url string) error
}

// Login creates a new session file and authenticates it, either by phone
// code or by QR token. Two-step verification prompts for the password. On
// success the credentials are saved for the session; on failure the
// partial session file is removed.
func (c *Client) Login(ctx context.Context, opts LoginOptions) (acct Account, err error) {
	name := opts.Session
	if err := session.ValidateName(name); err != nil {
		return Account{}, err
	}
	if !opts.Credentials.Valid() {
		return Account{}, oops.With("session", name).Wrap(secrets.ErrNoCredentials)
	}
	if opts.Prompter == nil && opts.ShowQR == nil {
		return Account{}, errors.New("login needs a prompter or a qr display")
	}
	if c.store.Exists(name) {
		return Account{}, oops.With("session", name).Wrap(ErrSessionExists)
	}
	if err := os.MkdirAll(c.store.Dir(), 0700); err != nil {
		return Account{}, oops.With("path", c.store.Dir()).Wrapf(err, "create sessions dir")
	}
	defer func() {
		if err != nil {
			_ = os.Remove(c.store.Path(name))
		}
	}()

	var (
		dispatcher tg.UpdateDispatcher
		handler    telegram.UpdateHandler
	)
	if opts.ShowQR != nil {
		dispatcher = tg.NewUpdateDispatcher()
		handler = dispatcher
	}
	tc := c.newClient(name, opts.Credentials, handler)

	err = tc.Run(ctx, func(ctx context.Context) error {
		var loginErr error
		if opts.ShowQR != nil {
			loginErr = c.loginQR(ctx, tc, qrlogin.OnLoginToken(dispatcher), opts)
		} else {
			loginErr = c.loginCode(ctx, tc, opts.Prompter)
		}
		if loginErr != nil {
			return loginErr
		}
		self, err := tc.Self(ctx)
		if err != nil {
			return oops.Wrapf(err, "get self")
		}
		acct = Account{
			ID:        self.ID,
			Username:  self.Username,
			FirstName: self.FirstName,
			Phone:     self.Phone,
		}
		return nil
	})
	if err != nil {
		return Account{}, oops.With("session", name).Wrap(err)
	}

	if err := c.creds.Save(name, opts.Credentials); err != nil {
		c.logger.Warn("credentials not saved to keyring", zap.String("session", name), zap.Error(err))
	}
	c.logger.Info("session logged in", zap.String("session", name), zap.Int64("user_id", acct.ID))
	return acct, nil
}

func (c *Client) loginCode(ctx context.Context, tc *telegram.Client, p Prompter) error {
	phone, err := p.Phone(ctx)
	if err != nil {
		return err
	}
	sent, err := tc.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return oops.Wrapf(err, "send code")
	}
	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return fmt.Errorf("unexpected sent code type %T", sent)
	}

	input, err := p.Code(ctx)
	if err != nil {
		return err
	}
	_, err = tc.Auth().SignIn(ctx, phone, input, code.PhoneCodeHash)
	if errors.Is(err, auth.ErrPasswordAuthNeeded) {
		return c.checkPassword(ctx, tc, p)
	}
	if err != nil {
		return oops.Wrapf(err, "sign in")
	}
	return nil
}

func (c *Client) loginQR(ctx context.Context, tc *telegram.Client, loggedIn qrlogin.LoggedIn, opts LoginOptions) error {
	_, err := tc.QR().Auth(ctx, loggedIn, func(ctx context.Context, token qrlogin.Token) error {
		return opts.ShowQR(token.URL())
	})
	if tgerr.Is(err, "SESSION_PASSWORD_NEEDED") {
		return c.checkPassword(ctx, tc, opts.Prompter)
	}
	if err != nil {
		return oops.Wrapf(err, "qr login")
	}
	return nil
}

func (c *Client) checkPassword(ctx context.Context, tc *telegram.Client, p Prompter) error {
	if p == nil {
		return auth.ErrPasswordAuthNeeded
	}
	pw, err := p.Password(ctx)
	if err != nil {
		return err
	}
	if _, err := tc.Auth().Password(ctx, pw); err != nil {
		return oops.Wrapf(err, "check password")
	}
	return nil
}
