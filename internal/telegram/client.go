package telegram

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"sync"

	tdsession "github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message/peer"
	"github.com/gotd/td/telegram/query"
	"github.com/gotd/td/telegram/query/messages"
	"github.com/gotd/td/tg"
	"github.com/matheus3301/tgscan/internal/scan"
	"github.com/matheus3301/tgscan/internal/secrets"
	"github.com/matheus3301/tgscan/internal/session"
	"github.com/samber/oops"
	"go.uber.org/zap"
)

const defaultHistoryBatch = 100

var (
	// ErrNotAuthorized means the session file holds no logged-in account.
	ErrNotAuthorized = errors.New("session not authorized")
	// ErrNoSession means no session file exists for the requested name.
	ErrNoSession = errors.New("session file not found")
)

// CredentialStore resolves and persists API credentials per session.
type CredentialStore interface {
	Lookup(session string) (secrets.Credentials, error)
	Save(session string, creds secrets.Credentials) error
}

// Options configures a Client.
type Options struct {
	Store        *session.Store
	Credentials  CredentialStore
	HistoryBatch int
	Logger       *zap.Logger
}

// Client connects to Telegram as a user account using persisted sessions.
type Client struct {
	store  *session.Store
	creds  CredentialStore
	batch  int
	logger *zap.Logger
}

var _ scan.Client = (*Client)(nil)

// New creates a Client.
func New(opts Options) *Client {
	if opts.HistoryBatch <= 0 {
		opts.HistoryBatch = defaultHistoryBatch
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		store:  opts.Store,
		creds:  opts.Credentials,
		batch:  opts.HistoryBatch,
		logger: opts.Logger,
	}
}

func (c *Client) newClient(name string, creds secrets.Credentials, h telegram.UpdateHandler) *telegram.Client {
	return telegram.NewClient(creds.APIID, creds.APIHash, telegram.Options{
		SessionStorage: &tdsession.FileStorage{Path: c.store.Path(name)},
		Logger:         c.logger.With(zap.String("session", name)),
		UpdateHandler:  h,
	})
}

// Connect opens an authorized connection with session name and runs fn
// while it is up. The connection is closed when fn returns.
func (c *Client) Connect(ctx context.Context, name string, fn func(ctx context.Context, conn scan.Conn) error) error {
	if !c.store.Exists(name) {
		return oops.With("session", name).Wrap(ErrNoSession)
	}
	creds, err := c.creds.Lookup(name)
	if err != nil {
		return err
	}

	tc := c.newClient(name, creds, nil)
	return tc.Run(ctx, func(ctx context.Context) error {
		status, err := tc.Auth().Status(ctx)
		if err != nil {
			return oops.With("session", name).Wrapf(err, "auth status")
		}
		if !status.Authorized {
			return oops.With("session", name).Wrap(ErrNotAuthorized)
		}
		c.logger.Debug("connected", zap.String("session", name))

		api := tc.API()
		return fn(ctx, &conn{
			api:      api,
			resolver: peer.DefaultResolver(api),
			batch:    c.batch,
			peers:    make(map[string]tg.InputPeerClass),
		})
	})
}

type conn struct {
	api      *tg.Client
	resolver peer.Resolver
	batch    int

	mu    sync.Mutex
	peers map[string]tg.InputPeerClass
}

func (c *conn) History(ctx context.Context, target string) (scan.History, error) {
	p, err := c.resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	it := query.Messages(c.api).GetHistory(p).BatchSize(c.batch).Iter()
	return &history{it: it}, nil
}

func (c *conn) Forward(ctx context.Context, target string, msgID int) error {
	from, err := c.resolve(ctx, target)
	if err != nil {
		return err
	}
	randomID, err := randInt64()
	if err != nil {
		return err
	}
	if _, err := c.api.MessagesForwardMessages(ctx, &tg.MessagesForwardMessagesRequest{
		FromPeer: from,
		ID:       []int{msgID},
		RandomID: []int64{randomID},
		ToPeer:   &tg.InputPeerSelf{},
	}); err != nil {
		return oops.With("target", target, "message_id", msgID).Wrapf(err, "forward message")
	}
	return nil
}

func (c *conn) resolve(ctx context.Context, target string) (tg.InputPeerClass, error) {
	c.mu.Lock()
	p, ok := c.peers[target]
	c.mu.Unlock()
	if ok {
		return p, nil
	}

	ref, err := parseTarget(target)
	if err != nil {
		return nil, oops.With("target", target).Wrap(err)
	}
	switch {
	case ref.self:
		p = &tg.InputPeerSelf{}
	case ref.domain != "":
		p, err = c.resolver.ResolveDomain(ctx, ref.domain)
		if err != nil {
			return nil, oops.With("target", target).Wrapf(err, "resolve username")
		}
	default:
		p, err = c.findDialog(ctx, ref)
		if err != nil {
			return nil, oops.With("target", target).Wrap(err)
		}
	}

	c.mu.Lock()
	c.peers[target] = p
	c.mu.Unlock()
	return p, nil
}

// findDialog looks up a numeric target among the account's dialogs, since
// access hashes are only known for peers the account has seen.
func (c *conn) findDialog(ctx context.Context, ref targetRef) (tg.InputPeerClass, error) {
	it := query.GetDialogs(c.api).BatchSize(100).Iter()
	for it.Next(ctx) {
		if p := it.Value().Peer; ref.matches(p) {
			return p, nil
		}
	}
	if err := it.Err(); err != nil {
		return nil, oops.Wrapf(err, "list dialogs")
	}
	return nil, oops.With("id", ref.id).Errorf("no dialog with id %d", ref.id)
}

type history struct {
	it  *messages.Iterator
	cur scan.Message
}

func (h *history) Next(ctx context.Context) bool {
	if !h.it.Next(ctx) {
		return false
	}
	h.cur = toMessage(h.it.Value().Msg)
	return true
}

func (h *history) Message() scan.Message { return h.cur }

func (h *history) Err() error { return h.it.Err() }

// toMessage keeps only the text body; service messages and media without a
// caption have none.
func toMessage(m tg.NotEmptyMessage) scan.Message {
	if msg, ok := m.(*tg.Message); ok {
		return scan.Message{ID: msg.ID, Text: msg.Message}
	}
	return scan.Message{ID: m.GetID()}
}

func randInt64() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, oops.Wrapf(err, "random id")
	}
	return int64(binary.LittleEndian.Uint64(buf[:])), nil
}
