package secrets

import (
	"encoding/json"
	"errors"

	"github.com/samber/oops"
	"github.com/zalando/go-keyring"
)

const keyringService = "tgscan"

// ErrNoCredentials is returned when neither the keyring nor the config holds
// API credentials for a session.
var ErrNoCredentials = errors.New("no api credentials")

// Credentials identify the Telegram application a session logs in through.
type Credentials struct {
	APIID   int    `json:"api_id"`
	APIHash string `json:"api_hash"`
}

// Valid reports whether both fields are set.
func (c Credentials) Valid() bool {
	return c.APIID > 0 && c.APIHash != ""
}

// Store keeps per-session credentials in the OS keyring. Lookups fall back to
// the credentials from config.toml.
type Store struct {
	service  string
	fallback Credentials
}

// NewStore creates a keyring-backed store.
func NewStore(fallback Credentials) *Store {
	return &Store{service: keyringService, fallback: fallback}
}

// Save stores creds for session.
func (s *Store) Save(session string, creds Credentials) error {
	if !creds.Valid() {
		return oops.With("session", session).Wrap(ErrNoCredentials)
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return oops.With("session", session).Wrapf(err, "encode credentials")
	}
	if err := keyring.Set(s.service, session, string(data)); err != nil {
		return oops.With("session", session).Wrapf(err, "write keyring")
	}
	return nil
}

// Lookup returns the credentials for session.
func (s *Store) Lookup(session string) (Credentials, error) {
	val, err := keyring.Get(s.service, session)
	switch {
	case err == nil:
		var creds Credentials
		if err := json.Unmarshal([]byte(val), &creds); err != nil {
			return Credentials{}, oops.With("session", session).Wrapf(err, "decode keyring entry")
		}
		if creds.Valid() {
			return creds, nil
		}
	case !errors.Is(err, keyring.ErrNotFound):
		// Headless hosts have no secret service; config still works there.
		if s.fallback.Valid() {
			return s.fallback, nil
		}
		return Credentials{}, oops.With("session", session).Wrapf(err, "read keyring")
	}
	if s.fallback.Valid() {
		return s.fallback, nil
	}
	return Credentials{}, oops.With("session", session).Wrap(ErrNoCredentials)
}

// Delete removes the entry for session. Missing entries are not an error.
func (s *Store) Delete(session string) error {
	err := keyring.Delete(s.service, session)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return oops.With("session", session).Wrapf(err, "delete keyring entry")
	}
	return nil
}
