package scan

import "context"

// Message is a history item as seen by the scanner. An empty Text means the
// message has no text body (media, service message) and is never matched.
type Message struct {
	ID   int
	Text string
}

// History is a lazy, ordered message sequence. Next fetches further pages
// on demand; callers must check Err once Next returns false.
type History interface {
	Next(ctx context.Context) bool
	Message() Message
	Err() error
}

// Conn is an authenticated connection to the messaging platform.
type Conn interface {
	// History opens the target's message history.
	History(ctx context.Context, target string) (History, error)
	// Forward copies message msgID from target into the account's Saved Messages.
	Forward(ctx context.Context, target string, msgID int) error
}

// Client connects with a persisted session and runs fn for the lifetime of
// the connection. Errors returned by fn are passed through.
type Client interface {
	Connect(ctx context.Context, session string, fn func(ctx context.Context, conn Conn) error) error
}
