package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gotd/td/tg"
)

// channelIDOffset is added to channel IDs in the "-100<id>" form used by bot
// APIs and most Telegram clients.
const channelIDOffset = 1_000_000_000_000

// targetRef is a parsed scan target.
type targetRef struct {
	self    bool
	domain  string
	id      int64
	channel bool
	chat    bool
}

// parseTarget accepts "@name", "name", "t.me/name", "https://t.me/name/123",
// "me", numeric user IDs, "-<chat id>" and "-100<channel id>".
func parseTarget(raw string) (targetRef, error) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "me", "self", "saved":
		return targetRef{self: true}, nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		switch {
		case strings.HasPrefix(s, "-100") && -n > channelIDOffset:
			return targetRef{id: -n - channelIDOffset, channel: true}, nil
		case n < 0:
			return targetRef{id: -n, chat: true}, nil
		case n > 0:
			return targetRef{id: n}, nil
		}
		return targetRef{}, fmt.Errorf("invalid target id %q", raw)
	}

	for _, prefix := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, prefix)
	}
	for _, prefix := range []string{"t.me/", "telegram.me/", "@"} {
		s = strings.TrimPrefix(s, prefix)
	}
	if i := strings.IndexAny(s, "/?"); i >= 0 {
		s = s[:i]
	}
	if s == "" || strings.ContainsAny(s, " \t") {
		return targetRef{}, fmt.Errorf("invalid target %q", raw)
	}
	return targetRef{domain: s}, nil
}

// matches reports whether p refers to the numeric target ref.
func (r targetRef) matches(p tg.InputPeerClass) bool {
	switch p := p.(type) {
	case *tg.InputPeerChannel:
		return !r.chat && p.ChannelID == r.id
	case *tg.InputPeerChat:
		return !r.channel && p.ChatID == r.id
	case *tg.InputPeerUser:
		return !r.channel && !r.chat && p.UserID == r.id
	default:
		return false
	}
}
