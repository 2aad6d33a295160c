package scan

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Request is an immutable scan order: a target channel or group and the
// keywords to look for.
type Request struct {
	Target   string
	Keywords []string
}

// NewRequest normalizes and validates a request. Keywords are trimmed,
// empty entries dropped and duplicates removed, keeping first-seen order.
func NewRequest(target string, keywords []string) (Request, error) {
	r := Request{
		Target:   strings.TrimSpace(target),
		Keywords: normalizeKeywords(keywords),
	}
	if err := r.Validate(); err != nil {
		return Request{}, err
	}
	return r, nil
}

// ParseKeywords splits comma- or newline-separated operator input.
func ParseKeywords(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	return normalizeKeywords(parts)
}

// Validate reports ErrInvalidRequest when target or keywords are empty.
func (r Request) Validate() error {
	if r.Target == "" {
		return fmt.Errorf("%w: target is empty", ErrInvalidRequest)
	}
	if len(r.Keywords) == 0 {
		return fmt.Errorf("%w: no keywords", ErrInvalidRequest)
	}
	return nil
}

func normalizeKeywords(in []string) []string {
	trimmed := lo.FilterMap(in, func(kw string, _ int) (string, bool) {
		kw = strings.TrimSpace(kw)
		return kw, kw != ""
	})
	return lo.Uniq(trimmed)
}
