// Package matcher decides whether a message body contains any of a set of
// keywords as a standalone word.
package matcher

import (
	"regexp"
	"strings"
)

// Word characters are Unicode letters, Unicode digits and underscore.
// RE2's \b only knows ASCII, which would never match a Cyrillic keyword.
const (
	leftBoundary  = `(?:^|[^\p{L}\p{N}_])`
	rightBoundary = `(?:[^\p{L}\p{N}_]|$)`
)

// Matcher holds compiled whole-word patterns for an ordered keyword list.
type Matcher struct {
	keywords []string
	patterns []*regexp.Regexp
}

// New compiles keywords into a Matcher. Keywords are trimmed and lower-cased;
// empty ones are dropped so they can never match every position.
func New(keywords []string) *Matcher {
	m := &Matcher{}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		m.keywords = append(m.keywords, kw)
		m.patterns = append(m.patterns, regexp.MustCompile(leftBoundary+regexp.QuoteMeta(kw)+rightBoundary))
	}
	return m
}

// Keywords returns the normalized keywords in match order.
func (m *Matcher) Keywords() []string {
	return m.keywords
}

// Len returns the number of usable keywords.
func (m *Matcher) Len() int {
	return len(m.patterns)
}

// Match reports the first keyword found in text as a standalone word.
func (m *Matcher) Match(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	lowered := strings.ToLower(text)
	for i, re := range m.patterns {
		if re.MatchString(lowered) {
			return m.keywords[i], true
		}
	}
	return "", false
}

// Matches is the one-shot form of New(keywords).Match(text).
func Matches(text string, keywords []string) bool {
	_, ok := New(keywords).Match(text)
	return ok
}
