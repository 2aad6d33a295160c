package tui

import "strings"

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), ":"))
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// Fields splits Args on whitespace.
func (c Command) Fields() []string {
	return strings.Fields(c.Args)
}

// SplitStart splits ":start" arguments into the target and the raw
// keyword list. ok is false when either part is missing.
func (c Command) SplitStart() (target, keywords string, ok bool) {
	target, keywords, found := strings.Cut(c.Args, " ")
	keywords = strings.TrimSpace(keywords)
	if !found || target == "" || keywords == "" {
		return "", "", false
	}
	return target, keywords, true
}
