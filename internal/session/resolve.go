package session

import "github.com/matheus3301/tgscan/internal/config"

const DefaultSessionName = "main"

// Resolve determines the initially active session name using precedence:
// 1. flagOverride (--session flag)
// 2. config.toml default_session
// 3. the first session file in the store
// 4. "main"
func Resolve(flagOverride string, cfg *config.Config, store *Store) string {
	if flagOverride != "" {
		return flagOverride
	}
	if cfg != nil && cfg.DefaultSession != "" {
		return cfg.DefaultSession
	}
	if store != nil {
		if names, err := store.List(); err == nil && len(names) > 0 {
			return names[0]
		}
	}
	return DefaultSessionName
}
