package session

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the base directory.
const HomeEnv = "TGSCAN_HOME"

// FileExt marks a file in the sessions directory as a persisted session.
const FileExt = ".session"

// BaseDir returns $TGSCAN_HOME, or ~/.tgscan.
func BaseDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tgscan")
}

// SessionsDir returns the directory holding <name>.session files.
func SessionsDir() string {
	return filepath.Join(BaseDir(), "sessions")
}

// FilePath returns the persisted session file for name.
func FilePath(name string) string {
	return filepath.Join(SessionsDir(), name+FileExt)
}

// SocketPath returns the daemon's UDS socket path.
func SocketPath() string {
	return filepath.Join(BaseDir(), "daemon.sock")
}

// LockPath returns the daemon lock file path.
func LockPath() string {
	return filepath.Join(BaseDir(), "LOCK")
}

// AppDBPath returns the journal database path.
func AppDBPath() string {
	return filepath.Join(BaseDir(), "tgscan.db")
}

// LogDir returns the log directory.
func LogDir() string {
	return filepath.Join(BaseDir(), "logs")
}

// LogPath returns the daemon log file path.
func LogPath() string {
	return filepath.Join(LogDir(), "tgscand.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the directory tree with owner-only permissions.
func EnsureDir() error {
	dirs := []string{
		BaseDir(),
		SessionsDir(),
		LogDir(),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
