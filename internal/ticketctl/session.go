package ticketctl

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SessionFileEnv overrides the session file location.
const SessionFileEnv = "TICKETFLOW_SESSION_FILE"

// ErrNoSession is returned when nobody is logged in.
var ErrNoSession = errors.New(`not logged in, run "ticketctl login" first`)

// Session is the saved login: where the API lives and the bearer token
// to present to it.
type Session struct {
	APIURL string `json:"api_url"`
	Token  string `json:"token"`
}

// SessionFilePath returns $TICKETFLOW_SESSION_FILE, or
// $XDG_CONFIG_HOME/ticketflow/session.json, or ~/.config/ticketflow/session.json.
func SessionFilePath() string {
	if envPath := os.Getenv(SessionFileEnv); envPath != "" {
		return envPath
	}
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "ticketflow-session.json")
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "ticketflow", "session.json")
}

// LoadSession reads the session at path.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("reading session file %s: %w", path, err)
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parsing session file %s: %w", path, err)
	}
	if session.Token == "" || session.APIURL == "" {
		return nil, ErrNoSession
	}
	return &session, nil
}

// SaveSession writes session to path with owner-only permissions, creating
// the parent directory when needed.
func SaveSession(session *Session, path string) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating session directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing session file %s: %w", path, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("securing session file %s: %w", path, err)
	}
	return nil
}

// RemoveSession deletes the session file. A missing file is not an error.
func RemoveSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file %s: %w", path, err)
	}
	return nil
}
