// Package prefs persists interface settings between runs as a small JSON
// file in the user's config directory.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const settingsFile = "settings.json"

// Settings is the interface state worth carrying across runs. Fields absent
// from an older settings file keep their defaults on load.
type Settings struct {
	WindowWidth  float32 `json:"windowWidth"`
	WindowHeight float32 `json:"windowHeight"`
	SplitOffset  float64 `json:"splitOffset"`
	SnapEnabled  bool    `json:"snapEnabled"`
	GridVisible  bool    `json:"gridVisible"`
	LastSession  string  `json:"lastSession,omitempty"`
	LastImageDir string  `json:"lastImageDir,omitempty"`
}

// Defaults returns the settings for a first run.
func Defaults() Settings {
	return Settings{
		WindowWidth:  1280,
		WindowHeight: 800,
		SplitOffset:  0.25,
		SnapEnabled:  true,
		GridVisible:  true,
	}
}

// Store holds the live settings and their file path. Access goes through
// Get and Update so the periodic autosave sees a consistent value.
type Store struct {
	mu       sync.Mutex
	path     string
	settings Settings
}

// Open loads the settings from ~/.config/light-table/settings.json. A
// missing or unreadable file yields the defaults.
func Open() *Store {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	st := &Store{
		path:     filepath.Join(configDir, "light-table", settingsFile),
		settings: Defaults(),
	}

	data, err := os.ReadFile(st.path)
	if err != nil {
		return st
	}
	loaded := Defaults()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return st
	}
	st.settings = loaded
	return st
}

// Get returns the current settings.
func (st *Store) Get() Settings {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.settings
}

// Update applies fn to the settings under the store lock.
func (st *Store) Update(fn func(*Settings)) {
	st.mu.Lock()
	fn(&st.settings)
	st.mu.Unlock()
}

// Save writes the settings to disk, creating the config directory on the
// first run.
func (st *Store) Save() error {
	st.mu.Lock()
	data, err := json.MarshalIndent(st.settings, "", "  ")
	st.mu.Unlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(st.path, data, 0o644)
}
