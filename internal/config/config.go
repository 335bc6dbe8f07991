// Package config manages the per-project configuration record stored at
// .tkt/config.toml: the active backend, the known statuses, types and
// iterations reported by the remote, and the counter used to mint local
// work item ids.
package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jordanwest/tkt/internal/types"
)

// Config is the persisted project configuration. A corrupt or missing
// file loads as defaults rather than failing: the record is derived
// state that sync refreshes from the remote.
type Config struct {
	Backend    string `toml:"backend"`
	ProjectRef string `toml:"project_ref,omitempty"`

	Statuses   []string `toml:"statuses"`
	Types      []string `toml:"types"`
	Iterations []string `toml:"iterations"`
	Assignees  []string `toml:"assignees"`

	// NextLocalID is the counter for locally-minted ids (local-<n>).
	NextLocalID int `toml:"next_local_id"`

	path string
	mu   sync.Mutex
}

// Default returns the configuration used for a fresh store.
func Default() *Config {
	return &Config{
		Backend:     "memory",
		Statuses:    []string{"open", "in_progress", "done"},
		Types:       []string{"bug", "feature", "task", "epic", "chore"},
		Iterations:  []string{},
		Assignees:   []string{},
		NextLocalID: 1,
	}
}

// Load reads the configuration from path. A missing or unparsable file
// returns defaults bound to the same path, so the next Save repairs it.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	loaded := Default()
	if err := toml.Unmarshal(data, loaded); err != nil {
		// Corrupt config is reconstructible state, not a fatal error.
		fmt.Fprintf(os.Stderr, "Warning: ignoring corrupt config %s: %v\n", path, err)
		return cfg, nil
	}
	loaded.path = path
	if loaded.NextLocalID < 1 {
		loaded.NextLocalID = 1
	}
	return loaded, nil
}

// Save writes the configuration back to its file.
func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked()
}

func (c *Config) saveLocked() error {
	if c.path == "" {
		return fmt.Errorf("config has no backing file")
	}
	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return f.Close()
}

// SetPath binds the config to a backing file. Used when constructing a
// fresh config during init.
func (c *Config) SetPath(path string) { c.path = path }

// MintLocalID returns the next locally-minted work item id and persists
// the advanced counter so ids are never reused across processes.
func (c *Config) MintLocalID() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := fmt.Sprintf("%s%d", types.LocalIDPrefix, c.NextLocalID)
	c.NextLocalID++
	if err := c.saveLocked(); err != nil {
		return "", err
	}
	return id, nil
}

// SetKnown replaces the cached remote vocabulary after a successful pull.
// Empty slices are ignored so a remote that reports nothing does not
// wipe sensible defaults.
func (c *Config) SetKnown(statuses, itemTypes, iterations, assignees []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(statuses) > 0 {
		c.Statuses = statuses
	}
	if len(itemTypes) > 0 {
		c.Types = itemTypes
	}
	if len(iterations) > 0 {
		c.Iterations = iterations
	}
	if len(assignees) > 0 {
		c.Assignees = assignees
	}
}
