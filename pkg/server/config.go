package server

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/NicolasHaas/gorelay/pkg/datastore"
)

// Config holds server configuration.
type Config struct {
	Addr        string // HTTP/WebSocket bind address (e.g. ":8888")
	MetricsAddr string // HTTP bind address for /metrics endpoint (empty = disabled)
	DBPath      string // SQLite database path
	Memory      bool   // use the in-memory store instead of SQLite
	UsersFile   string // YAML file defining users to create on startup
	SeedUsers   bool   // create the default demo users when the directory is empty

	// CLI-only actions (run and exit)
	ExportUsers bool // export all users as YAML and exit
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8888",
		MetricsAddr: ":8890",
		DBPath:      "gorelay.db",
		SeedUsers:   true,
	}
}

// UserYAML represents a user in YAML config and export.
type UserYAML struct {
	ID        int64  `yaml:"id,omitempty"`
	Name      string `yaml:"name"`
	CreatedAt string `yaml:"created_at,omitempty"`
}

// UsersConfig is the top-level YAML config for users.
type UsersConfig struct {
	Users []UserYAML `yaml:"users"`
}

// defaultUserNames are the demo users seeded into an empty directory.
var defaultUserNames = []string{"John", "Bob", "Susan"}

// SeedDefaultUsers creates the demo users when the directory is empty.
func SeedDefaultUsers(st datastore.DataStore) error {
	users, err := st.ListUsers()
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	if len(users) > 0 {
		return nil
	}
	for _, name := range defaultUserNames {
		if _, err := st.CreateUser(name); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
	}
	slog.Info("seeded default users", "count", len(defaultUserNames))
	return nil
}

// LoadUsersFromYAML reads a users YAML file and creates any missing
// users in the directory.
func LoadUsersFromYAML(path string, st datastore.DataStore) error {
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI config
	if err != nil {
		return fmt.Errorf("read users config: %w", err)
	}
	return ImportUsersFromYAML(data, st)
}

// ImportUsersFromYAML parses YAML data and creates any missing users.
func ImportUsersFromYAML(data []byte, st datastore.DataStore) error {
	var cfg UsersConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse users config: %w", err)
	}

	created := 0
	for _, u := range cfg.Users {
		existing, err := st.GetUserByName(u.Name)
		if err != nil {
			return fmt.Errorf("import users: %w", err)
		}
		if existing != nil {
			continue
		}
		if _, err := st.CreateUser(u.Name); err != nil {
			slog.Error("failed to create user from config", "name", u.Name, "err", err)
			continue
		}
		created++
	}

	slog.Info("imported users from YAML", "total", len(cfg.Users), "created", created)
	return nil
}

// ExportUsersYAML exports all users as YAML.
func ExportUsersYAML(st datastore.UserReadProvider) ([]byte, error) {
	users, err := st.ListUsers()
	if err != nil {
		return nil, err
	}

	export := UsersConfig{}
	for _, u := range users {
		export.Users = append(export.Users, UserYAML{
			ID:        u.ID,
			Name:      u.Name,
			CreatedAt: u.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return yaml.Marshal(&export)
}
