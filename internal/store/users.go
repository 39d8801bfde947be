package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"wealthwise/internal/errors"
)

// User is one entry in the registered users file.
type User struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Factory opens per-user ledger databases and maintains the registered
// users file. Each user gets their own SQLite file under the data
// directory, so one user's records never mix with another's.
type Factory struct {
	dir          string
	registryPath string
	mu           sync.Mutex
}

// NewFactory creates a factory rooted at dir, creating it if needed.
func NewFactory(dir string) (*Factory, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Factory{
		dir:          dir,
		registryPath: filepath.Join(dir, "registered_users.json"),
	}, nil
}

// DBPath returns the database file path for a username.
func (f *Factory) DBPath(username string) string {
	return filepath.Join(f.dir, username+"_portfolio.db")
}

// Register adds a username to the registry. Registering an existing
// user fails with ErrUserExists.
func (f *Factory) Register(username string) error {
	if !usernamePattern.MatchString(username) {
		return errors.NewValidationError("username", username, "must be 1-64 letters, digits, hyphens or underscores")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	users, err := f.loadRegistry()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Username == username {
			return errors.Wrapf(errors.ErrUserExists, "user %s", username)
		}
	}

	users = append(users, User{Username: username, CreatedAt: time.Now().UTC()})
	return f.saveRegistry(users)
}

// Exists reports whether a username is registered.
func (f *Factory) Exists(username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	users, err := f.loadRegistry()
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// List returns all registered users sorted by username.
func (f *Factory) List() ([]User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	users, err := f.loadRegistry()
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}

// Delete removes a user from the registry. With purge set, the user's
// database file is deleted as well; otherwise the records stay on disk
// for a later re-register.
func (f *Factory) Delete(username string, purge bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	users, err := f.loadRegistry()
	if err != nil {
		return err
	}

	kept := users[:0]
	found := false
	for _, u := range users {
		if u.Username == username {
			found = true
			continue
		}
		kept = append(kept, u)
	}
	if !found {
		return errors.Wrapf(errors.ErrUserNotFound, "user %s", username)
	}

	if err := f.saveRegistry(kept); err != nil {
		return err
	}

	if purge {
		if err := os.Remove(f.DBPath(username)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove user database: %w", err)
		}
	}
	return nil
}

// Open opens the ledger database for a registered user.
func (f *Factory) Open(username string) (*SQLiteLedger, error) {
	exists, err := f.Exists(username)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.Wrapf(errors.ErrUserNotFound, "user %s", username)
	}
	return NewSQLiteLedger(f.DBPath(username))
}

func (f *Factory) loadRegistry() ([]User, error) {
	data, err := os.ReadFile(f.registryPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user registry: %w", err)
	}

	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("failed to parse user registry: %w", err)
	}
	return users, nil
}

func (f *Factory) saveRegistry(users []User) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user registry: %w", err)
	}

	tmp := f.registryPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write user registry: %w", err)
	}
	return os.Rename(tmp, f.registryPath)
}
