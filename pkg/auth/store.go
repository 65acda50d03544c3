package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

// TokenStore is the interface for persisting the access token between runs
type TokenStore interface {
	// Save persists the token
	Save(token *Token) error

	// Load retrieves the token
	Load() (*Token, error)

	// Delete removes the persisted token
	Delete() error

	// Exists checks if a token is persisted
	Exists() bool
}

const (
	keyringService = "vkstats"
	keyringKey     = "token"
)

// KeyringStore persists the token in the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a keyring-backed token store, verifying the
// keychain is usable on this system.
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)
	return &KeyringStore{}, nil
}

// Save persists the token to the system keychain
func (k *KeyringStore) Save(token *Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := keyring.Set(keyringService, keyringKey, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

// Load retrieves the token from the system keychain
func (k *KeyringStore) Load() (*Token, error) {
	data, err := keyring.Get(keyringService, keyringKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var token Token
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &token, nil
}

// Delete removes the token from the system keychain
func (k *KeyringStore) Delete() error {
	err := keyring.Delete(keyringService, keyringKey)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// Exists checks if a token is stored in the keychain
func (k *KeyringStore) Exists() bool {
	_, err := keyring.Get(keyringService, keyringKey)
	return err == nil
}

// FileStore persists the token as a JSON file in the user's config
// directory. It is the fallback when no system keychain is available.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed token store at the given path. An empty
// path selects the default location under the user config directory.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate config directory: %w", err)
		}
		path = filepath.Join(configDir, "vkstats", "token.json")
	}
	return &FileStore{path: path}, nil
}

// Save writes the token file with owner-only permissions
func (f *FileStore) Save(token *Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Load reads the token file
func (f *FileStore) Load() (*Token, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token file: %w", err)
	}
	return &token, nil
}

// Delete removes the token file
func (f *FileStore) Delete() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists checks if the token file is present
func (f *FileStore) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Manager chains token stores with fallback: the keychain when available,
// a plain file otherwise.
type Manager struct {
	stores []TokenStore
}

// NewManager creates a token store manager with the default backends
func NewManager() (*Manager, error) {
	var stores []TokenStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	fileStore, err := NewFileStore("")
	if err != nil {
		return nil, err
	}
	stores = append(stores, fileStore)

	return &Manager{stores: stores}, nil
}

// Save stores the token using the first store that accepts it
func (m *Manager) Save(token *Token) error {
	var lastErr error
	for _, store := range m.stores {
		if err := store.Save(token); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return fmt.Errorf("failed to store token: %w", lastErr)
}

// Load retrieves the token from the first store that has it
func (m *Manager) Load() (*Token, error) {
	for _, store := range m.stores {
		if token, err := store.Load(); err == nil && token != nil {
			return token, nil
		}
	}
	return nil, os.ErrNotExist
}

// Delete removes the token from every store
func (m *Manager) Delete() error {
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Exists checks if any store holds a token
func (m *Manager) Exists() bool {
	for _, store := range m.stores {
		if store.Exists() {
			return true
		}
	}
	return false
}
