package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"

	"bskyscraper/pkg/bluesky"
)

const appName = "bskyscraper"

// Account holds the login for one Bluesky identity. Password is an app
// password, never the main account password.
type Account struct {
	Identifier   string    `json:"identifier"`
	Password     string    `json:"password"`
	Host         string    `json:"host,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(identifier string) (*Account, error)
	List() ([]*Account, error)
	Delete(identifier string) error
	Exists(identifier string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager backed by the system keyring when
// available, then an encrypted file, then the environment
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over explicit stores, tried in order
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(account *Account) error {
	if account == nil || strings.TrimSpace(account.Identifier) == "" {
		return errors.New("identifier is required")
	}
	if account.Password == "" {
		return errors.New("app password is required")
	}

	account.Identifier = NormalizeIdentifier(account.Identifier)
	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(identifier string) (*Account, error) {
	identifier = NormalizeIdentifier(identifier)
	for _, store := range m.stores {
		if account, err := store.Retrieve(identifier); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, identifier)
}

// Resolve returns the account for identifier, or the default account when
// identifier is empty
func (m *Manager) Resolve(identifier string) (*Account, error) {
	if strings.TrimSpace(identifier) != "" {
		return m.Retrieve(identifier)
	}
	return m.RetrieveDefault()
}

// RetrieveDefault returns environment credentials when set, otherwise the
// most recently stored account
func (m *Manager) RetrieveDefault() (*Account, error) {
	for _, store := range m.stores {
		if envStore, ok := store.(*EnvironmentStore); ok {
			if account, err := envStore.Retrieve(""); err == nil {
				return account, nil
			}
		}
	}

	accounts, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrCredentialsNotFound
	}

	latest := accounts[0]
	for _, account := range accounts[1:] {
		if account.LastModified.After(latest.LastModified) {
			latest = account
		}
	}
	return latest, nil
}

// List returns the accounts of all stores, sorted by identifier. When a
// store repeats an identifier the most recently modified copy wins.
func (m *Manager) List() ([]*Account, error) {
	byIdentifier := make(map[string]*Account)

	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if existing, ok := byIdentifier[account.Identifier]; !ok || account.LastModified.After(existing.LastModified) {
				byIdentifier[account.Identifier] = account
			}
		}
	}

	result := make([]*Account, 0, len(byIdentifier))
	for _, account := range byIdentifier {
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Identifier < result[j].Identifier
	})
	return result, nil
}

// Delete removes credentials from every store that holds them
func (m *Manager) Delete(identifier string) error {
	identifier = NormalizeIdentifier(identifier)

	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(identifier); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrCredentialsNotFound) && !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	return fmt.Errorf("%w: %s", ErrCredentialsNotFound, identifier)
}

// DeleteAll removes all stored credentials
func (m *Manager) DeleteAll() error {
	accounts, err := m.List()
	if err != nil {
		return err
	}
	for _, account := range accounts {
		_ = m.Delete(account.Identifier)
	}
	return nil
}

// NormalizeIdentifier is the storage key of an identifier: handles and
// emails are lowercased, DIDs keep their case
func NormalizeIdentifier(identifier string) string {
	identifier = bluesky.NormalizeIdentifier(identifier)
	if strings.HasPrefix(identifier, "did:") {
		return identifier
	}
	return strings.ToLower(identifier)
}

var appPasswordPattern = regexp.MustCompile(`^[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{4}-[a-z0-9]{4}$`)

// LooksLikeAppPassword reports whether p has the xxxx-xxxx-xxxx-xxxx shape
// Bluesky generates for app passwords
func LooksLikeAppPassword(p string) bool {
	return appPasswordPattern.MatchString(strings.TrimSpace(p))
}

// ConfigDir returns the per-user configuration directory, creating it
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, appName)
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", appName)
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// SanitizeAccount returns a copy of the account with the password masked
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}
	sanitized := *account
	sanitized.Password = maskString(account.Password)
	return &sanitized
}

// maskString masks all but the first and last 4 characters
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
