package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// sessionMaxAge is how long stored session cookies are considered fresh.
// The platform invalidates web sessions well before this in practice; the
// bound keeps the authenticated strategy from running with stale cookies.
const sessionMaxAge = 90 * 24 * time.Hour

// Account holds one account's session credentials.
type Account struct {
	Username     string    `json:"username"`
	SessionID    string    `json:"session_id"`
	CSRFToken    string    `json:"csrf_token"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CookieHeader renders the account's cookies for a request header.
func (a *Account) CookieHeader() string {
	return fmt.Sprintf("sessionid=%s; csrftoken=%s", a.SessionID, a.CSRFToken)
}

// CredentialStore is the interface for storing and retrieving credentials.
type CredentialStore interface {
	// Store saves credentials for a given account
	Store(account *Account) error

	// Retrieve gets credentials for a specific username
	Retrieve(username string) (*Account, error)

	// List returns all stored accounts
	List() ([]*Account, error)

	// Delete removes credentials for a specific username
	Delete(username string) error

	// Exists checks if credentials exist for a username
	Exists(username string) bool
}

// Provider supplies optional authenticated-request cookies to the
// orchestrator. Absence of credentials is a normal condition, never an
// error: the orchestrator simply skips registering the authenticated
// strategy.
type Provider interface {
	// IsConfigured reports whether any credentials are available at all.
	IsConfigured() bool
	// Cookies returns the default account's credentials, or nil.
	Cookies() *Account
	// IsSessionValid reports whether the stored session looks fresh
	// enough to use.
	IsSessionValid() bool
}

// StaticProvider serves fixed credentials, typically ones passed on the
// command line or in a config file.
type StaticProvider struct {
	Account Account
}

func (p *StaticProvider) IsConfigured() bool {
	return p.Account.SessionID != "" && p.Account.CSRFToken != ""
}

func (p *StaticProvider) Cookies() *Account {
	if !p.IsConfigured() {
		return nil
	}
	a := p.Account
	return &a
}

func (p *StaticProvider) IsSessionValid() bool {
	if p.Account.LastModified.IsZero() {
		return p.IsConfigured()
	}
	return time.Since(p.Account.LastModified) < sessionMaxAge
}

// Manager handles credential storage with fallback mechanisms and
// implements Provider.
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a new credential manager with appropriate storage
// backends: system keychain, then encrypted file, then environment.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over an explicit store chain.
// Used by tests to avoid touching the real keychain.
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// IsConfigured implements Provider.
func (m *Manager) IsConfigured() bool {
	return m.Cookies() != nil
}

// Cookies implements Provider. It returns the default account or nil.
func (m *Manager) Cookies() *Account {
	account, err := m.RetrieveDefault()
	if err != nil {
		return nil
	}
	if account.SessionID == "" || account.CSRFToken == "" {
		// Partial credentials are treated as absent; an authenticated
		// call must never be attempted with half a session.
		return nil
	}
	return account
}

// IsSessionValid implements Provider.
func (m *Manager) IsSessionValid() bool {
	account := m.Cookies()
	if account == nil {
		return false
	}
	if account.LastModified.IsZero() {
		return true
	}
	return time.Since(account.LastModified) < sessionMaxAge
}

// Store saves credentials using the first available store.
func (m *Manager) Store(account *Account) error {
	if account.Username == "" {
		return errors.New("username is required")
	}
	if account.SessionID == "" {
		return errors.New("session ID is required")
	}
	if account.CSRFToken == "" {
		return errors.New("CSRF token is required")
	}

	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(account); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first store that has them.
func (m *Manager) Retrieve(username string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(username); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("credentials not found for user: %s", username)
}

// RetrieveDefault gets credentials for the default account or the first available.
func (m *Manager) RetrieveDefault() (*Account, error) {
	// First try environment (for backward compatibility)
	if envStore, ok := m.stores[len(m.stores)-1].(*EnvironmentStore); ok {
		if account, err := envStore.Retrieve(""); err == nil && account != nil {
			return account, nil
		}
	}

	accounts, err := m.List()
	if err == nil && len(accounts) > 0 {
		return accounts[0], nil
	}

	return nil, errors.New("no credentials found")
}

// List returns all stored accounts from all stores.
func (m *Manager) List() ([]*Account, error) {
	accountMap := make(map[string]*Account)

	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			// Use the most recently modified version
			if existing, ok := accountMap[account.Username]; !ok || account.LastModified.After(existing.LastModified) {
				accountMap[account.Username] = account
			}
		}
	}

	var result []*Account
	for _, account := range accountMap {
		result = append(result, account)
	}

	return result, nil
}

// Delete removes credentials from all stores.
func (m *Manager) Delete(username string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(username); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("credentials not found for user: %s", username)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "reelscraper")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "reelscraper")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "reelscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "reelscraper")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// SanitizeAccount creates a copy of the account with sensitive data masked.
func SanitizeAccount(account *Account) *Account {
	if account == nil {
		return nil
	}

	return &Account{
		Username:     account.Username,
		SessionID:    maskString(account.SessionID),
		CSRFToken:    maskString(account.CSRFToken),
		UserAgent:    account.UserAgent,
		LastModified: account.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string.
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
