package auth

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCredentialManager(t *testing.T) {
	mockStore := NewMockStore()
	manager := NewManagerWithStores(mockStore)

	account := &Account{
		Username:     "testuser",
		SessionID:    "test_session_id_12345",
		CSRFToken:    "test_csrf_token_67890",
		UserAgent:    "TestAgent/1.0",
		LastModified: time.Now(),
	}

	if err := manager.Store(account); err != nil {
		t.Errorf("Failed to store account: %v", err)
	}

	retrieved, err := manager.Retrieve("testuser")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}
	if retrieved.Username != account.Username {
		t.Errorf("Username mismatch: got %s, want %s", retrieved.Username, account.Username)
	}
	if retrieved.SessionID != account.SessionID {
		t.Errorf("SessionID mismatch: got %s, want %s", retrieved.SessionID, account.SessionID)
	}
	if retrieved.CSRFToken != account.CSRFToken {
		t.Errorf("CSRFToken mismatch: got %s, want %s", retrieved.CSRFToken, account.CSRFToken)
	}

	accounts, err := manager.List()
	if err != nil {
		t.Errorf("Failed to list accounts: %v", err)
	}
	if len(accounts) == 0 {
		t.Error("Expected at least one account in list")
	}

	if err := manager.Delete("testuser"); err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}
	if _, err := manager.Retrieve("testuser"); err == nil {
		t.Error("Expected error retrieving deleted account")
	}
	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
}

func TestStoreValidation(t *testing.T) {
	manager := NewManagerWithStores(NewMockStore())

	cases := []struct {
		name    string
		account *Account
	}{
		{"missing username", &Account{SessionID: "s", CSRFToken: "c"}},
		{"missing session ID", &Account{Username: "u", CSRFToken: "c"}},
		{"missing CSRF token", &Account{Username: "u", SessionID: "s"}},
	}

	for _, tc := range cases {
		if err := manager.Store(tc.account); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestStoreFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = fmt.Errorf("keychain locked")
	working := NewMockStore()
	manager := NewManagerWithStores(broken, working)

	account := &Account{Username: "u", SessionID: "s", CSRFToken: "c"}
	if err := manager.Store(account); err != nil {
		t.Fatalf("Store should succeed via the second store: %v", err)
	}
	if !working.Exists("u") {
		t.Error("Account should land in the fallback store")
	}
	if broken.Exists("u") {
		t.Error("Account must not be in the failing store")
	}
}

func TestCookiesRejectsPartialCredentials(t *testing.T) {
	store := NewMockStore()
	// Bypass Manager.Store validation to simulate a half-written entry.
	if err := store.Store(&Account{Username: "partial", SessionID: "only_session"}); err != nil {
		t.Fatal(err)
	}
	manager := NewManagerWithStores(store)

	if manager.Cookies() != nil {
		t.Error("Partial credentials must be treated as absent")
	}
	if manager.IsConfigured() {
		t.Error("IsConfigured must be false with partial credentials")
	}
	if manager.IsSessionValid() {
		t.Error("IsSessionValid must be false with partial credentials")
	}
}

func TestIsSessionValidStaleness(t *testing.T) {
	store := NewMockStore()
	manager := NewManagerWithStores(store)

	fresh := &Account{Username: "fresh", SessionID: "s", CSRFToken: "c"}
	if err := manager.Store(fresh); err != nil {
		t.Fatal(err)
	}
	if !manager.IsSessionValid() {
		t.Error("Freshly stored session should be valid")
	}

	store.Clear()
	stale := &Account{
		Username:     "stale",
		SessionID:    "s",
		CSRFToken:    "c",
		LastModified: time.Now().Add(-sessionMaxAge - time.Hour),
	}
	if err := store.Store(stale); err != nil {
		t.Fatal(err)
	}
	if manager.IsSessionValid() {
		t.Error("Session past the max age must be invalid")
	}
}

func TestStaticProvider(t *testing.T) {
	empty := &StaticProvider{}
	if empty.IsConfigured() {
		t.Error("Empty static provider must not be configured")
	}
	if empty.Cookies() != nil {
		t.Error("Empty static provider must return nil cookies")
	}
	if empty.IsSessionValid() {
		t.Error("Empty static provider must not report a valid session")
	}

	p := &StaticProvider{Account: Account{SessionID: "sid", CSRFToken: "csrf"}}
	if !p.IsConfigured() {
		t.Error("Provider with both cookies must be configured")
	}
	cookies := p.Cookies()
	if cookies == nil || cookies.SessionID != "sid" {
		t.Fatalf("Unexpected cookies: %+v", cookies)
	}
	cookies.SessionID = "mutated"
	if p.Account.SessionID != "sid" {
		t.Error("Cookies must return a copy")
	}
	if !p.IsSessionValid() {
		t.Error("Zero LastModified counts as valid when configured")
	}

	stale := &StaticProvider{Account: Account{
		SessionID:    "sid",
		CSRFToken:    "csrf",
		LastModified: time.Now().Add(-sessionMaxAge - time.Hour),
	}}
	if stale.IsSessionValid() {
		t.Error("Stale static session must be invalid")
	}
}

func TestCookieHeader(t *testing.T) {
	a := &Account{SessionID: "sid123", CSRFToken: "csrf456"}
	want := "sessionid=sid123; csrftoken=csrf456"
	if got := a.CookieHeader(); got != want {
		t.Errorf("CookieHeader: got %q, want %q", got, want)
	}
}

func TestSanitizeAccount(t *testing.T) {
	account := &Account{
		Username:  "alice",
		SessionID: "very_long_session_identifier",
		CSRFToken: "short",
	}

	sanitized := SanitizeAccount(account)
	if sanitized.SessionID == account.SessionID {
		t.Error("SessionID should be masked")
	}
	if sanitized.SessionID != "very...fier" {
		t.Errorf("Unexpected mask: %s", sanitized.SessionID)
	}
	if sanitized.CSRFToken != "********" {
		t.Error("Short secrets must be fully masked")
	}
	if sanitized.Username != account.Username {
		t.Error("Username should not be masked")
	}

	if SanitizeAccount(nil) != nil {
		t.Error("Sanitizing nil should return nil")
	}
}

func TestEncryptedFileStore(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "test_creds.enc")

	os.Setenv("REELSCRAPER_PASSPHRASE", "test_passphrase_123")
	defer os.Unsetenv("REELSCRAPER_PASSPHRASE")

	store, err := NewEncryptedFileStore(tempFile)
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	account := &Account{
		Username:  "encrypted_user",
		SessionID: "encrypted_session",
		CSRFToken: "encrypted_csrf",
	}

	if err := store.Store(account); err != nil {
		t.Errorf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve("encrypted_user")
	if err != nil {
		t.Fatalf("Failed to retrieve from encrypted file: %v", err)
	}
	if retrieved.SessionID != account.SessionID {
		t.Errorf("SessionID mismatch after encryption/decryption")
	}

	fileContent, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(fileContent, []byte("encrypted_session")) {
		t.Error("File contains plaintext session ID")
	}
	if bytes.Contains(fileContent, []byte("encrypted_csrf")) {
		t.Error("File contains plaintext CSRF token")
	}
}

func TestEnvironmentStore(t *testing.T) {
	os.Setenv("REELSCRAPER_SESSION_ID", "env_session")
	os.Setenv("REELSCRAPER_CSRF_TOKEN", "env_csrf")
	defer os.Unsetenv("REELSCRAPER_SESSION_ID")
	defer os.Unsetenv("REELSCRAPER_CSRF_TOKEN")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve from environment: %v", err)
	}
	if account.SessionID != "env_session" {
		t.Errorf("SessionID mismatch: got %s, want env_session", account.SessionID)
	}
	if account.CSRFToken != "env_csrf" {
		t.Errorf("CSRFToken mismatch: got %s, want env_csrf", account.CSRFToken)
	}

	if err := store.Store(&Account{}); err != ErrStoreUnavailable {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
}

func TestMockStoreErrorInjection(t *testing.T) {
	store := NewMockStore()

	if err := store.Store(&Account{Username: "mockuser", SessionID: "s", CSRFToken: "c"}); err != nil {
		t.Errorf("Failed to store account: %v", err)
	}
	if !store.Exists("mockuser") {
		t.Error("Account should exist")
	}

	store.ListError = fmt.Errorf("injected error")
	if _, err := store.List(); err == nil {
		t.Error("Expected injected error")
	}
}
