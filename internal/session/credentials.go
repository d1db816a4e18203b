package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"

	"github.com/lu-zhengda/smartmail/internal/api"
)

const serviceName = "smartmail"

// Credentials are the backend tokens of one profile.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Profile      string `json:"profile"`
}

// TokenStore is an api.CredentialStore that can also forget its tokens.
type TokenStore interface {
	api.CredentialStore
	DeleteTokens() error
}

var (
	_ TokenStore = (*KeyringStore)(nil)
	_ TokenStore = (*MemoryStore)(nil)
)

// KeyringStore persists credentials in the OS keyring (macOS Keychain,
// Windows Credential Manager, or Linux Secret Service), keyed by profile.
type KeyringStore struct {
	profile string
}

// NewKeyringStore returns a store for the given profile.
func NewKeyringStore(profile string) *KeyringStore {
	return &KeyringStore{profile: profile}
}

// LoadTokens returns the stored tokens. A profile with nothing stored yields
// empty tokens and no error.
func (k *KeyringStore) LoadTokens() (api.Tokens, error) {
	data, err := keyring.Get(serviceName, k.profile)
	if errors.Is(err, keyring.ErrNotFound) {
		return api.Tokens{}, nil
	}
	if err != nil {
		return api.Tokens{}, fmt.Errorf("failed to load credentials from keyring: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return api.Tokens{}, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return api.Tokens{AccessToken: c.AccessToken, RefreshToken: c.RefreshToken}, nil
}

// SaveTokens stores t for the profile. Empty tokens delete the entry.
func (k *KeyringStore) SaveTokens(t api.Tokens) error {
	if t == (api.Tokens{}) {
		return k.DeleteTokens()
	}
	data, err := json.Marshal(Credentials{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Profile:      k.profile,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := keyring.Set(serviceName, k.profile, string(data)); err != nil {
		return fmt.Errorf("failed to save credentials to keyring: %w", err)
	}
	return nil
}

// DeleteTokens removes the profile's entry. A missing entry is not an error.
func (k *KeyringStore) DeleteTokens() error {
	if err := keyring.Delete(serviceName, k.profile); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// MemoryStore keeps credentials in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	tokens api.Tokens
}

func (m *MemoryStore) LoadTokens() (api.Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, nil
}

func (m *MemoryStore) SaveTokens(t api.Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = t
	return nil
}

func (m *MemoryStore) DeleteTokens() error {
	return m.SaveTokens(api.Tokens{})
}
