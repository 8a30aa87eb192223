package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "bskyscraper"
	keyringPrefix  = "bluesky_"
	// go-keyring cannot enumerate entries, so stored identifiers are
	// tracked under one index key
	keyringIndex = "accounts"
)

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore if the system keychain accepts a
// probe write
func NewKeyringStore() (*KeyringStore, error) {
	probe := "probe"
	if err := keyring.Set(keyringService, probe, "ok"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, probe)

	return &KeyringStore{}, nil
}

// Store saves credentials to the system keychain
func (k *KeyringStore) Store(account *Account) error {
	if account == nil || account.Identifier == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	if err := keyring.Set(keyringService, keyringPrefix+account.Identifier, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return k.updateIndex(account.Identifier, true)
}

// Retrieve gets credentials from the system keychain
func (k *KeyringStore) Retrieve(identifier string) (*Account, error) {
	if identifier == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := keyring.Get(keyringService, keyringPrefix+identifier)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var account Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &account, nil
}

// List returns the indexed accounts that are still in the keychain
func (k *KeyringStore) List() ([]*Account, error) {
	ids, err := k.index()
	if err != nil {
		return nil, err
	}

	accounts := make([]*Account, 0, len(ids))
	for _, id := range ids {
		if account, err := k.Retrieve(id); err == nil {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}

// Delete removes credentials from the system keychain
func (k *KeyringStore) Delete(identifier string) error {
	if identifier == "" {
		return ErrInvalidCredentials
	}

	if err := keyring.Delete(keyringService, keyringPrefix+identifier); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return k.updateIndex(identifier, false)
}

// Exists checks if credentials exist in the keychain
func (k *KeyringStore) Exists(identifier string) bool {
	if identifier == "" {
		return false
	}
	_, err := keyring.Get(keyringService, keyringPrefix+identifier)
	return err == nil
}

func (k *KeyringStore) index() ([]string, error) {
	data, err := keyring.Get(keyringService, keyringIndex)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read keyring index: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("failed to parse keyring index: %w", err)
	}
	return ids, nil
}

func (k *KeyringStore) updateIndex(identifier string, present bool) error {
	ids, err := k.index()
	if err != nil {
		return err
	}

	set := make(map[string]bool, len(ids)+1)
	for _, id := range ids {
		set[id] = true
	}
	if present {
		set[identifier] = true
	} else {
		delete(set, identifier)
	}

	updated := make([]string, 0, len(set))
	for id := range set {
		updated = append(updated, id)
	}
	sort.Strings(updated)

	data, err := json.Marshal(updated)
	if err != nil {
		return err
	}
	return keyring.Set(keyringService, keyringIndex, string(data))
}
