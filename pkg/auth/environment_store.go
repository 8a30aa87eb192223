package auth

import (
	"os"
	"time"
)

const (
	envIdentifier = "BSKYSCRAPER_IDENTIFIER"
	envPassword   = "BSKYSCRAPER_PASSWORD"
	envHost       = "BSKYSCRAPER_HOST"
)

// EnvironmentStore is a read-only CredentialStore over the
// BSKYSCRAPER_IDENTIFIER and BSKYSCRAPER_PASSWORD variables
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment account. A non-empty identifier must
// match the one in the environment.
func (e *EnvironmentStore) Retrieve(identifier string) (*Account, error) {
	envID := NormalizeIdentifier(os.Getenv(envIdentifier))
	password := os.Getenv(envPassword)

	if envID == "" || password == "" {
		return nil, ErrCredentialsNotFound
	}
	if identifier != "" && NormalizeIdentifier(identifier) != envID {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Identifier:   envID,
		Password:     password,
		Host:         os.Getenv(envHost),
		LastModified: time.Now(),
	}, nil
}

// List returns the environment account if one is set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(identifier string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist for identifier
func (e *EnvironmentStore) Exists(identifier string) bool {
	_, err := e.Retrieve(identifier)
	return err == nil
}
