package auth

import "sync"

// MockStore is an in-memory CredentialStore with error injection, for tests
// of code that manages credentials
type MockStore struct {
	accounts map[string]*Account
	mu       sync.RWMutex

	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMockStore creates an empty mock credential store
func NewMockStore() *MockStore {
	return &MockStore{accounts: make(map[string]*Account)}
}

// Store keeps a copy of account
func (m *MockStore) Store(account *Account) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if account == nil || account.Identifier == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *account
	m.accounts[account.Identifier] = &stored
	return nil
}

// Retrieve returns a copy of the stored account
func (m *MockStore) Retrieve(identifier string) (*Account, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}
	if identifier == "" {
		return nil, ErrInvalidCredentials
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[identifier]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	found := *account
	return &found, nil
}

// List returns copies of all accounts
func (m *MockStore) List() ([]*Account, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	accounts := make([]*Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		found := *account
		accounts = append(accounts, &found)
	}
	return accounts, nil
}

// Delete removes an account
func (m *MockStore) Delete(identifier string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if identifier == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[identifier]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.accounts, identifier)
	return nil
}

// Exists checks if an account is stored
func (m *MockStore) Exists(identifier string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.accounts[identifier]
	return ok
}

// Count returns the number of stored accounts
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.accounts)
}

// NewMockManager creates a Manager over a single mock store
func NewMockManager() (*Manager, *MockStore) {
	store := NewMockStore()
	return NewManagerWithStores(store), store
}
