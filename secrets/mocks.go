package secrets

import (
	"fmt"
	"sync"
)

// SecretsManagerMock keeps the secrets in memory
type SecretsManagerMock struct {
	lock  sync.Mutex
	cache map[string][]byte

	// GetCalls counts the GetSecret invocations
	GetCalls int
}

func NewSecretsManagerMock() *SecretsManagerMock {
	return &SecretsManagerMock{cache: make(map[string][]byte)}
}

func (sm *SecretsManagerMock) Setup() error {
	return nil
}

func (sm *SecretsManagerMock) GetSecret(name string) ([]byte, error) {
	sm.lock.Lock()
	defer sm.lock.Unlock()

	sm.GetCalls++

	value, exists := sm.cache[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}

	return value, nil
}

func (sm *SecretsManagerMock) SetSecret(name string, value []byte) error {
	sm.lock.Lock()
	defer sm.lock.Unlock()

	sm.cache[name] = value

	return nil
}

func (sm *SecretsManagerMock) HasSecret(name string) bool {
	sm.lock.Lock()
	defer sm.lock.Unlock()

	_, exists := sm.cache[name]

	return exists
}

func (sm *SecretsManagerMock) RemoveSecret(name string) error {
	sm.lock.Lock()
	defer sm.lock.Unlock()

	delete(sm.cache, name)

	return nil
}
