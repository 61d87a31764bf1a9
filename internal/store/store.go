// Package store is the persistent key-value layer. Values are opaque bytes
// (JSON documents in practice) addressed by namespaced string keys.
package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vthunder/taskly/internal/logging"
)

// Store is implemented by every persistence backend.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Keys(prefix string) ([]string, error)
	Close() error
}

// GetJSON decodes the value at key into v. It reports false when the key is
// missing, unreadable, or does not parse; v is left untouched in that case.
func GetJSON(s Store, key string, v any) bool {
	data, ok, err := s.Get(key)
	if err != nil {
		logging.Warn("store", "read %s: %v", key, err)
		return false
	}
	if !ok || len(data) == 0 {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		logging.Warn("store", "discarding malformed value at %s: %v", key, err)
		return false
	}
	return true
}

// SetJSON encodes v and writes it at key.
func SetJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.Set(key, data)
}

// Rename moves the value at from to to. Missing source keys are ignored.
func Rename(s Store, from, to string) error {
	data, ok, err := s.Get(from)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := s.Set(to, data); err != nil {
		return err
	}
	return s.Delete(from)
}

// Memory is an in-process Store, used for tests and the "memory" backend.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Close() error { return nil }
