package cache

import (
	"encoding/json"
	"fmt"
	"time"

	utilcache "github.com/umakantv/go-utils/cache"
)

const (
	UserTTL     = 5 * time.Minute
	TodoListTTL = 5 * time.Minute
)

func UserKey(id int) string {
	return fmt.Sprintf("user:%d", id)
}

func TodoListKey(userID int) string {
	return fmt.Sprintf("todos:%d", userID)
}

// Store stores JSON values in the configured cache backend. A nil *Store, or
// one without a backend, misses on every read and drops every write, so
// callers never need to check whether caching is enabled.
type Store struct {
	backend utilcache.Cache
}

func NewStore(backend utilcache.Cache) *Store {
	return &Store{backend: backend}
}

// GetJSON decodes the cached value for key into v and reports whether it was found.
func (s *Store) GetJSON(key string, v interface{}) bool {
	if s == nil || s.backend == nil {
		return false
	}
	raw, err := s.backend.Get(key)
	if err != nil {
		return false
	}
	return decode(raw, v) == nil
}

func (s *Store) SetJSON(key string, v interface{}, ttl time.Duration) {
	if s == nil || s.backend == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	// stored as a string: the redis backend json-encodes values itself and
	// would turn []byte into base64
	s.backend.Set(key, string(data), ttl)
}

func (s *Store) Delete(keys ...string) {
	if s == nil || s.backend == nil {
		return
	}
	for _, key := range keys {
		s.backend.Delete(key)
	}
}

// decode accepts the string written by SetJSON and raw []byte values.
func decode(raw interface{}, v interface{}) error {
	switch val := raw.(type) {
	case []byte:
		return json.Unmarshal(val, v)
	case string:
		return json.Unmarshal([]byte(val), v)
	default:
		return fmt.Errorf("unexpected cached type %T", raw)
	}
}
