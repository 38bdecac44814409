package snapshot

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/dgryski/go-farm"
	"github.com/rs/zerolog/log"
	"github.com/shamaton/msgpack/v2"
)

// Hash identifies stored content. Equal content hashes equal, which is what
// makes revisit detection a map lookup.
type Hash uint64

// Store is content-addressed storage for serialized state.
type Store interface {
	Put(item Serde) (Hash, error)
	Has(hash Hash) bool
	Get(hash Hash) (bool, []byte, error)
}

// MemoryStore keeps everything in a map. The mutex makes it shareable
// between concurrent analysis passes, which otherwise touch disjoint state.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[Hash][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[Hash][]byte),
	}
}

func (m *MemoryStore) Put(item Serde) (Hash, error) {
	var buf bytes.Buffer
	if err := item.Serialize(&buf); err != nil {
		return 0, err
	}
	data := buf.Bytes()
	h := Hash(farm.Hash64(data))

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[h]; !ok {
		m.data[h] = data
		log.Trace().Uint64("hash", uint64(h)).Int("bytes", len(data)).Msg("MemoryStore: stored entry")
	}
	return h, nil
}

func (m *MemoryStore) Has(hash Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[hash]
	return ok
}

func (m *MemoryStore) Get(hash Hash) (bool, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[hash]
	if !ok {
		return false, nil, nil
	}
	return true, data, nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Retrieve fetches and decodes a stored entry.
func Retrieve[T any](s Store, hash Hash) (*T, error) {
	ok, data, err := s.Get(hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("hash not found in store: %d", hash)
	}
	out := new(T)
	if err := msgpack.UnmarshalRead(bytes.NewReader(data), out); err != nil {
		return nil, fmt.Errorf("deserializing %T: %w", out, err)
	}
	return out, nil
}
