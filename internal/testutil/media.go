package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"saferoute/pkg/mediastore"
)

// MemoryStore is an in-memory mediastore.Store.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	seq     int
	// FailSave makes every Save return an error.
	FailSave bool
}

var _ mediastore.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Save(_ context.Context, folder, filename string, body io.Reader, _ string) (string, error) {
	if m.FailSave {
		return "", errors.New("storage unavailable")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ref := fmt.Sprintf("%s/%d-%s", folder, m.seq, filename)
	m.objects[ref] = data
	return ref, nil
}

func (m *MemoryStore) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, ref)
	return nil
}

func (m *MemoryStore) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return "/media/" + ref
}

func (m *MemoryStore) Has(ref string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[ref]
	return ok
}

// Refs lists stored references in sorted order.
func (m *MemoryStore) Refs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
