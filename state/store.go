// Package state models the host key-value store a contract runs against:
// flat byte keys, prefix iteration in ascending key order, and branching for
// the transactional semantics of sub-calls.
package state

import (
	"bytes"
	"sort"
)

type Store interface {
	Get(key []byte) []byte
	Set(key, value []byte)
	Delete(key []byte)
	// Iterate visits keys with the given prefix in ascending byte order,
	// stopping early when fn returns false.
	Iterate(prefix []byte, fn func(key, value []byte) bool)
}

// MemStore is an in-memory Store. A branch overlays its parent and buffers
// writes until Commit; dropping an uncommitted branch discards them.
type MemStore struct {
	parent  *MemStore
	data    map[string][]byte
	deleted map[string]struct{}
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		data:    make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}

// Branch returns a child store whose writes are invisible to the parent
// until Commit is called.
func (s *MemStore) Branch() *MemStore {
	child := NewMemStore()
	child.parent = s
	return child
}

// Commit writes the branch's buffered writes and deletes into its parent.
// Committing a root store is a no-op.
func (s *MemStore) Commit() {
	if s.parent == nil {
		return
	}
	for k := range s.deleted {
		s.parent.Delete([]byte(k))
	}
	for k, v := range s.data {
		s.parent.Set([]byte(k), v)
	}
	s.data = make(map[string][]byte)
	s.deleted = make(map[string]struct{})
}

func (s *MemStore) Get(key []byte) []byte {
	if v, ok := s.data[string(key)]; ok {
		cp := make([]byte, len(v))
		copy(cp, v)
		return cp
	}
	if _, ok := s.deleted[string(key)]; ok {
		return nil
	}
	if s.parent != nil {
		return s.parent.Get(key)
	}
	return nil
}

func (s *MemStore) Set(key, value []byte) {
	cp := make([]byte, len(value))
	copy(cp, value)
	delete(s.deleted, string(key))
	s.data[string(key)] = cp
}

func (s *MemStore) Delete(key []byte) {
	delete(s.data, string(key))
	s.deleted[string(key)] = struct{}{}
}

func (s *MemStore) Iterate(prefix []byte, fn func(key, value []byte) bool) {
	merged := make(map[string][]byte)
	s.collect(prefix, merged)

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !fn([]byte(k), merged[k]) {
			return
		}
	}
}

func (s *MemStore) collect(prefix []byte, out map[string][]byte) {
	if s.parent != nil {
		s.parent.collect(prefix, out)
	}
	for k := range s.deleted {
		if bytes.HasPrefix([]byte(k), prefix) {
			delete(out, k)
		}
	}
	for k, v := range s.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			out[k] = v
		}
	}
}
