package state

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// Item is a single JSON-encoded value under a fixed key.
type Item[T any] struct {
	key []byte
}

func NewItem[T any](name string) Item[T] {
	return Item[T]{key: []byte(name)}
}

func (i Item[T]) Load(s Store) (T, bool, error) {
	var v T
	raw := s.Get(i.key)
	if raw == nil {
		return v, false, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("state: decode %q: %w", i.key, err)
	}
	return v, true, nil
}

func (i Item[T]) Save(s Store, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", i.key, err)
	}
	s.Set(i.key, raw)
	return nil
}

func (i Item[T]) Remove(s Store) {
	s.Delete(i.key)
}

// Map is a namespace of JSON-encoded values keyed by string.
type Map[T any] struct {
	prefix string
}

func NewMap[T any](namespace string) Map[T] {
	return Map[T]{prefix: namespace + "/"}
}

func (m Map[T]) storageKey(key string) []byte {
	return []byte(m.prefix + key)
}

func (m Map[T]) Has(s Store, key string) bool {
	return s.Get(m.storageKey(key)) != nil
}

func (m Map[T]) Load(s Store, key string) (T, bool, error) {
	var v T
	raw := s.Get(m.storageKey(key))
	if raw == nil {
		return v, false, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("state: decode %q: %w", m.storageKey(key), err)
	}
	return v, true, nil
}

func (m Map[T]) Save(s Store, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", m.storageKey(key), err)
	}
	s.Set(m.storageKey(key), raw)
	return nil
}

func (m Map[T]) Remove(s Store, key string) {
	s.Delete(m.storageKey(key))
}

// Range visits entries in ascending key order, starting strictly after
// startAfter when given, up to limit entries (no limit when limit <= 0).
func (m Map[T]) Range(s Store, startAfter *string, limit int, fn func(key string, v T) bool) error {
	var rangeErr error
	count := 0
	s.Iterate([]byte(m.prefix), func(key, value []byte) bool {
		k := string(key[len(m.prefix):])
		if startAfter != nil && k <= *startAfter {
			return true
		}
		if limit > 0 && count >= limit {
			return false
		}
		var v T
		if err := json.Unmarshal(value, &v); err != nil {
			rangeErr = fmt.Errorf("state: decode %q: %w", key, err)
			return false
		}
		count++
		return fn(k, v)
	})
	return rangeErr
}

// Deque is a persistent double-ended queue of JSON-encoded values with
// positional insert and removal, backed by a dense [head, tail) index range.
type Deque[T any] struct {
	prefix string
}

func NewDeque[T any](namespace string) Deque[T] {
	return Deque[T]{prefix: namespace + "/"}
}

func (d Deque[T]) metaKey(name string) []byte {
	return []byte(d.prefix + "_" + name)
}

func (d Deque[T]) indexKey(i uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, i)
	return append([]byte(d.prefix+"i/"), buf...)
}

func (d Deque[T]) bounds(s Store) (head, tail uint64) {
	if raw := s.Get(d.metaKey("head")); raw != nil {
		head = binary.BigEndian.Uint64(raw)
	}
	if raw := s.Get(d.metaKey("tail")); raw != nil {
		tail = binary.BigEndian.Uint64(raw)
	}
	return head, tail
}

func (d Deque[T]) setBounds(s Store, head, tail uint64) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, head)
	s.Set(d.metaKey("head"), buf)
	binary.BigEndian.PutUint64(buf, tail)
	s.Set(d.metaKey("tail"), buf)
}

func (d Deque[T]) Len(s Store) uint64 {
	head, tail := d.bounds(s)
	return tail - head
}

func (d Deque[T]) PushBack(s Store, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: encode deque %q: %w", d.prefix, err)
	}
	head, tail := d.bounds(s)
	s.Set(d.indexKey(tail), raw)
	d.setBounds(s, head, tail+1)
	return nil
}

// PopFront removes and returns the head element; ok is false on empty.
func (d Deque[T]) PopFront(s Store) (T, bool, error) {
	var v T
	head, tail := d.bounds(s)
	if head == tail {
		return v, false, nil
	}
	raw := s.Get(d.indexKey(head))
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("state: decode deque %q: %w", d.prefix, err)
	}
	s.Delete(d.indexKey(head))
	d.setBounds(s, head+1, tail)
	return v, true, nil
}

// Get returns the element at position pos counted from the head.
func (d Deque[T]) Get(s Store, pos uint64) (T, bool, error) {
	var v T
	head, tail := d.bounds(s)
	if pos >= tail-head {
		return v, false, nil
	}
	raw := s.Get(d.indexKey(head + pos))
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("state: decode deque %q: %w", d.prefix, err)
	}
	return v, true, nil
}

// InsertAt splices v at position pos counted from the head, shifting later
// elements back. pos at or past the tail appends.
func (d Deque[T]) InsertAt(s Store, pos uint64, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("state: encode deque %q: %w", d.prefix, err)
	}
	head, tail := d.bounds(s)
	if pos > tail-head {
		pos = tail - head
	}
	for i := tail; i > head+pos; i-- {
		s.Set(d.indexKey(i), s.Get(d.indexKey(i-1)))
	}
	s.Set(d.indexKey(head+pos), raw)
	d.setBounds(s, head, tail+1)
	return nil
}

// RemoveAt removes and returns the element at position pos counted from the
// head, shifting later elements forward.
func (d Deque[T]) RemoveAt(s Store, pos uint64) (T, bool, error) {
	var v T
	head, tail := d.bounds(s)
	if pos >= tail-head {
		return v, false, nil
	}
	raw := s.Get(d.indexKey(head + pos))
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("state: decode deque %q: %w", d.prefix, err)
	}
	for i := head + pos; i+1 < tail; i++ {
		s.Set(d.indexKey(i), s.Get(d.indexKey(i+1)))
	}
	s.Delete(d.indexKey(tail - 1))
	d.setBounds(s, head, tail-1)
	return v, true, nil
}

// All returns the elements from head to tail.
func (d Deque[T]) All(s Store) ([]T, error) {
	head, tail := d.bounds(s)
	out := make([]T, 0, tail-head)
	for i := head; i < tail; i++ {
		var v T
		raw := s.Get(d.indexKey(i))
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("state: decode deque %q: %w", d.prefix, err)
		}
		out = append(out, v)
	}
	return out, nil
}
