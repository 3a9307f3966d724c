package state

// PrefixStore scopes all keys of a parent store under a fixed prefix, the
// way the host scopes each contract's storage.
type PrefixStore struct {
	parent Store
	prefix []byte
}

var _ Store = (*PrefixStore)(nil)

func NewPrefixStore(parent Store, prefix string) *PrefixStore {
	return &PrefixStore{parent: parent, prefix: []byte(prefix)}
}

func (s *PrefixStore) key(key []byte) []byte {
	return append(append([]byte{}, s.prefix...), key...)
}

func (s *PrefixStore) Get(key []byte) []byte {
	return s.parent.Get(s.key(key))
}

func (s *PrefixStore) Set(key, value []byte) {
	s.parent.Set(s.key(key), value)
}

func (s *PrefixStore) Delete(key []byte) {
	s.parent.Delete(s.key(key))
}

func (s *PrefixStore) Iterate(prefix []byte, fn func(key, value []byte) bool) {
	s.parent.Iterate(s.key(prefix), func(key, value []byte) bool {
		return fn(key[len(s.prefix):], value)
	})
}
