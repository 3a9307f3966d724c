package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemStore(t *testing.T) {
	s := NewMemStore()

	assert.Nil(t, s.Get([]byte("missing")))

	s.Set([]byte("a"), []byte("1"))
	assert.Equal(t, []byte("1"), s.Get([]byte("a")))

	s.Delete([]byte("a"))
	assert.Nil(t, s.Get([]byte("a")))
}

func TestMemStoreBranchCommit(t *testing.T) {
	root := NewMemStore()
	root.Set([]byte("a"), []byte("1"))
	root.Set([]byte("b"), []byte("2"))

	branch := root.Branch()
	branch.Set([]byte("a"), []byte("10"))
	branch.Delete([]byte("b"))
	branch.Set([]byte("c"), []byte("3"))

	// Branch reads through to the parent and sees its own writes.
	assert.Equal(t, []byte("10"), branch.Get([]byte("a")))
	assert.Nil(t, branch.Get([]byte("b")))
	assert.Equal(t, []byte("3"), branch.Get([]byte("c")))

	// Parent is untouched until commit.
	assert.Equal(t, []byte("1"), root.Get([]byte("a")))
	assert.Equal(t, []byte("2"), root.Get([]byte("b")))
	assert.Nil(t, root.Get([]byte("c")))

	branch.Commit()

	assert.Equal(t, []byte("10"), root.Get([]byte("a")))
	assert.Nil(t, root.Get([]byte("b")))
	assert.Equal(t, []byte("3"), root.Get([]byte("c")))
}

func TestMemStoreBranchDiscard(t *testing.T) {
	root := NewMemStore()
	root.Set([]byte("a"), []byte("1"))

	branch := root.Branch()
	branch.Set([]byte("a"), []byte("changed"))
	branch.Set([]byte("b"), []byte("new"))

	// Dropped without commit, the parent never sees the writes.
	assert.Equal(t, []byte("1"), root.Get([]byte("a")))
	assert.Nil(t, root.Get([]byte("b")))
}

func TestMemStoreIterate(t *testing.T) {
	root := NewMemStore()
	root.Set([]byte("q/b"), []byte("2"))
	root.Set([]byte("q/a"), []byte("1"))
	root.Set([]byte("other"), []byte("x"))

	branch := root.Branch()
	branch.Set([]byte("q/c"), []byte("3"))
	branch.Delete([]byte("q/a"))

	var keys []string
	branch.Iterate([]byte("q/"), func(key, value []byte) bool {
		keys = append(keys, string(key))
		return true
	})
	assert.Equal(t, []string{"q/b", "q/c"}, keys)

	// Early stop.
	keys = nil
	branch.Iterate([]byte("q/"), func(key, value []byte) bool {
		keys = append(keys, string(key))
		return false
	})
	assert.Equal(t, []string{"q/b"}, keys)
}

func TestPrefixStore(t *testing.T) {
	root := NewMemStore()
	prefixed := NewPrefixStore(root, "wasm/contract1/")

	prefixed.Set([]byte("k"), []byte("v"))
	assert.Equal(t, []byte("v"), prefixed.Get([]byte("k")))
	assert.Equal(t, []byte("v"), root.Get([]byte("wasm/contract1/k")))

	var keys []string
	prefixed.Iterate([]byte(""), func(key, value []byte) bool {
		keys = append(keys, string(key))
		return true
	})
	assert.Equal(t, []string{"k"}, keys)

	prefixed.Delete([]byte("k"))
	assert.Nil(t, root.Get([]byte("wasm/contract1/k")))
}
