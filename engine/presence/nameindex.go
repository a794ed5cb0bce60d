package presence

import (
	"strings"

	"github.com/xiaonanln/chanworld/engine/common"
	trie_tst "github.com/xiaonanln/go-trie-tst"
)

// NameIndex resolves player names case-insensitively
type NameIndex struct {
	tree trie_tst.TST
	size int
}

func normalizeName(name string) string {
	return strings.ToLower(name)
}

// Set binds name to the player id
func (ni *NameIndex) Set(name string, id common.PlayerID) {
	if name == "" {
		return
	}
	t := ni.tree.Sub(normalizeName(name))
	if t.Val == nil {
		ni.size++
	}
	t.Val = id
}

// Del unbinds name if it is bound to the player id
func (ni *NameIndex) Del(name string, id common.PlayerID) {
	if name == "" {
		return
	}
	t := ni.tree.Sub(normalizeName(name))
	if t.Val != nil && t.Val.(common.PlayerID) == id {
		t.Val = nil
		ni.size--
	}
}

// Lookup returns the player id bound to the name
func (ni *NameIndex) Lookup(name string) (common.PlayerID, bool) {
	if name == "" {
		return 0, false
	}
	t := ni.tree.Sub(normalizeName(name))
	if t.Val == nil {
		return 0, false
	}
	return t.Val.(common.PlayerID), true
}

// Len returns the number of bound names
func (ni *NameIndex) Len() int {
	return ni.size
}
