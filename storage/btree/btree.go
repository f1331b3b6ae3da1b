// Package btree implements an in-memory B+ tree secondary index over
// composite storage/value.Value keys, mapping each key to the heap
// slot(s) that hold it. Leaves are linked for ordered range scans;
// internal nodes are never merged or rebalanced on delete, matching
// the engine's bias toward simple, auditable recovery over
// steady-state compaction.
package btree

import (
	"sort"

	"github.com/chocapikk/arcdb/storage/heap"
	"github.com/chocapikk/arcdb/storage/value"
)

// Order bounds the fan-out of internal nodes and the key count of
// leaves: a node holds at most Order-1 keys before it splits.
const Order = 4

// Key is a composite index key: an ordered vector of column values
// compared lexicographically, column by column. When one key is a
// strict prefix of the other, the shorter key sorts first (the
// length-tiebreak).
type Key []value.Value

// Compare orders k against other, comparing entries pairwise and
// falling back to length when one is a prefix of the other.
func (k Key) Compare(other Key) int {
	n := len(k)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if c := k[i].Compare(other[i]); c != 0 {
			return c
		}
	}
	return len(k) - len(other)
}

// Equal reports whether k and other compare equal.
func (k Key) Equal(other Key) bool {
	return k.Compare(other) == 0
}

// Entry is one key/slot pairing held in a leaf.
type Entry struct {
	Key  Key
	Slot heap.SlotID
}

type node struct {
	leaf bool

	// leaf node fields
	entries []Entry
	next    *node // right sibling, for ordered range scans

	// internal node fields
	keys     []Key // keys[i] is the smallest key in children[i+1]
	children []*node
}

// Tree is a B+ tree index. Duplicate keys are permitted; each Insert
// appends a new Entry rather than replacing one.
type Tree struct {
	root *node
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{root: &node{leaf: true}}
}

// Insert adds key -> slot to the index, splitting nodes as needed.
func (t *Tree) Insert(key Key, slot heap.SlotID) {
	newChild, splitKey := t.insert(t.root, key, slot)
	if newChild != nil {
		t.root = &node{
			leaf:     false,
			keys:     []Key{splitKey},
			children: []*node{t.root, newChild},
		}
	}
}

// insert returns a non-nil sibling node and its split key when n had
// to split to accommodate the new entry.
func (t *Tree) insert(n *node, key Key, slot heap.SlotID) (*node, Key) {
	if n.leaf {
		idx := sort.Search(len(n.entries), func(i int) bool {
			return n.entries[i].Key.Compare(key) >= 0
		})
		n.entries = append(n.entries, Entry{})
		copy(n.entries[idx+1:], n.entries[idx:])
		n.entries[idx] = Entry{Key: key, Slot: slot}

		if len(n.entries) < Order {
			return nil, nil
		}
		return t.splitLeaf(n)
	}

	childIdx := t.childIndex(n, key)
	child := n.children[childIdx]
	newChild, splitKey := t.insert(child, key, slot)
	if newChild == nil {
		return nil, nil
	}

	n.keys = append(n.keys, nil)
	copy(n.keys[childIdx+1:], n.keys[childIdx:])
	n.keys[childIdx] = splitKey

	n.children = append(n.children, nil)
	copy(n.children[childIdx+2:], n.children[childIdx+1:])
	n.children[childIdx+1] = newChild

	if len(n.children) <= Order {
		return nil, nil
	}
	return t.splitInternal(n)
}

// childIndex returns the index of the child that owns key: the
// rightmost child whose boundary key is <= key ("right-of-equal" on
// exact internal key matches).
func (t *Tree) childIndex(n *node, key Key) int {
	idx := sort.Search(len(n.keys), func(i int) bool {
		return n.keys[i].Compare(key) > 0
	})
	return idx
}

func (t *Tree) splitLeaf(n *node) (*node, Key) {
	mid := len(n.entries) / 2
	sibling := &node{
		leaf:    true,
		entries: append([]Entry(nil), n.entries[mid:]...),
		next:    n.next,
	}
	n.entries = n.entries[:mid]
	n.next = sibling
	return sibling, sibling.entries[0].Key
}

func (t *Tree) splitInternal(n *node) (*node, Key) {
	mid := len(n.keys) / 2
	splitKey := n.keys[mid]

	sibling := &node{
		leaf:     false,
		keys:     append([]Key(nil), n.keys[mid+1:]...),
		children: append([]*node(nil), n.children[mid+1:]...),
	}
	n.keys = n.keys[:mid]
	n.children = n.children[:mid+1]
	return sibling, splitKey
}

// Search returns every slot stored under key.
func (t *Tree) Search(key Key) []heap.SlotID {
	n := t.leafFor(key)
	var out []heap.SlotID
	for _, e := range n.entries {
		if e.Key.Equal(key) {
			out = append(out, e.Slot)
		}
	}
	return out
}

func (t *Tree) leafFor(key Key) *node {
	n := t.root
	for !n.leaf {
		n = n.children[t.childIndex(n, key)]
	}
	return n
}

// leftmostLeaf returns the first leaf in key order.
func (t *Tree) leftmostLeaf() *node {
	n := t.root
	for !n.leaf {
		n = n.children[0]
	}
	return n
}

// RangeScan returns every entry with lo <= key <= hi in ascending key
// order. A nil bound is unbounded on that side.
func (t *Tree) RangeScan(lo, hi Key) []Entry {
	var start *node
	if lo != nil {
		start = t.leafFor(lo)
	} else {
		start = t.leftmostLeaf()
	}

	var out []Entry
	for n := start; n != nil; n = n.next {
		for _, e := range n.entries {
			if lo != nil && e.Key.Compare(lo) < 0 {
				continue
			}
			if hi != nil && e.Key.Compare(hi) > 0 {
				return out
			}
			out = append(out, e)
		}
	}
	return out
}

// ScanAll returns every entry in ascending key order.
func (t *Tree) ScanAll() []Entry {
	return t.RangeScan(nil, nil)
}

// Delete removes the first entry matching (key, slot). Leaves are
// never merged or rebalanced after a delete: the tree can become
// sparser over time but stays correct, trading steady-state density
// for simplicity.
func (t *Tree) Delete(key Key, slot heap.SlotID) bool {
	n := t.leafFor(key)
	for i, e := range n.entries {
		if e.Key.Equal(key) && e.Slot == slot {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			return true
		}
	}
	return false
}
