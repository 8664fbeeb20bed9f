package macro

import (
	"github.com/cespare/xxhash"

	"github.com/outofforest/photon"
)

const initialTableSize = 1 << 10

type childKey [4]uint64

func newTable(size uint64) *table {
	return &table{
		slots: make([]*Node, size),
		mask:  size - 1,
	}
}

// table is the open addressing hash set of canonical interior nodes.
type table struct {
	slots []*Node
	mask  uint64
	count uint64
}

// find returns the node with given children or the index of the free slot where it should be stored.
func (t *table) find(hash uint64, nw, ne, sw, se *Node) (*Node, uint64) {
	index := hash & t.mask
	for {
		n := t.slots[index]
		if n == nil {
			return nil, index
		}
		if n.hash == hash && n.nw == nw && n.ne == ne && n.sw == sw && n.se == se {
			return n, index
		}
		index = (index + 1) & t.mask
	}
}

// insert stores node in the free slot returned by find.
func (t *table) insert(index uint64, n *Node) {
	t.slots[index] = n
	t.count++
	if t.count*2 > uint64(len(t.slots)) {
		t.grow()
	}
}

func (t *table) grow() {
	slots := t.slots
	t.slots = make([]*Node, 2*len(slots))
	t.mask = uint64(len(t.slots)) - 1
	for _, n := range slots {
		if n == nil {
			continue
		}
		index := n.hash & t.mask
		for t.slots[index] != nil {
			index = (index + 1) & t.mask
		}
		t.slots[index] = n
	}
}

func hashChildren(nw, ne, sw, se *Node) uint64 {
	key := childKey{nw.id, ne.id, sw.id, se.id}
	return xxhash.Sum64(photon.NewFromValue(&key).B)
}
