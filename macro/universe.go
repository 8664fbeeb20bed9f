package macro

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/outofforest/hashlife/rule"
	"github.com/outofforest/hashlife/types"
	"github.com/outofforest/logger"
	"github.com/outofforest/mass"
)

const massNodeSize = 1 << 12

// epochs is global so nodes of different universes never share an epoch.
var epochs atomic.Uint64

// Config stores universe configuration.
type Config struct {
	// Rule is the rule used to advance nodes.
	Rule rule.Rule

	// MaxNodes is the number of canonical nodes above which Step compacts the universe.
	// Zero disables compaction.
	MaxNodes uint64
}

// New creates new universe.
func New(config Config) (*Universe, error) {
	if err := config.Rule.Validate(); err != nil {
		return nil, err
	}
	u := &Universe{
		config: config,
		nextID: firstInteriorID,
	}
	u.reset()
	return u, nil
}

// Universe owns the table of canonical nodes and the memoized results of advancing them.
// All the methods are safe for concurrent use, calls are serialized.
type Universe struct {
	config Config

	mu       sync.Mutex
	epoch    uint64
	nextID   uint64
	calls    uint64
	massNode *mass.Mass[Node]
	table    *table
	empties  []*Node
	memo     map[memoKey]*Node
}

// Rule returns the rule used by universe.
func (u *Universe) Rule() rule.Rule {
	return u.config.Rule
}

// Epoch returns the identifier of the current generation of the node table.
func (u *Universe) Epoch() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.epoch
}

// NodeCount returns the number of canonical interior nodes.
func (u *Universe) NodeCount() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.table.count
}

// MemoCount returns the number of memoized results of partial steps.
func (u *Universe) MemoCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	return len(u.memo)
}

// Create returns the canonical node with given quadrants.
func (u *Universe) Create(nw, ne, sw, se *Node) (*Node, error) {
	if nw == nil || ne == nil || sw == nil || se == nil {
		return nil, errors.Wrap(types.ErrInvariant, "quadrant is nil")
	}
	if nw.level != ne.level || nw.level != sw.level || nw.level != se.level {
		return nil, errors.Wrapf(types.ErrInvariant, "quadrant levels differ: %d, %d, %d, %d",
			nw.level, ne.level, sw.level, se.level)
	}
	if nw.level >= types.MaxLevel {
		return nil, errors.Wrapf(types.ErrInvariant, "level %d exceeds maximum %d", nw.level+1, types.MaxLevel)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	return u.join(u.adopt(nw), u.adopt(ne), u.adopt(sw), u.adopt(se)), nil
}

// Empty returns the canonical node of given level containing no alive cells.
func (u *Universe) Empty(level int) (*Node, error) {
	if level < 0 || level > types.MaxLevel {
		return nil, errors.Wrapf(types.ErrInvalidArgument, "level %d is outside [0, %d]", level, types.MaxLevel)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	return u.empty(uint8(level)), nil
}

// Import returns the node of this universe equal to the node built by another universe or epoch.
func (u *Universe) Import(n *Node) *Node {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.adopt(n)
}

// Reset drops all the canonical nodes and memoized results.
// Nodes created before remain valid and are imported again when passed back to the universe.
func (u *Universe) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.reset()
}

// Compact resets the universe keeping only nodes reachable from the roots. Returned roots belong to the new epoch.
func (u *Universe) Compact(ctx context.Context, roots ...*Node) []*Node {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.compact(ctx, roots)
}

func (u *Universe) compact(ctx context.Context, roots []*Node) []*Node {
	nodesBefore := u.table.count
	memoBefore := len(u.memo)

	u.reset()
	imported := make([]*Node, 0, len(roots))
	for _, r := range roots {
		imported = append(imported, u.adopt(r))
	}

	if log := logger.Get(ctx); log != nil {
		log.Debug("Universe compacted",
			zap.Uint64("epoch", u.epoch),
			zap.Uint64("nodesBefore", nodesBefore),
			zap.Uint64("nodesAfter", u.table.count),
			zap.Int("memoDropped", memoBefore))
	}

	return imported
}

func (u *Universe) reset() {
	u.epoch = epochs.Add(1)
	u.massNode = mass.New[Node](massNodeSize)
	u.table = newTable(initialTableSize)
	u.empties = []*Node{deadLeaf}
	u.memo = map[memoKey]*Node{}
}

// join returns canonical node for quadrants which are known to be canonical nodes of the same level.
func (u *Universe) join(nw, ne, sw, se *Node) *Node {
	hash := hashChildren(nw, ne, sw, se)
	n, index := u.table.find(hash, nw, ne, sw, se)
	if n != nil {
		return n
	}

	n = u.massNode.New()
	*n = Node{
		id:         u.nextID,
		hash:       hash,
		epoch:      u.epoch,
		population: addPopulation(nw.population, ne.population, sw.population, se.population),
		nw:         nw,
		ne:         ne,
		sw:         sw,
		se:         se,
		level:      nw.level + 1,
	}
	u.nextID++
	u.table.insert(index, n)
	return n
}

func (u *Universe) empty(level uint8) *Node {
	for uint8(len(u.empties)) <= level {
		e := u.empties[len(u.empties)-1]
		u.empties = append(u.empties, u.join(e, e, e, e))
	}
	return u.empties[level]
}

// adopt returns node equal to n belonging to the current epoch.
func (u *Universe) adopt(n *Node) *Node {
	if n.level == 0 || n.epoch == u.epoch {
		return n
	}
	return u.importNode(n, map[*Node]*Node{})
}

func (u *Universe) importNode(n *Node, imported map[*Node]*Node) *Node {
	switch {
	case n.level == 0:
		return Leaf(n.alive)
	case n.epoch == u.epoch:
		return n
	case n.population == 0:
		return u.empty(n.level)
	}
	if n2, exists := imported[n]; exists {
		return n2
	}

	n2 := u.join(
		u.importNode(n.nw, imported),
		u.importNode(n.ne, imported),
		u.importNode(n.sw, imported),
		u.importNode(n.se, imported),
	)
	imported[n] = n2
	return n2
}
