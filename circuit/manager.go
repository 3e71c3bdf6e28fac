package circuit

import (
	"math/bits"
	"sort"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

var (
	// ErrVarOutOfRange is returned when a variable or literal does not belong to the manager.
	ErrVarOutOfRange = errors.New("variable out of range")
	// ErrTooManyVars is returned when a manager is asked for more than MaxVars variables.
	ErrTooManyVars = errors.New("too many variables")
	// ErrTooLarge is returned when an operation would produce more models than allowed.
	ErrTooLarge = errors.New("circuit too large")
	// ErrStaleVtree is returned when a vtree node is not part of the variable order anymore.
	ErrStaleVtree = errors.New("stale vtree node")
)

// Options configure a Manager.
type Options struct {
	CacheSize int `yaml:"cache_size"` // Number of cached operation results, 0 disables the cache.
	MaxModels int `yaml:"max_models"` // Maximum number of models of a single node.
}

// DefaultOptions returns the options used when none are provided.
func DefaultOptions() Options {
	return Options{CacheSize: 4096, MaxModels: 1 << 22}
}

// Stats are counters about the activity of a manager.
type Stats struct {
	LiveNodes  int // Nodes that were not collected yet, pinned nodes excluded
	Moves      int // Calls to MoveVar that modified the vtree
	Conditions int // Calls to Condition
	CacheHits  int
	Collected  int // Nodes freed by GarbageCollect
}

type opCode byte

const (
	opCondition opCode = iota
	opConjoin
	opDisjoin
)

type opKey struct {
	op   opCode
	a, b uint64
	lit  int
}

// A Manager owns a set of nodes and the variable order (vtree) they are associated with.
// It is not safe for concurrent use.
type Manager struct {
	nbVars  int
	opts    Options
	root    *Vtree
	leaves  []*Vtree // leaves[v-1] is the leaf of var v
	byPos   []*Vtree
	nextID  uint64
	live    map[uint64]*Node
	lits    []*Node // lits[lit+nbVars], built lazily
	tru     *Node
	fals    *Node
	cache   *lru.Cache[opKey, *Node]
	stats   Stats
	allMask uint64
}

// NewManager returns a manager for nbVars variables, with a balanced initial vtree.
func NewManager(nbVars int, opts Options) (*Manager, error) {
	if nbVars < 1 || nbVars > MaxVars {
		return nil, errors.Wrapf(ErrTooManyVars, "cannot manage %d vars, expected 1 to %d", nbVars, MaxVars)
	}
	if opts.MaxModels <= 0 {
		opts.MaxModels = DefaultOptions().MaxModels
	}
	m := &Manager{
		nbVars: nbVars,
		opts:   opts,
		leaves: make([]*Vtree, nbVars),
		live:   make(map[uint64]*Node),
		lits:   make([]*Node, 2*nbVars+1),
	}
	if nbVars == MaxVars {
		m.allMask = ^uint64(0)
	} else {
		m.allMask = (1 << uint(nbVars)) - 1
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[opKey, *Node](opts.CacheSize)
		if err != nil {
			return nil, errors.Wrap(err, "could not create operation cache")
		}
		m.cache = cache
	}
	m.root = balanced(1, nbVars, m.leaves)
	m.refresh()
	m.tru = m.pinnedNode(0, roaring64.BitmapOf(0))
	m.fals = m.pinnedNode(0, roaring64.New())
	return m, nil
}

// NbVars returns the number of variables of the manager.
func (m *Manager) NbVars() int { return m.nbVars }

// Stats returns the activity counters of the manager.
func (m *Manager) Stats() Stats {
	s := m.stats
	s.LiveNodes = len(m.live)
	return s
}

// True returns the constant true.
func (m *Manager) True() *Node { return m.tru }

// False returns the constant false.
func (m *Manager) False() *Node { return m.fals }

// Literal returns the node associated with the given literal.
func (m *Manager) Literal(lit int) (*Node, error) {
	v, err := m.checkLit(lit)
	if err != nil {
		return nil, err
	}
	idx := lit + m.nbVars
	if m.lits[idx] == nil {
		model := uint64(0)
		if lit > 0 {
			model = varBit(v)
		}
		m.lits[idx] = m.pinnedNode(varBit(v), roaring64.BitmapOf(model))
	}
	return m.lits[idx], nil
}

// FromModels returns a node whose support is the given vars and whose models are the given assignments.
// Each model lists the variables of the support that are true.
func (m *Manager) FromModels(vars []int, models [][]int) (*Node, error) {
	var support uint64
	for _, v := range vars {
		if v < 1 || v > m.nbVars {
			return nil, errors.Wrapf(ErrVarOutOfRange, "var %d in a manager with %d vars", v, m.nbVars)
		}
		support |= varBit(v)
	}
	res := roaring64.New()
	for _, model := range models {
		var word uint64
		for _, v := range model {
			if v < 1 || v > m.nbVars || support&varBit(v) == 0 {
				return nil, errors.Wrapf(ErrVarOutOfRange, "var %d is not part of the support", v)
			}
			word |= varBit(v)
		}
		res.Add(word)
	}
	if err := m.checkSize(res); err != nil {
		return nil, err
	}
	return m.newNode(support, res), nil
}

// Condition returns the cofactor of n where lit is true.
// The result does not depend on the variable of lit.
func (m *Manager) Condition(lit int, n *Node) (*Node, error) {
	v, err := m.checkLit(lit)
	if err != nil {
		return nil, err
	}
	m.checkLive(n)
	m.stats.Conditions++
	bit := varBit(v)
	if n.support&bit == 0 {
		return n, nil
	}
	key := opKey{op: opCondition, a: n.id, lit: lit}
	if res, ok := m.lookup(key); ok {
		return res, nil
	}
	res := roaring64.New()
	for _, model := range n.models.ToArray() {
		if (model&bit != 0) == (lit > 0) {
			res.Add(model &^ bit)
		}
	}
	node := m.newNode(n.support&^bit, res)
	m.store(key, node)
	return node, nil
}

// Conjoin returns the conjunction of a and b.
func (m *Manager) Conjoin(a, b *Node) (*Node, error) {
	m.checkLive(a)
	m.checkLive(b)
	if a.id > b.id {
		a, b = b, a
	}
	key := opKey{op: opConjoin, a: a.id, b: b.id}
	if res, ok := m.lookup(key); ok {
		return res, nil
	}
	var res *roaring64.Bitmap
	if a.support == b.support {
		res = a.models.Clone()
		res.And(b.models)
	} else {
		common := a.support & b.support
		groups := make(map[uint64][]uint64)
		for _, mb := range b.models.ToArray() {
			groups[mb&common] = append(groups[mb&common], mb)
		}
		res = roaring64.New()
		for _, ma := range a.models.ToArray() {
			for _, mb := range groups[ma&common] {
				res.Add(ma | mb)
			}
			if err := m.checkSize(res); err != nil {
				return nil, err
			}
		}
	}
	node := m.newNode(a.support|b.support, res)
	m.store(key, node)
	return node, nil
}

// Disjoin returns the disjunction of a and b.
func (m *Manager) Disjoin(a, b *Node) (*Node, error) {
	m.checkLive(a)
	m.checkLive(b)
	if a.id > b.id {
		a, b = b, a
	}
	key := opKey{op: opDisjoin, a: a.id, b: b.id}
	if res, ok := m.lookup(key); ok {
		return res, nil
	}
	support := a.support | b.support
	res, err := m.expand(a, support)
	if err != nil {
		return nil, err
	}
	eb, err := m.expand(b, support)
	if err != nil {
		return nil, err
	}
	res.Or(eb)
	if err := m.checkSize(res); err != nil {
		return nil, err
	}
	node := m.newNode(support, res)
	m.store(key, node)
	return node, nil
}

// Equal is true iff a and b represent the same Boolean function.
func (m *Manager) Equal(a, b *Node) (bool, error) {
	m.checkLive(a)
	m.checkLive(b)
	support := a.support | b.support
	ea, err := m.expand(a, support)
	if err != nil {
		return false, err
	}
	eb, err := m.expand(b, support)
	if err != nil {
		return false, err
	}
	if ea.GetCardinality() != eb.GetCardinality() {
		return false, nil
	}
	ea.AndNot(eb)
	return ea.IsEmpty(), nil
}

// expand returns a fresh copy of the models of n, extended to the given support.
func (m *Manager) expand(n *Node, support uint64) (*roaring64.Bitmap, error) {
	extra := support &^ n.support
	if extra == 0 {
		return n.models.Clone(), nil
	}
	k := bits.OnesCount64(extra)
	if card := n.models.GetCardinality(); k >= 40 || card > uint64(m.opts.MaxModels)>>uint(k) {
		return nil, errors.Wrapf(ErrTooLarge, "expanding %d models over %d vars", n.models.GetCardinality(), k)
	}
	res := roaring64.New()
	for _, model := range n.models.ToArray() {
		sub := extra
		for {
			res.Add(model | sub)
			if sub == 0 {
				break
			}
			sub = (sub - 1) & extra
		}
	}
	return res, nil
}

// Ref increments the reference count of n.
func (m *Manager) Ref(n *Node) {
	m.checkLive(n)
	if !n.pinned {
		n.refs++
	}
}

// Deref decrements the reference count of n.
func (m *Manager) Deref(n *Node) {
	m.checkLive(n)
	if n.pinned {
		return
	}
	if n.refs == 0 {
		panic("circuit: dereferencing a node with no reference")
	}
	n.refs--
}

// GarbageCollect frees all nodes that are not referenced.
func (m *Manager) GarbageCollect() {
	collected := 0
	for id, n := range m.live {
		if n.refs == 0 {
			n.dead = true
			n.models = nil
			delete(m.live, id)
			collected++
		}
	}
	if collected > 0 && m.cache != nil {
		m.cache.Purge()
	}
	m.stats.Collected += collected
}

// Vtree returns the root of the variable order.
func (m *Manager) Vtree() *Vtree { return m.root }

// Leaf returns the leaf associated with variable v, or nil if v is out of range.
func (m *Manager) Leaf(v int) *Vtree {
	if v < 1 || v > m.nbVars {
		return nil
	}
	return m.leaves[v-1]
}

// AtPosition returns the vtree node with the given in-order position, or nil.
func (m *Manager) AtPosition(pos int) *Vtree {
	if pos < 0 || pos >= len(m.byPos) {
		return nil
	}
	return m.byPos[pos]
}

// VtreeOf returns the lowest vtree node containing all the variables n depends on.
// Constants are associated with the root.
func (m *Manager) VtreeOf(n *Node) *Vtree {
	m.checkLive(n)
	v := m.root
	for n.support != 0 && !v.IsLeaf() {
		switch {
		case n.support&^v.left.mask() == 0:
			v = v.left
		case n.support&^v.right.mask() == 0:
			v = v.right
		default:
			return v
		}
	}
	return v
}

// MoveVar moves the leaf of variable v so that it becomes the left (if toLeft) or right sibling of pivot.
// The leaf is first detached: its parent is replaced by its sibling. Then a new internal node,
// holding the leaf and pivot, takes the place of pivot.
// Moving a variable does not change the functions represented by the nodes of the manager.
func (m *Manager) MoveVar(v int, toLeft bool, pivot *Vtree) error {
	if v < 1 || v > m.nbVars {
		return errors.Wrapf(ErrVarOutOfRange, "cannot move var %d in a manager with %d vars", v, m.nbVars)
	}
	if pivot == nil || pivot.detached {
		return errors.Wrapf(ErrStaleVtree, "cannot move var %d", v)
	}
	leaf := m.leaves[v-1]
	if pivot == leaf {
		return errors.Wrapf(ErrStaleVtree, "var %d cannot be its own pivot", v)
	}
	parent := leaf.parent
	if parent == nil {
		return errors.Wrapf(ErrStaleVtree, "var %d is the only var of the vtree", v)
	}
	m.stats.Moves++
	sibling := parent.left
	if sibling == leaf {
		sibling = parent.right
	}
	m.replace(parent, sibling)
	parent.detached = true
	if pivot == parent {
		pivot = sibling
	}
	node := &Vtree{}
	m.replace(pivot, node)
	if toLeft {
		node.left, node.right = leaf, pivot
	} else {
		node.left, node.right = pivot, leaf
	}
	leaf.parent = node
	pivot.parent = node
	m.refresh()
	return nil
}

// MinimizeLimited rearranges the subtree rooted at v into a right-linear chain ordered by variable index.
// Since nodes do not depend on the vtree for their size, this is the only local optimization
// the manager performs: it keeps the part of the order below v canonical and shallow on the left.
// Internal nodes under v are detached.
func (m *Manager) MinimizeLimited(v *Vtree) {
	if v == nil || v.detached || v.IsLeaf() {
		return
	}
	var leaves []*Vtree
	var collect func(*Vtree)
	collect = func(t *Vtree) {
		if t.IsLeaf() {
			leaves = append(leaves, t)
			return
		}
		t.detached = true
		collect(t.left)
		collect(t.right)
	}
	collect(v)
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].v < leaves[j].v })
	parent := v.parent
	chain := rightLinear(leaves)
	chain.parent = parent
	if parent == nil {
		m.root = chain
	} else if parent.left == v {
		parent.left = chain
	} else {
		parent.right = chain
	}
	m.refresh()
}

// replace puts nw in the place of old in the vtree.
func (m *Manager) replace(old, nw *Vtree) {
	p := old.parent
	nw.parent = p
	switch {
	case p == nil:
		m.root = nw
	case p.left == old:
		p.left = nw
	default:
		p.right = nw
	}
}

// refresh recomputes the in-order positions of all vtree nodes.
func (m *Manager) refresh() {
	m.byPos = m.byPos[:0]
	var visit func(*Vtree)
	visit = func(v *Vtree) {
		if v.IsLeaf() {
			v.pos = len(m.byPos)
			m.byPos = append(m.byPos, v)
			return
		}
		visit(v.left)
		v.pos = len(m.byPos)
		m.byPos = append(m.byPos, v)
		visit(v.right)
	}
	m.root.parent = nil
	visit(m.root)
}

func (m *Manager) checkLit(lit int) (int, error) {
	v := lit
	if v < 0 {
		v = -v
	}
	if v < 1 || v > m.nbVars {
		return 0, errors.Wrapf(ErrVarOutOfRange, "literal %d in a manager with %d vars", lit, m.nbVars)
	}
	return v, nil
}

func (m *Manager) checkLive(n *Node) {
	if n == nil {
		panic("circuit: nil node")
	}
	if n.dead {
		panic("circuit: use of a collected node")
	}
}

func (m *Manager) checkSize(models *roaring64.Bitmap) error {
	if card := models.GetCardinality(); card > uint64(m.opts.MaxModels) {
		return errors.Wrapf(ErrTooLarge, "%d models, limit is %d", card, m.opts.MaxModels)
	}
	return nil
}

func (m *Manager) newNode(support uint64, models *roaring64.Bitmap) *Node {
	m.nextID++
	n := &Node{id: m.nextID, support: support, models: models}
	m.live[n.id] = n
	return n
}

func (m *Manager) pinnedNode(support uint64, models *roaring64.Bitmap) *Node {
	m.nextID++
	return &Node{id: m.nextID, support: support, models: models, pinned: true}
}

func (m *Manager) lookup(key opKey) (*Node, bool) {
	if m.cache == nil {
		return nil, false
	}
	res, ok := m.cache.Get(key)
	if ok {
		m.stats.CacheHits++
	}
	return res, ok
}

func (m *Manager) store(key opKey, n *Node) {
	if m.cache != nil {
		m.cache.Add(key, n)
	}
}
