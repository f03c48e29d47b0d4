package dag

// DAG is a generational slot-map graph of per-(chunk, stage) task nodes
// connected by an intrusive singly-linked outgoing-edge list. There is no
// reverse (incoming-edge) index: edges are created in bursts during chain
// construction and destroyed in bursts during cancellation/completion, and
// an incoming index would double memory for a query workload that never
// needs it (SPEC_FULL.md §4.1).
//
// DAG itself holds no lock; callers (internal/schedule) serialize access
// under their own coarse structural mutex.
type DAG struct {
	nodes     []nodeSlot
	freeNodes []uint32

	edges     []edgeSlot
	freeEdges []uint32
}

// New returns an empty DAG.
func New() *DAG {
	return &DAG{}
}

// Insert adds a new node and returns its key. O(1).
func (g *DAG) Insert(n Node) NodeKey {
	n.edge = nilEdgeKey
	if len(g.freeNodes) > 0 {
		idx := g.freeNodes[len(g.freeNodes)-1]
		g.freeNodes = g.freeNodes[:len(g.freeNodes)-1]
		slot := &g.nodes[idx]
		slot.node = n
		slot.live = true
		return NodeKey{Index: idx, Generation: slot.generation}
	}
	idx := uint32(len(g.nodes))
	g.nodes = append(g.nodes, nodeSlot{node: n, live: true})
	return NodeKey{Index: idx, Generation: 0}
}

// Get resolves a NodeKey to its Node, returning false if the key is stale
// (the node was dropped, or never existed).
func (g *DAG) Get(k NodeKey) (Node, bool) {
	slot, ok := g.slot(k)
	if !ok {
		return Node{}, false
	}
	return slot.node, true
}

// Live reports whether k currently addresses a live node, without copying it.
func (g *DAG) Live(k NodeKey) bool {
	_, ok := g.slot(k)
	return ok
}

func (g *DAG) slot(k NodeKey) (*nodeSlot, bool) {
	if k.IsNil() || int(k.Index) >= len(g.nodes) {
		return nil, false
	}
	slot := &g.nodes[k.Index]
	if !slot.live || slot.generation != k.Generation {
		return nil, false
	}
	return slot, true
}

// SetQueued updates the Queued bit on a live node. No-op on a stale key.
func (g *DAG) SetQueued(k NodeKey, queued bool) {
	if slot, ok := g.slot(k); ok {
		slot.node.Queued = queued
	}
}

// AddEdge prepends an edge from -> to to from's outgoing list and increments
// to's in-degree. The caller guarantees both nodes are live and that the
// edge preserves acyclicity (SPEC_FULL.md §4.1); AddEdge does not itself
// validate either condition.
func (g *DAG) AddEdge(from, to NodeKey) {
	fromSlot, ok := g.slot(from)
	if !ok {
		return
	}
	toSlot, ok := g.slot(to)
	if !ok {
		return
	}

	ek := g.newEdge(edge{to: to, next: fromSlot.node.edge})
	fromSlot.node.edge = ek
	toSlot.node.InDegree++
}

func (g *DAG) newEdge(e edge) EdgeKey {
	if len(g.freeEdges) > 0 {
		idx := g.freeEdges[len(g.freeEdges)-1]
		g.freeEdges = g.freeEdges[:len(g.freeEdges)-1]
		g.edges[idx] = edgeSlot{edge: e, live: true}
		return EdgeKey{index: idx}
	}
	idx := uint32(len(g.edges))
	g.edges = append(g.edges, edgeSlot{edge: e, live: true})
	return EdgeKey{index: idx}
}

// Successors returns the live outgoing neighbors of k, in list order (most
// recently added first, since AddEdge prepends).
func (g *DAG) Successors(k NodeKey) []NodeKey {
	slot, ok := g.slot(k)
	if !ok {
		return nil
	}
	var out []NodeKey
	ek := slot.node.edge
	for !ek.IsNil() {
		es := &g.edges[ek.index]
		if !es.live {
			break
		}
		out = append(out, es.edge.to)
		ek = es.edge.next
	}
	return out
}

// DropNode removes the node at k. For each outgoing edge (k -> to), the
// successor's in-degree is decremented and the edge is freed; DropNode
// returns the list of successors whose in-degree reached zero as a result,
// so the caller can admit them to the ReadyQueue. DropNode does not
// enumerate incoming edges — see the package doc.
func (g *DAG) DropNode(k NodeKey) []NodeKey {
	slot, ok := g.slot(k)
	if !ok {
		return nil
	}

	var readied []NodeKey
	ek := slot.node.edge
	for !ek.IsNil() {
		es := &g.edges[ek.index]
		if es.live {
			if toSlot, ok := g.slot(es.edge.to); ok {
				toSlot.node.InDegree--
				if toSlot.node.InDegree == 0 {
					readied = append(readied, es.edge.to)
				}
			}
		}
		next := es.edge.next
		g.freeEdge(ek)
		ek = next
	}

	slot.live = false
	slot.generation++
	slot.node = Node{}
	g.freeNodes = append(g.freeNodes, k.Index)
	return readied
}

func (g *DAG) freeEdge(k EdgeKey) {
	g.edges[k.index].live = false
	g.edges[k.index].edge = edge{}
	g.freeEdges = append(g.freeEdges, k.index)
}
