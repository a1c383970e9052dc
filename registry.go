package xmldiffview

import (
	"fmt"
	"sort"
)

// Descriptor is the cross-reference recorded for one operation id.
type Descriptor struct {
	ID    int
	Kind  DescriptorKind
	Nodes []*Node
}

// Registry maps operation ids to descriptors for one merge session.
type Registry struct {
	descriptors map[int]*Descriptor
}

func newRegistry() *Registry {
	return &Registry{descriptors: make(map[int]*Descriptor)}
}

// declare seeds a descriptor from a diffgram descriptor element.
func (r *Registry) declare(opid int, kind DescriptorKind) error {
	if d, ok := r.descriptors[opid]; ok && d.Kind != kind {
		return fmt.Errorf("%w: opid %d declared as both %q and %q", ErrInvalidDiffgram, opid, d.Kind, kind)
	}
	r.descriptors[opid] = &Descriptor{ID: opid, Kind: kind}
	return nil
}

// add appends n to the node list of opid, creating an undeclared descriptor
// when needed.
func (r *Registry) add(opid int, n *Node) {
	if opid == 0 {
		return
	}
	d, ok := r.descriptors[opid]
	if !ok {
		d = &Descriptor{ID: opid}
		r.descriptors[opid] = d
	}
	d.Nodes = append(d.Nodes, n)
}

// Kind returns the descriptor kind of opid, DescriptorNone when undeclared.
func (r *Registry) Kind(opid int) DescriptorKind {
	if d, ok := r.descriptors[opid]; ok {
		return d.Kind
	}
	return DescriptorNone
}

// Lookup returns the descriptor of opid.
func (r *Registry) Lookup(opid int) (*Descriptor, bool) {
	d, ok := r.descriptors[opid]
	return d, ok
}

// Descriptors returns all descriptors ordered by operation id.
func (r *Registry) Descriptors() []*Descriptor {
	list := make([]*Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		list = append(list, d)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Counterpart returns the other end of a relocation: the move-to node for a
// move-from node and the other way round. When a relocation moves a run of
// nodes, the halves are paired by their position within the run.
func (r *Registry) Counterpart(n *Node) (*Node, bool) {
	var want Operation
	switch n.Op {
	case OpMoveFrom:
		want = OpMoveTo
	case OpMoveTo:
		want = OpMoveFrom
	default:
		return nil, false
	}
	d, ok := r.descriptors[n.OpID]
	if !ok || d.Kind != DescriptorRelocation {
		return nil, false
	}
	rank, found := 0, false
	var others []*Node
	for _, m := range d.Nodes {
		switch {
		case m == n:
			found = true
		case m.Op == want:
			others = append(others, m)
		case m.Op == n.Op && !found:
			rank++
		}
	}
	if len(others) == 0 {
		return nil, false
	}
	if !found || rank >= len(others) {
		return others[len(others)-1], true
	}
	return others[rank], true
}
