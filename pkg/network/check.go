package network

import (
	"errors"
	"fmt"
	"math"
)

// maxProblems caps the number of problems Check collects.
const maxProblems = 50

type problems struct {
	errs    []error
	dropped int
}

func (p *problems) add(err error) {
	if len(p.errs) < maxProblems {
		p.errs = append(p.errs, err)
		return
	}
	p.dropped++
}

func (p *problems) err() error {
	if p.dropped > 0 {
		p.errs = append(p.errs, fmt.Errorf("%d more problems", p.dropped))
	}
	return errors.Join(p.errs...)
}

// CheckIDs verifies that node IDs and arc IDs are unique and that every arc
// endpoint is a node.
func CheckIDs(net *Network) error {
	var p problems
	checkIDs(net, &p)
	return p.err()
}

func checkIDs(net *Network, p *problems) map[int]Node {
	nodes := make(map[int]Node, len(net.Nodes))
	for _, n := range net.Nodes {
		if _, dup := nodes[n.ID]; dup {
			p.add(fmt.Errorf("node %d: %w", n.ID, ErrDuplicateNodeID))
			continue
		}
		nodes[n.ID] = n
	}
	arcs := make(map[int]bool, len(net.Arcs))
	for _, a := range net.Arcs {
		if arcs[a.ID] {
			p.add(fmt.Errorf("arc %d: %w", a.ID, ErrDuplicateArcID))
		}
		arcs[a.ID] = true
		if _, ok := nodes[a.Tail]; !ok {
			p.add(fmt.Errorf("arc %d tail %d: %w", a.ID, a.Tail, ErrDanglingArc))
		}
		if _, ok := nodes[a.Head]; !ok {
			p.add(fmt.Errorf("arc %d head %d: %w", a.ID, a.Head, ErrDanglingArc))
		}
	}
	return nodes
}

// Check verifies the full set of network invariants:
//   - IDs are unique and arcs only reference existing nodes
//   - arc endpoints match the arc type (line arcs join boarding nodes of their
//     line, board arcs run stop to boarding, alight arcs boarding to stop, walk
//     arcs join stops, demand walk arcs join a demand point and a stop)
//   - board and alight arcs take no time; no time is negative
//   - every boarding node has exactly one board arc in and one alight arc out,
//     both to the same stop
//   - every walking arc has a reverse arc with equal time
//
// All problems found (up to a cap) are joined into the returned error.
func Check(net *Network) error {
	var p problems
	nodes := checkIDs(net, &p)

	type walkKey struct {
		typ        ArcType
		tail, head int
		time       float64
	}
	walks := make(map[walkKey]int)
	boardIn := make(map[int][]int)
	alightOut := make(map[int][]int)

	for _, a := range net.Arcs {
		tail, okT := nodes[a.Tail]
		head, okH := nodes[a.Head]
		if !okT || !okH {
			continue
		}
		if !a.Type.Valid() {
			p.add(fmt.Errorf("arc %d: %w: unknown type %d", a.ID, ErrInvariant, int(a.Type)))
			continue
		}
		if a.Time < 0 || math.IsNaN(a.Time) {
			p.add(fmt.Errorf("arc %d: %w", a.ID, ErrNegativeTime))
		}
		switch a.Type {
		case ArcLine:
			if tail.Type != NodeBoarding || head.Type != NodeBoarding || tail.Line != a.Line || head.Line != a.Line {
				p.add(fmt.Errorf("arc %d: %w: line arc must join boarding nodes of line %d", a.ID, ErrInvariant, a.Line))
			}
		case ArcBoard:
			if tail.Type != NodeStop || head.Type != NodeBoarding || head.Line != a.Line {
				p.add(fmt.Errorf("arc %d: %w: board arc must run from a stop to a boarding node of line %d", a.ID, ErrInvariant, a.Line))
			}
			boardIn[a.Head] = append(boardIn[a.Head], a.Tail)
		case ArcAlight:
			if tail.Type != NodeBoarding || head.Type != NodeStop || tail.Line != a.Line {
				p.add(fmt.Errorf("arc %d: %w: alight arc must run from a boarding node of line %d to a stop", a.ID, ErrInvariant, a.Line))
			}
			alightOut[a.Tail] = append(alightOut[a.Tail], a.Head)
		case ArcWalk:
			if tail.Type != NodeStop || head.Type != NodeStop {
				p.add(fmt.Errorf("arc %d: %w: walk arc must join two stops", a.ID, ErrInvariant))
			}
			walks[walkKey{a.Type, a.Tail, a.Head, a.Time}]++
		case ArcWalkDemand:
			if !(tail.Type.IsDemand() && head.Type == NodeStop) && !(tail.Type == NodeStop && head.Type.IsDemand()) {
				p.add(fmt.Errorf("arc %d: %w: demand walk arc must join a demand point and a stop", a.ID, ErrInvariant))
			}
			walks[walkKey{a.Type, a.Tail, a.Head, a.Time}]++
		}
		if (a.Type == ArcBoard || a.Type == ArcAlight) && a.Time != 0 {
			p.add(fmt.Errorf("arc %d: %w: %s arc must take no time", a.ID, ErrInvariant, a.Type))
		}
	}

	for _, n := range net.Nodes {
		if n.Type != NodeBoarding {
			continue
		}
		in, out := boardIn[n.ID], alightOut[n.ID]
		if len(in) != 1 || len(out) != 1 {
			p.add(fmt.Errorf("boarding node %d: %w: %d board and %d alight arcs", n.ID, ErrInvariant, len(in), len(out)))
			continue
		}
		if in[0] != out[0] {
			p.add(fmt.Errorf("boarding node %d: %w: boards from stop %d but alights to stop %d", n.ID, ErrInvariant, in[0], out[0]))
		}
	}

	for k, count := range walks {
		rev := walkKey{k.typ, k.head, k.tail, k.time}
		if walks[rev] != count {
			p.add(fmt.Errorf("%s arc %d->%d: %w: no matching reverse arc", k.typ, k.tail, k.head, ErrInvariant))
		}
	}

	return p.err()
}

// Merge concatenates base and parts, in order, into a new network and
// rejects the result if any node or arc ID collides or any arc dangles.
func Merge(base *Network, parts ...*Network) (*Network, error) {
	out := base.Clone()
	for _, part := range parts {
		if part == nil {
			continue
		}
		out.Nodes = append(out.Nodes, part.Nodes...)
		out.Arcs = append(out.Arcs, part.Arcs...)
	}
	if err := CheckIDs(out); err != nil {
		return nil, err
	}
	return out, nil
}
