package network

import (
	"fmt"
	"math"
)

// Builder turns stops and lines into stop nodes, boarding nodes and
// line/board/alight arcs. It owns no IDs itself; it draws them from the
// allocators it was given.
type Builder struct {
	nodes *Allocator
	arcs  *Allocator
	net   *Network

	stops map[int]int    // stop ID -> stop node ID
	names map[int]string // stop ID -> stop name
	lines map[int]bool
}

// NewBuilder returns a builder drawing node and arc IDs from the given allocators.
func NewBuilder(nodes, arcs *Allocator) *Builder {
	return &Builder{
		nodes: nodes,
		arcs:  arcs,
		net:   &Network{},
		stops: make(map[int]int),
		names: make(map[int]string),
		lines: make(map[int]bool),
	}
}

// AddStops creates one stop node per record, in order. A stop ID seen before
// (in this call or an earlier one) is rejected before any node is created.
func (b *Builder) AddStops(stops []Stop) error {
	seen := make(map[int]bool, len(stops))
	for _, s := range stops {
		if _, dup := b.stops[s.ID]; dup || seen[s.ID] {
			return fmt.Errorf("stop %d: %w", s.ID, ErrDuplicateStop)
		}
		seen[s.ID] = true
	}
	for _, s := range stops {
		id := b.nodes.Next()
		b.net.Nodes = append(b.net.Nodes, Node{
			ID:    id,
			Name:  StopNodeName(s.ID, s.Name),
			Type:  NodeStop,
			Line:  NoLine,
			Value: NoValue,
		})
		b.stops[s.ID] = id
		b.names[s.ID] = s.Name
	}
	return nil
}

// AddLine creates the boarding nodes and arcs of one line. Every referenced
// stop is checked first; on error nothing is allocated and the network is
// unchanged.
func (b *Builder) AddLine(l Line) error {
	if len(l.Stops) == 0 {
		return fmt.Errorf("line %d: %w", l.ID, ErrEmptyLine)
	}
	if b.lines[l.ID] {
		return fmt.Errorf("line %d: %w", l.ID, ErrDuplicateLine)
	}
	for _, ls := range l.Stops {
		if _, ok := b.stops[ls.StopID]; !ok {
			return fmt.Errorf("line %d: %w %d", l.ID, ErrUnknownStop, ls.StopID)
		}
		if ls.TravelTime < 0 || math.IsNaN(ls.TravelTime) {
			return fmt.Errorf("line %d stop %d: %w", l.ID, ls.StopID, ErrNegativeTime)
		}
	}
	b.lines[l.ID] = true

	boarding := make([]int, len(l.Stops))
	for i, ls := range l.Stops {
		boarding[i] = b.nodes.Next()
		b.net.Nodes = append(b.net.Nodes, Node{
			ID:    boarding[i],
			Name:  BoardingNodeName(ls.StopID, b.names[ls.StopID], l.ID),
			Type:  NodeBoarding,
			Line:  l.ID,
			Value: NoValue,
		})
	}

	// the time recorded at a stop is the ride to the next one
	for i := 1; i < len(l.Stops); i++ {
		b.addArc(ArcLine, l.ID, boarding[i-1], boarding[i], l.Stops[i-1].TravelTime)
	}

	for i, ls := range l.Stops {
		stop := b.stops[ls.StopID]
		b.addArc(ArcBoard, l.ID, stop, boarding[i], 0)
		b.addArc(ArcAlight, l.ID, boarding[i], stop, 0)
	}
	return nil
}

func (b *Builder) addArc(t ArcType, line, tail, head int, time float64) {
	b.net.Arcs = append(b.net.Arcs, Arc{
		ID:   b.arcs.Next(),
		Type: t,
		Line: line,
		Tail: tail,
		Head: head,
		Time: time,
	})
}

// Network returns the network built so far. The builder keeps appending to
// the same value.
func (b *Builder) Network() *Network { return b.net }
