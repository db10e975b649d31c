package network

import (
	"fmt"
	"slices"
)

// NoLine marks nodes and arcs that do not belong to a transit line.
const NoLine = -1

// NoValue marks nodes without a population or quality attribute.
const NoValue = -1.0

// NodeType classifies a node. The integer values are the on-disk encoding.
type NodeType int

const (
	NodeStop NodeType = iota
	NodeBoarding
	NodePopulationCenter
	NodeFacility
)

var nodeTypeNames = [...]string{"stop", "boarding", "population", "facility"}

func (t NodeType) String() string {
	if t.Valid() {
		return nodeTypeNames[t]
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool { return t >= NodeStop && t <= NodeFacility }

// IsDemand reports whether t is a demand point type.
func (t NodeType) IsDemand() bool { return t == NodePopulationCenter || t == NodeFacility }

// ArcType classifies an arc. The integer values are the on-disk encoding.
type ArcType int

const (
	ArcLine ArcType = iota
	ArcBoard
	ArcAlight
	ArcWalk
	ArcWalkDemand
)

var arcTypeNames = [...]string{"line", "board", "alight", "walk", "walk-demand"}

func (t ArcType) String() string {
	if t.Valid() {
		return arcTypeNames[t]
	}
	return fmt.Sprintf("ArcType(%d)", int(t))
}

// Valid reports whether t is a known arc type.
func (t ArcType) Valid() bool { return t >= ArcLine && t <= ArcWalkDemand }

// IsWalk reports whether t is one of the walking arc types.
func (t ArcType) IsWalk() bool { return t == ArcWalk || t == ArcWalkDemand }

// Node is a network vertex. Line is [NoLine] except for boarding nodes; Value
// is [NoValue] except for demand points (population count or quality score).
type Node struct {
	ID    int
	Name  string
	Type  NodeType
	Line  int
	Value float64
}

// Arc is a directed, weighted connection between two nodes. Time is in minutes.
type Arc struct {
	ID   int
	Type ArcType
	Line int
	Tail int
	Head int
	Time float64
}

// Network is an ordered node and arc table. Order is significant: it is the
// order rows are written in.
type Network struct {
	Nodes []Node
	Arcs  []Arc
}

// NodeCount returns the number of nodes.
func (n *Network) NodeCount() int { return len(n.Nodes) }

// ArcCount returns the number of arcs.
func (n *Network) ArcCount() int { return len(n.Arcs) }

// Clone returns a copy that shares no slices with n.
func (n *Network) Clone() *Network {
	return &Network{
		Nodes: slices.Clone(n.Nodes),
		Arcs:  slices.Clone(n.Arcs),
	}
}

// Counts tallies nodes and arcs per type.
func (n *Network) Counts() (map[NodeType]int, map[ArcType]int) {
	nodes := make(map[NodeType]int)
	arcs := make(map[ArcType]int)
	for _, nd := range n.Nodes {
		nodes[nd.Type]++
	}
	for _, a := range n.Arcs {
		arcs[a.Type]++
	}
	return nodes, arcs
}

// Without returns a copy of n minus every node whose type is in nodeTypes,
// every arc whose type is in arcTypes, and every arc touching a removed node.
// Relative order of the remaining rows is preserved.
func (n *Network) Without(nodeTypes []NodeType, arcTypes []ArcType) *Network {
	removed := make(map[int]bool)
	out := &Network{}
	for _, nd := range n.Nodes {
		if slices.Contains(nodeTypes, nd.Type) {
			removed[nd.ID] = true
			continue
		}
		out.Nodes = append(out.Nodes, nd)
	}
	for _, a := range n.Arcs {
		if slices.Contains(arcTypes, a.Type) || removed[a.Tail] || removed[a.Head] {
			continue
		}
		out.Arcs = append(out.Arcs, a)
	}
	return out
}

// Stop is a row of the stop table.
type Stop struct {
	ID   int
	Name string
	Lat  float64
	Lng  float64
}

// LineStop is one visit of a line: the stop and the travel time in minutes to
// the next stop on the line.
type LineStop struct {
	StopID     int
	TravelTime float64
}

// Line is an ordered stop sequence keyed by route ID.
type Line struct {
	ID    int
	Name  string
	Stops []LineStop
}

// AddStop appends a visit. A stop is kept once per line: visiting it again
// keeps its first position and replaces its travel time, and AddStop reports
// false.
func (l *Line) AddStop(stopID int, travelTime float64) bool {
	for i := range l.Stops {
		if l.Stops[i].StopID == stopID {
			l.Stops[i].TravelTime = travelTime
			return false
		}
	}
	l.Stops = append(l.Stops, LineStop{StopID: stopID, TravelTime: travelTime})
	return true
}

// DemandPoint is a population center or facility awaiting attachment.
// SourceID is the identifier in the input table, not a node ID.
type DemandPoint struct {
	SourceID string
	Name     string
	Type     NodeType
	Value    float64
	Lat      float64
	Lng      float64
}
