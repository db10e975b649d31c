// Package network holds the node/arc model of a layered transit network and
// the builders that populate it.
//
// # Layers
//
// A network has four node types. [NodeStop] is a physical bus stop.
// [NodeBoarding] is "being on line L at stop S": every line serving a stop gets
// its own boarding node there, so waiting, boarding and alighting can be
// modelled per line. [NodePopulationCenter] and [NodeFacility] are demand
// points attached to the stop layer by walking arcs.
//
// Arcs are directed. A line visiting stops s1..sk produces k boarding nodes,
// k-1 [ArcLine] arcs between consecutive boarding nodes (carrying the travel
// time recorded at the departing stop), and one [ArcBoard] / [ArcAlight] pair
// per stop with zero time. Walking links are materialised as two arcs, one
// per direction, with equal time.
//
// # Identifiers
//
// Node IDs and arc IDs live in two independent spaces handed out by an
// [Allocator]. Allocators never reuse an ID; a stage that appends to existing
// tables must first resume its allocators from the highest ID already present
// ([ResumeNodes], [ResumeArcs]). [Merge] rejects any result that would still
// contain a collision.
//
// # Building Lines
//
//	nodes, arcs := network.NewAllocator(0), network.NewAllocator(0)
//	b := network.NewBuilder(nodes, arcs)
//	if err := b.AddStops(stops); err != nil {
//	    return err
//	}
//	for _, l := range lines {
//	    if err := b.AddLine(l); err != nil {
//	        return err // wraps ErrUnknownStop with the line and stop IDs
//	    }
//	}
//	net := b.Network()
//
// # Names
//
// The node table does not store coordinates or source IDs, so stop and
// boarding node names encode the source stop ID ([StopNodeName],
// [BoardingNodeName]). Later stages recover the stop-to-node mapping from a
// node table with [StopIndex].
//
// # Concurrency
//
// Networks, builders and allocators are not safe for concurrent use. Each build
// run owns its allocators.
package network
