package network

// Allocator hands out monotonically increasing IDs. It is not safe for
// concurrent use.
type Allocator struct {
	next int
}

// NewAllocator returns an allocator whose first ID is start.
func NewAllocator(start int) *Allocator {
	return &Allocator{next: start}
}

// Next returns the current counter value and advances it.
func (a *Allocator) Next() int {
	id := a.next
	a.next++
	return id
}

// Peek returns the ID the next call to Next will return.
func (a *Allocator) Peek() int { return a.next }

// ResumeFrom returns max(ids)+1, or start when ids is empty or every ID is
// below start.
func ResumeFrom(ids []int, start int) int {
	next := start
	for _, id := range ids {
		if id+1 > next {
			next = id + 1
		}
	}
	return next
}

// ResumeNodes returns an allocator that continues after the highest node ID in nodes.
func ResumeNodes(nodes []Node, start int) *Allocator {
	ids := make([]int, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return NewAllocator(ResumeFrom(ids, start))
}

// ResumeArcs returns an allocator that continues after the highest arc ID in arcs.
func ResumeArcs(arcs []Arc, start int) *Allocator {
	ids := make([]int, len(arcs))
	for i, a := range arcs {
		ids[i] = a.ID
	}
	return NewAllocator(ResumeFrom(ids, start))
}
