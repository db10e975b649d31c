// Package proximity generates walking links between nearby points.
//
// # Visibility Pruning
//
// [Links] considers every unordered pair of points. A pair is a candidate
// when its taxicab distance is within the cutoff. A candidate is kept only if
// no other point lies inside the axis-aligned rectangle spanned by the pair
// (bounds inclusive): an interposed point means a shorter route through it
// probably exists, and dense clusters would otherwise produce a near-complete
// graph. Points sitting exactly on one of the pair's endpoints never block it.
//
// The scan is O(n²) pairs with an O(n) rectangle test per candidate. It is
// meant for the stops of one municipality, not for continental inputs.
//
// # Demand Attachment
//
// [Attach] links a demand point to stops only: other demand points are
// neither candidates nor interposers. If nothing is found within the initial
// cutoff the cutoff doubles and the search repeats, up to a ceiling; past the
// ceiling [ErrCutoffExceeded] is returned. For a non-empty stop set some stop
// is always visible, so with a generous ceiling every demand point receives at
// least one link.
//
// # Determinism
//
// Pairs are enumerated with i ascending and, for each i, j ascending below i.
// The outer loop runs on several goroutines (see [Options.Workers]) but
// results are collected per i and concatenated in order, so output is
// identical for any worker count.
package proximity
