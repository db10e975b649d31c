package proximity

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/transitnet/pkg/geo"
)

var (
	// ErrInvalidCutoff is returned when a cutoff is not positive.
	ErrInvalidCutoff = errors.New("cutoff must be positive")

	// ErrInvalidPoint is returned for a point with out-of-range coordinates.
	ErrInvalidPoint = errors.New("invalid coordinates")
)

// Link is an undirected walking link between two point IDs. A is the point
// enumerated first (the later index for [Links], the demand point for
// [Attach]).
type Link struct {
	A        int     `json:"a"`
	B        int     `json:"b"`
	Distance float64 `json:"distance_km"`
	Time     float64 `json:"time_min"`
}

// Options configures link generation.
type Options struct {
	// CutoffKM is the maximum taxicab distance of a link.
	CutoffKM float64
	// WalkFactor converts km to minutes (see geo.WalkFactor).
	WalkFactor float64
	// Workers bounds the goroutines used for the pair scan; 0 means GOMAXPROCS.
	Workers int
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Links returns the visibility-pruned walking links among points.
func Links(ctx context.Context, points []geo.Point, opts Options) ([]Link, error) {
	if !(opts.CutoffKM > 0) {
		return nil, ErrInvalidCutoff
	}
	locs, err := locations(points)
	if err != nil {
		return nil, err
	}

	rows := make([][]Link, len(points))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i := range points {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for j := 0; j < i; j++ {
				d := geo.TaxicabDistance(locs[i], locs[j])
				if d > opts.CutoffKM {
					continue
				}
				if blocked(locs, locs[i], locs[j], i, j) {
					continue
				}
				rows[i] = append(rows[i], Link{
					A:        points[i].ID,
					B:        points[j].ID,
					Distance: d,
					Time:     d * opts.WalkFactor,
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var links []Link
	for _, row := range rows {
		links = append(links, row...)
	}
	return links, nil
}

// blocked reports whether any point in locs, other than indices skipA and
// skipB and other than points coinciding with a or b, lies inside the
// rectangle spanned by a and b. Pass -1 to skip nothing.
func blocked(locs []orb.Point, a, b orb.Point, skipA, skipB int) bool {
	rect := geo.Rect(a, b)
	for k, p := range locs {
		if k == skipA || k == skipB || p == a || p == b {
			continue
		}
		if rect.Contains(p) {
			return true
		}
	}
	return false
}

func locations(points []geo.Point) ([]orb.Point, error) {
	locs := make([]orb.Point, len(points))
	for i, p := range points {
		if !p.Valid() {
			return nil, fmt.Errorf("point %d (%v, %v): %w", p.ID, p.Lat, p.Lng, ErrInvalidPoint)
		}
		locs[i] = p.Loc()
	}
	return locs, nil
}
