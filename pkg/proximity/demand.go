package proximity

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/transitnet/pkg/geo"
)

var (
	// ErrNoStops is returned by [Attach] when there is nothing to attach to.
	ErrNoStops = errors.New("no stops to attach to")

	// ErrCutoffExceeded is returned by [Attach] when doubling the cutoff
	// passes the ceiling without finding a stop.
	ErrCutoffExceeded = errors.New("cutoff ceiling exceeded")
)

// AttachOptions configures demand attachment.
type AttachOptions struct {
	// InitialCutoffKM is the first cutoff tried.
	InitialCutoffKM float64
	// MaxCutoffKM is the largest cutoff tried; it must be at least InitialCutoffKM.
	MaxCutoffKM float64
	// WalkFactor converts km to minutes.
	WalkFactor float64
	// Workers bounds the goroutines used by AttachAll; 0 means GOMAXPROCS.
	Workers int
}

func (o AttachOptions) validate() error {
	if !(o.InitialCutoffKM > 0) {
		return ErrInvalidCutoff
	}
	if o.MaxCutoffKM < o.InitialCutoffKM {
		return fmt.Errorf("max cutoff %v below initial cutoff %v: %w", o.MaxCutoffKM, o.InitialCutoffKM, ErrInvalidCutoff)
	}
	return nil
}

// Attachment is the outcome of attaching one demand point.
type Attachment struct {
	Demand   int     `json:"demand"`
	Links    []Link  `json:"links"`
	CutoffKM float64 `json:"cutoff_km"`
	Rounds   int     `json:"rounds"`
}

// Attach links demand to the visible stops within the smallest cutoff of the
// sequence initial, 2*initial, 4*initial, ... that yields at least one link.
// Links are ordered by stop index and carry A = demand.ID, B = stop ID.
func Attach(ctx context.Context, demand geo.Point, stops []geo.Point, opts AttachOptions) (Attachment, error) {
	if err := opts.validate(); err != nil {
		return Attachment{}, err
	}
	locs, err := locations(stops)
	if err != nil {
		return Attachment{}, err
	}
	return attach(ctx, demand, stops, locs, opts)
}

func attach(ctx context.Context, demand geo.Point, stops []geo.Point, locs []orb.Point, opts AttachOptions) (Attachment, error) {
	if len(stops) == 0 {
		return Attachment{}, ErrNoStops
	}
	if !demand.Valid() {
		return Attachment{}, fmt.Errorf("demand %d (%v, %v): %w", demand.ID, demand.Lat, demand.Lng, ErrInvalidPoint)
	}
	origin := demand.Loc()

	dist := make([]float64, len(stops))
	for k, p := range locs {
		dist[k] = geo.TaxicabDistance(origin, p)
	}
	// visibility does not depend on the cutoff, so it is computed at most once per stop
	visible := make([]int8, len(stops)) // 0 unknown, 1 visible, -1 blocked

	rounds := 0
	for cutoff := opts.InitialCutoffKM; cutoff <= opts.MaxCutoffKM; cutoff *= 2 {
		if err := ctx.Err(); err != nil {
			return Attachment{}, err
		}
		rounds++
		var links []Link
		for k := range stops {
			if dist[k] > cutoff {
				continue
			}
			if visible[k] == 0 {
				visible[k] = 1
				if blocked(locs, origin, locs[k], k, -1) {
					visible[k] = -1
				}
			}
			if visible[k] < 0 {
				continue
			}
			links = append(links, Link{
				A:        demand.ID,
				B:        stops[k].ID,
				Distance: dist[k],
				Time:     dist[k] * opts.WalkFactor,
			})
		}
		if len(links) > 0 {
			return Attachment{Demand: demand.ID, Links: links, CutoffKM: cutoff, Rounds: rounds}, nil
		}
	}
	return Attachment{}, fmt.Errorf("demand %d after %d rounds up to %v km: %w", demand.ID, rounds, opts.MaxCutoffKM, ErrCutoffExceeded)
}

// AttachAll attaches every demand point, in parallel, and returns the
// attachments in input order. The first failure cancels the rest.
func AttachAll(ctx context.Context, demands []geo.Point, stops []geo.Point, opts AttachOptions) ([]Attachment, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(stops) == 0 && len(demands) > 0 {
		return nil, ErrNoStops
	}
	locs, err := locations(stops)
	if err != nil {
		return nil, err
	}

	out := make([]Attachment, len(demands))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(Options{Workers: opts.Workers}.workers())
	for i, d := range demands {
		g.Go(func() error {
			a, err := attach(ctx, d, stops, locs, opts)
			if err != nil {
				return err
			}
			out[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
