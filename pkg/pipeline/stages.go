package pipeline

import (
	"context"
	stderrors "errors"

	"github.com/matzehuels/transitnet/pkg/cache"
	"github.com/matzehuels/transitnet/pkg/errors"
	"github.com/matzehuels/transitnet/pkg/geo"
	"github.com/matzehuels/transitnet/pkg/network"
	"github.com/matzehuels/transitnet/pkg/observability"
	"github.com/matzehuels/transitnet/pkg/proximity"
	"github.com/matzehuels/transitnet/pkg/tables"
)

// LinesResult is the outcome of the lines stage.
type LinesResult struct {
	Network      *network.Network
	SkippedLines []int
}

// BuildLines creates the stop and boarding layer from scratch, drawing IDs
// from NodeIDStart and ArcIDStart. Lines are added in order; a line with an
// unknown stop fails the stage unless SkipInvalidLines is set.
func (r *Runner) BuildLines(ctx context.Context, stops []network.Stop, lines []network.Line, opts Options) (*LinesResult, error) {
	r.prepare(&opts)
	b := network.NewBuilder(network.NewAllocator(opts.NodeIDStart), network.NewAllocator(opts.ArcIDStart))
	if err := b.AddStops(stops); err != nil {
		return nil, classify(err)
	}

	res := &LinesResult{}
	for _, l := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := b.AddLine(l)
		if err == nil {
			continue
		}
		if opts.SkipInvalidLines && stderrors.Is(err, network.ErrUnknownStop) {
			opts.Logger.Error("skipping line", "line", l.ID, "name", l.Name, "err", err)
			res.SkippedLines = append(res.SkippedLines, l.ID)
			continue
		}
		return nil, classify(err)
	}
	res.Network = b.Network()
	return res, nil
}

// WalkResult is the outcome of the walk stage.
type WalkResult struct {
	Network  *network.Network
	Links    int
	CacheHit bool
}

// Walk replaces the stop-to-stop walking arcs of net. Stop coordinates come
// from stops, matched to stop nodes through their names.
func (r *Runner) Walk(ctx context.Context, net *network.Network, stops []network.Stop, opts Options) (*WalkResult, error) {
	r.prepare(&opts)
	base := net.Without(nil, []network.ArcType{network.ArcWalk})
	points, err := stopPoints(base, stops)
	if err != nil {
		return nil, err
	}

	var links []proximity.Link
	key := cache.LinksKey(points, opts.StopCutoffKM, opts.WalkFactor())
	hit := false
	if !opts.Refresh {
		if hit, err = cache.GetJSON(ctx, r.Cache, "links", key, &links); err != nil {
			opts.Logger.Warn("cache read failed", "err", err)
		}
	}
	if !hit {
		links, err = proximity.Links(ctx, points, proximity.Options{
			CutoffKM:   opts.StopCutoffKM,
			WalkFactor: opts.WalkFactor(),
			Workers:    opts.Workers,
		})
		if err != nil {
			return nil, classify(err)
		}
		if err := cache.SetJSON(ctx, r.Cache, "links", key, links, opts.CacheTTL); err != nil {
			opts.Logger.Warn("cache write failed", "err", err)
		}
	}

	arcs := network.ResumeArcs(base.Arcs, opts.ArcIDStart)
	opts.Logger.Debug("walking arcs", "links", len(links), "first_arc", arcs.Peek())
	added := &network.Network{}
	for _, l := range links {
		added.Arcs = append(added.Arcs, walkArcs(arcs, network.ArcWalk, l.A, l.B, l.Time)...)
	}
	merged, err := network.Merge(base, added)
	if err != nil {
		return nil, classify(err)
	}
	return &WalkResult{Network: merged, Links: len(links), CacheHit: hit}, nil
}

// DemandResult is the outcome of the demand stage.
type DemandResult struct {
	Network     *network.Network
	Links       int
	MaxCutoffKM float64
	CacheHit    bool
}

// Demand replaces the demand layer of net: every population center and
// facility node and every arc touching one. New nodes are allocated in
// the order of demands; arcs follow the same order, each link as a
// demand-to-stop arc followed by its stop-to-demand twin.
func (r *Runner) Demand(ctx context.Context, net *network.Network, stops []network.Stop, demands []network.DemandPoint, opts Options) (*DemandResult, error) {
	r.prepare(&opts)
	base := net.Without(
		[]network.NodeType{network.NodePopulationCenter, network.NodeFacility},
		[]network.ArcType{network.ArcWalkDemand},
	)
	stopPts, err := stopPoints(base, stops)
	if err != nil {
		return nil, err
	}

	nodeIDs := network.ResumeNodes(base.Nodes, opts.NodeIDStart)
	arcIDs := network.ResumeArcs(base.Arcs, opts.ArcIDStart)
	opts.Logger.Debug("demand layer", "points", len(demands), "first_node", nodeIDs.Peek(), "first_arc", arcIDs.Peek())

	added := &network.Network{}
	demandPts := make([]geo.Point, len(demands))
	kinds := make(map[int]network.NodeType, len(demands))
	for i, d := range demands {
		id := nodeIDs.Next()
		added.Nodes = append(added.Nodes, network.Node{
			ID:    id,
			Name:  d.Name,
			Type:  d.Type,
			Line:  network.NoLine,
			Value: d.Value,
		})
		demandPts[i] = geo.Point{ID: id, Lat: d.Lat, Lng: d.Lng}
		kinds[id] = d.Type
	}

	attachOpts := proximity.AttachOptions{
		InitialCutoffKM: opts.DemandCutoffKM,
		MaxCutoffKM:     opts.MaxDemandCutoffKM,
		WalkFactor:      opts.WalkFactor(),
		Workers:         opts.Workers,
	}
	var attachments []proximity.Attachment
	key := cache.AttachKey(demandPts, stopPts, attachOpts.InitialCutoffKM, attachOpts.MaxCutoffKM, attachOpts.WalkFactor)
	hit := false
	if !opts.Refresh {
		if hit, err = cache.GetJSON(ctx, r.Cache, "attach", key, &attachments); err != nil {
			opts.Logger.Warn("cache read failed", "err", err)
		}
	}
	if !hit {
		attachments, err = proximity.AttachAll(ctx, demandPts, stopPts, attachOpts)
		if err != nil {
			return nil, classify(err)
		}
		if err := cache.SetJSON(ctx, r.Cache, "attach", key, attachments, opts.CacheTTL); err != nil {
			opts.Logger.Warn("cache write failed", "err", err)
		}
	}

	res := &DemandResult{CacheHit: hit}
	hooks := observability.Pipeline()
	for _, a := range attachments {
		hooks.OnAttach(ctx, kinds[a.Demand].String(), a.CutoffKM, a.Rounds)
		if a.CutoffKM > res.MaxCutoffKM {
			res.MaxCutoffKM = a.CutoffKM
		}
		if a.Rounds > 1 {
			opts.Logger.Debug("widened cutoff", "node", a.Demand, "cutoff_km", a.CutoffKM, "rounds", a.Rounds)
		}
		for _, l := range a.Links {
			added.Arcs = append(added.Arcs, walkArcs(arcIDs, network.ArcWalkDemand, l.A, l.B, l.Time)...)
			res.Links++
		}
	}

	res.Network, err = network.Merge(base, added)
	if err != nil {
		return nil, classify(err)
	}
	return res, nil
}

// walkArcs returns the arc pair of one walking link, a to b first.
func walkArcs(ids *network.Allocator, t network.ArcType, a, b int, minutes float64) []network.Arc {
	return []network.Arc{
		{ID: ids.Next(), Type: t, Line: network.NoLine, Tail: a, Head: b, Time: minutes},
		{ID: ids.Next(), Type: t, Line: network.NoLine, Tail: b, Head: a, Time: minutes},
	}
}

// stopPoints returns the located stop nodes of net in node order, with
// node IDs as point IDs.
func stopPoints(net *network.Network, stops []network.Stop) ([]geo.Point, error) {
	coords := make(map[int]network.Stop, len(stops))
	for _, s := range stops {
		coords[s.ID] = s
	}
	var points []geo.Point
	for _, n := range net.Nodes {
		if n.Type != network.NodeStop {
			continue
		}
		stopID, ok := network.ParseStopID(n.Name)
		if !ok {
			return nil, errors.Wrap(errors.ErrCodeReferentialIntegrity, network.ErrUnnamedStop, "node %d %q", n.ID, n.Name)
		}
		s, ok := coords[stopID]
		if !ok {
			return nil, errors.New(errors.ErrCodeReferentialIntegrity, "stop node %d: stop %d is not in the stop table", n.ID, stopID)
		}
		points = append(points, geo.Point{ID: n.ID, Lat: s.Lat, Lng: s.Lng})
	}
	return points, nil
}

// classify attaches an error code to domain errors.
func classify(err error) error {
	if err == nil || errors.GetCode(err) != "" {
		return err
	}
	switch {
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return err
	case stderrors.Is(err, network.ErrUnknownStop):
		return errors.Wrap(errors.ErrCodeReferentialIntegrity, err, "line references a missing stop")
	case stderrors.Is(err, network.ErrDuplicateStop),
		stderrors.Is(err, network.ErrDuplicateNodeID),
		stderrors.Is(err, network.ErrDuplicateArcID):
		return errors.Wrap(errors.ErrCodeDuplicateID, err, "ID collision")
	case stderrors.Is(err, network.ErrDanglingArc):
		return errors.Wrap(errors.ErrCodeReferentialIntegrity, err, "arc endpoint missing")
	case stderrors.Is(err, proximity.ErrNoStops), stderrors.Is(err, proximity.ErrCutoffExceeded):
		return errors.Wrap(errors.ErrCodeSearchExhausted, err, "demand attachment failed")
	case stderrors.Is(err, proximity.ErrInvalidPoint),
		stderrors.Is(err, network.ErrNegativeTime),
		stderrors.Is(err, network.ErrEmptyLine),
		stderrors.Is(err, network.ErrDuplicateLine):
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid input")
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "build failed")
}

// loadDemand reads the population table, then the facility table.
func loadDemand(opts Options) ([]network.DemandPoint, error) {
	var demands []network.DemandPoint
	if opts.PopulationPath != "" {
		pop, err := tables.ImportPopulation(opts.PopulationPath, opts.Columns.Population)
		if err != nil {
			return nil, err
		}
		demands = append(demands, pop...)
	}
	if opts.FacilitiesPath != "" {
		fac, err := tables.ImportFacilities(opts.FacilitiesPath, opts.Columns.Facilities)
		if err != nil {
			return nil, err
		}
		demands = append(demands, fac...)
	}
	return demands, nil
}
