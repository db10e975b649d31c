package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/transitnet/pkg/cache"
	"github.com/matzehuels/transitnet/pkg/network"
	"github.com/matzehuels/transitnet/pkg/observability"
	"github.com/matzehuels/transitnet/pkg/tables"
)

// Runner executes build stages with proximity result caching.
//
// The Runner holds no build state between calls; it can be reused for
// several builds.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching and a nil logger
// uses the default logger.
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// Execute runs the full build: lines, walk, demand when a demand table is
// configured, then writes both tables.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateFor(StageLines); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	result, opts := r.start(opts)

	stops, err := tables.ImportStops(opts.StopsPath, opts.Columns.Stops)
	if err != nil {
		return nil, err
	}
	net, err := r.linesStage(ctx, result, stops, opts)
	if err != nil {
		return nil, err
	}
	if net, err = r.walkStage(ctx, result, net, stops, opts); err != nil {
		return nil, err
	}
	if opts.HasDemand() {
		if net, err = r.demandStage(ctx, result, net, stops, opts); err != nil {
			return nil, err
		}
	}
	if err := r.writeStage(ctx, result, net, opts); err != nil {
		return nil, err
	}
	return result, nil
}

// RunStage runs one stage. The lines stage builds new tables; the walk and
// demand stages read the tables at NodesPath and ArcsPath, replace the rows
// they own and write the tables back.
func (r *Runner) RunStage(ctx context.Context, stage Stage, opts Options) (*Result, error) {
	if err := opts.ValidateFor(stage); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	result, opts := r.start(opts)

	stops, err := tables.ImportStops(opts.StopsPath, opts.Columns.Stops)
	if err != nil {
		return nil, err
	}

	var net *network.Network
	switch stage {
	case StageLines:
		net, err = r.linesStage(ctx, result, stops, opts)
	default:
		net, err = tables.ImportNetwork(opts.NodesPath, opts.ArcsPath)
		if err != nil {
			return nil, err
		}
		opts.Logger.Debug("loaded network", "nodes", net.NodeCount(), "arcs", net.ArcCount())
		if stage == StageWalk {
			net, err = r.walkStage(ctx, result, net, stops, opts)
		} else {
			net, err = r.demandStage(ctx, result, net, stops, opts)
		}
	}
	if err != nil {
		return nil, err
	}
	if err := r.writeStage(ctx, result, net, opts); err != nil {
		return nil, err
	}
	return result, nil
}

// start assigns a run ID and scopes the logger to it.
func (r *Runner) start(opts Options) (*Result, Options) {
	id := uuid.NewString()
	r.prepare(&opts)
	opts.Logger = opts.Logger.With("run", id[:8])
	return &Result{RunID: id}, opts
}

// prepare applies defaults and the runner's logger to opts.
func (r *Runner) prepare(opts *Options) {
	opts.SetDefaults()
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// track wraps a stage with hooks, timing and a completion log line.
func (r *Runner) track(ctx context.Context, result *Result, opts Options, stage Stage, fn func(*StageResult) error) error {
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, string(stage))
	start := time.Now()

	sr := StageResult{Stage: stage}
	err := fn(&sr)
	sr.Duration = time.Since(start)
	hooks.OnStageComplete(ctx, string(stage), sr.Stats, sr.Duration, err)
	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}

	result.Stages = append(result.Stages, sr)
	opts.Logger.Info(fmt.Sprintf("%s stage done", stage), sr.keyvals()...)
	return nil
}

func (r *Runner) linesStage(ctx context.Context, result *Result, stops []network.Stop, opts Options) (*network.Network, error) {
	var net *network.Network
	err := r.track(ctx, result, opts, StageLines, func(sr *StageResult) error {
		lt, err := tables.ImportLines(opts.LinesPath, opts.Columns.Lines)
		if err != nil {
			return err
		}
		for _, rv := range lt.Revisits {
			opts.Logger.Warn("stop visited twice on line, keeping first position", "line", rv.Line, "stop", rv.Stop, "row", rv.Row)
		}
		result.Revisits = lt.Revisits

		lr, err := r.BuildLines(ctx, stops, lt.Lines, opts)
		if err != nil {
			return err
		}
		result.SkippedLines = lr.SkippedLines
		net = lr.Network
		sr.Stats = observability.StageStats{Nodes: net.NodeCount(), Arcs: net.ArcCount()}
		return nil
	})
	return net, err
}

func (r *Runner) walkStage(ctx context.Context, result *Result, net *network.Network, stops []network.Stop, opts Options) (*network.Network, error) {
	var out *network.Network
	err := r.track(ctx, result, opts, StageWalk, func(sr *StageResult) error {
		wr, err := r.Walk(ctx, net, stops, opts)
		if err != nil {
			return err
		}
		out = wr.Network
		sr.CacheHit = wr.CacheHit
		sr.Stats = observability.StageStats{Arcs: 2 * wr.Links, Links: wr.Links}
		return nil
	})
	return out, err
}

func (r *Runner) demandStage(ctx context.Context, result *Result, net *network.Network, stops []network.Stop, opts Options) (*network.Network, error) {
	var out *network.Network
	err := r.track(ctx, result, opts, StageDemand, func(sr *StageResult) error {
		demands, err := loadDemand(opts)
		if err != nil {
			return err
		}
		dr, err := r.Demand(ctx, net, stops, demands, opts)
		if err != nil {
			return err
		}
		out = dr.Network
		sr.CacheHit = dr.CacheHit
		sr.CutoffKM = dr.MaxCutoffKM
		sr.Stats = observability.StageStats{Nodes: len(demands), Arcs: 2 * dr.Links, Links: dr.Links}
		return nil
	})
	return out, err
}

func (r *Runner) writeStage(ctx context.Context, result *Result, net *network.Network, opts Options) error {
	return r.track(ctx, result, opts, StageWrite, func(sr *StageResult) error {
		if err := tables.ExportNetwork(net, opts.NodesPath, opts.ArcsPath); err != nil {
			return err
		}
		result.Network = net
		sr.Stats = observability.StageStats{Nodes: net.NodeCount(), Arcs: net.ArcCount()}
		return nil
	})
}
