// Package pipeline runs the stages of a transit network build.
//
// A build turns raw stop, route and demand tables into a node table and an
// arc table:
//
//  1. Lines: stop nodes, one boarding node per (stop, line), and the
//     line, board and alight arcs between them
//  2. Walk: walking arcs between nearby, mutually visible stops
//  3. Demand: population center and facility nodes, each walking-linked
//     to the stops it can see
//  4. Write: both tables, replaced atomically
//
// Stages can run in one go ([Runner.Execute]) or one at a time against
// tables written earlier ([Runner.RunStage]). A stage first removes the
// rows it owns from the tables it is given and resumes the ID allocators
// from what remains, so running it again on unchanged input reproduces
// the same tables.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, logger)
//	opts := pipeline.OptionsFromConfig(cfg)
//	opts.StopsPath = "stops.csv"
//	opts.LinesPath = "lines.csv"
//	opts.NodesPath, opts.ArcsPath = "nodes.tsv", "arcs.tsv"
//	result, err := runner.Execute(ctx, opts)
package pipeline

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/transitnet/pkg/config"
	"github.com/matzehuels/transitnet/pkg/geo"
	"github.com/matzehuels/transitnet/pkg/network"
	"github.com/matzehuels/transitnet/pkg/observability"
	"github.com/matzehuels/transitnet/pkg/tables"
)

// Stage names a build stage.
type Stage string

const (
	StageLines  Stage = "lines"
	StageWalk   Stage = "walk"
	StageDemand Stage = "demand"
	StageWrite  Stage = "write"
)

// Default values, matching config.Default.
const (
	DefaultWalkingSpeed      = geo.DefaultWalkingSpeed
	DefaultStopCutoffKM      = 0.5
	DefaultDemandCutoffKM    = 0.5
	DefaultMaxDemandCutoffKM = 64.0
	DefaultCacheTTL          = config.DefaultTTL
)

// Options contains all configuration for a build.
type Options struct {
	// Input tables
	StopsPath      string
	LinesPath      string
	PopulationPath string
	FacilitiesPath string
	Columns        tables.Columns

	// Output tables, also the input of the walk and demand stages
	NodesPath string
	ArcsPath  string

	WalkingSpeedKMH   float64
	StopCutoffKM      float64
	DemandCutoffKM    float64
	MaxDemandCutoffKM float64
	NodeIDStart       int
	ArcIDStart        int
	Workers           int

	// SkipInvalidLines drops a line that references an unknown stop instead
	// of failing the build.
	SkipInvalidLines bool

	// Refresh recomputes proximity results even when cached.
	Refresh  bool
	CacheTTL time.Duration

	Logger *log.Logger

	validated bool
}

// OptionsFromConfig copies the tunables of cfg into Options. Paths are left
// for the caller.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Columns:           cfg.Columns,
		WalkingSpeedKMH:   cfg.WalkingSpeedKMH,
		StopCutoffKM:      cfg.StopCutoffKM,
		DemandCutoffKM:    cfg.DemandCutoffKM,
		MaxDemandCutoffKM: cfg.MaxDemandCutoffKM,
		NodeIDStart:       cfg.NodeIDStart,
		ArcIDStart:        cfg.ArcIDStart,
		Workers:           cfg.Workers,
		CacheTTL:          cfg.Cache.TTL,
	}
}

// SetDefaults fills zero values with the defaults. A nil Logger is left
// for the Runner to fill.
func (o *Options) SetDefaults() {
	if o.WalkingSpeedKMH == 0 {
		o.WalkingSpeedKMH = DefaultWalkingSpeed
	}
	if o.StopCutoffKM == 0 {
		o.StopCutoffKM = DefaultStopCutoffKM
	}
	if o.DemandCutoffKM == 0 {
		o.DemandCutoffKM = DefaultDemandCutoffKM
	}
	if o.MaxDemandCutoffKM == 0 {
		o.MaxDemandCutoffKM = DefaultMaxDemandCutoffKM
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = DefaultCacheTTL
	}
	if o.Columns == (tables.Columns{}) {
		o.Columns = tables.DefaultColumns()
	}
}

// Validate applies defaults and checks the fields every stage needs.
func (o *Options) Validate() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if o.StopsPath == "" {
		return fmt.Errorf("stops table is required")
	}
	if o.NodesPath == "" || o.ArcsPath == "" {
		return fmt.Errorf("node and arc table paths are required")
	}
	if o.WalkingSpeedKMH <= 0 || o.StopCutoffKM <= 0 || o.DemandCutoffKM <= 0 {
		return fmt.Errorf("walking speed and cutoffs must be positive")
	}
	if o.MaxDemandCutoffKM < o.DemandCutoffKM {
		return fmt.Errorf("max demand cutoff %v is below the demand cutoff %v", o.MaxDemandCutoffKM, o.DemandCutoffKM)
	}
	if o.NodeIDStart < 0 || o.ArcIDStart < 0 || o.Workers < 0 {
		return fmt.Errorf("ID starts and workers must not be negative")
	}
	o.validated = true
	return nil
}

// ValidateFor checks the inputs a single stage needs.
func (o *Options) ValidateFor(stage Stage) error {
	if err := o.Validate(); err != nil {
		return err
	}
	switch stage {
	case StageLines:
		if o.LinesPath == "" {
			return fmt.Errorf("lines table is required")
		}
	case StageDemand:
		if !o.HasDemand() {
			return fmt.Errorf("a population or facility table is required")
		}
	case StageWalk:
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
	return nil
}

// HasDemand reports whether any demand table is configured.
func (o *Options) HasDemand() bool {
	return o.PopulationPath != "" || o.FacilitiesPath != ""
}

// WalkFactor returns minutes per km at the configured walking speed.
func (o *Options) WalkFactor() float64 {
	return geo.WalkFactor(o.WalkingSpeedKMH)
}

// Result contains the outputs of a build or stage run.
type Result struct {
	// RunID identifies the run in log lines.
	RunID string

	// Network is the network as written.
	Network *network.Network

	// Stages lists the stages that ran, in order.
	Stages []StageResult

	// SkippedLines holds the IDs of lines dropped by SkipInvalidLines.
	SkippedLines []int

	// Revisits lists stops that appear twice on one line.
	Revisits []tables.Revisit
}

// StageResult describes one stage run.
type StageResult struct {
	Stage    Stage
	Stats    observability.StageStats
	Duration time.Duration
	CacheHit bool
	// CutoffKM is the largest attachment cutoff used (demand stage only).
	CutoffKM float64
}

// keyvals returns the log fields a stage fills in.
func (sr StageResult) keyvals() []any {
	var kv []any
	switch sr.Stage {
	case StageWalk:
		kv = append(kv, "arcs", sr.Stats.Arcs, "links", sr.Stats.Links, "cached", sr.CacheHit)
	case StageDemand:
		kv = append(kv, "nodes", sr.Stats.Nodes, "arcs", sr.Stats.Arcs, "links", sr.Stats.Links,
			"cutoff_km", sr.CutoffKM, "cached", sr.CacheHit)
	default:
		kv = append(kv, "nodes", sr.Stats.Nodes, "arcs", sr.Stats.Arcs)
	}
	return append(kv, "duration", sr.Duration.Round(time.Millisecond))
}

// Stage returns the result of stage s and whether it ran.
func (r *Result) Stage(s Stage) (StageResult, bool) {
	for _, sr := range r.Stages {
		if sr.Stage == s {
			return sr, true
		}
	}
	return StageResult{}, false
}
