package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/transitnet/pkg/buildinfo"
	"github.com/matzehuels/transitnet/pkg/cache"
	"github.com/matzehuels/transitnet/pkg/config"
	"github.com/matzehuels/transitnet/pkg/errors"
	"github.com/matzehuels/transitnet/pkg/observability"
	"github.com/matzehuels/transitnet/pkg/pipeline"
	"github.com/matzehuels/transitnet/pkg/tables"
)

const (
	defaultNodesPath = "nodes.tsv"
	defaultArcsPath  = "arcs.tsv"
)

// flagGroup selects the flags a command registers.
type flagGroup uint8

const (
	lineFlags flagGroup = 1 << iota
	walkFlags
	demandFlags

	allFlags = lineFlags | walkFlags | demandFlags
)

// buildFlags holds the flags shared by build and the stage commands. Numeric
// flags override the config file only when set.
type buildFlags struct {
	stops      string
	lines      string
	population string
	facilities string
	nodes      string
	arcs       string
	report     string

	walkingSpeed    float64
	stopCutoff      float64
	demandCutoff    float64
	maxDemandCutoff float64
	nodeStart       int
	arcStart        int
	workers         int

	skipInvalidLines bool
	refresh          bool
	noCache          bool
}

func (f *buildFlags) register(cmd *cobra.Command, groups flagGroup) {
	fl := cmd.Flags()
	fl.StringVar(&f.stops, "stops", "", "stops table (.csv, ';'-delimited)")
	fl.StringVar(&f.nodes, "nodes", defaultNodesPath, "node table path")
	fl.StringVar(&f.arcs, "arcs", defaultArcsPath, "arc table path")
	fl.StringVar(&f.report, "report", "", "write a JSON run report to this path")
	_ = cmd.MarkFlagRequired("stops")

	if groups&lineFlags != 0 {
		fl.StringVar(&f.lines, "lines", "", "line table (.csv)")
		fl.IntVar(&f.nodeStart, "node-start", 0, "first node ID")
		fl.IntVar(&f.arcStart, "arc-start", 0, "first arc ID")
		fl.BoolVar(&f.skipInvalidLines, "skip-invalid-lines", false, "drop lines that reference unknown stops instead of failing")
		_ = cmd.MarkFlagRequired("lines")
	}
	if groups&demandFlags != 0 {
		fl.StringVar(&f.population, "population", "", "population center table (.csv)")
		fl.StringVar(&f.facilities, "facilities", "", "facility table (.csv)")
		fl.Float64Var(&f.demandCutoff, "demand-cutoff", pipeline.DefaultDemandCutoffKM, "initial demand attachment cutoff in km")
		fl.Float64Var(&f.maxDemandCutoff, "max-demand-cutoff", pipeline.DefaultMaxDemandCutoffKM, "largest demand attachment cutoff in km")
	}
	if groups&walkFlags != 0 {
		fl.Float64Var(&f.stopCutoff, "stop-cutoff", pipeline.DefaultStopCutoffKM, "stop to stop walking cutoff in km")
	}
	if groups&(walkFlags|demandFlags) != 0 {
		fl.Float64Var(&f.walkingSpeed, "walking-speed", pipeline.DefaultWalkingSpeed, "walking speed in km/h")
		fl.IntVar(&f.workers, "workers", 0, "parallel workers for the pair scan (0 = GOMAXPROCS)")
		fl.BoolVar(&f.refresh, "refresh", false, "recompute cached proximity results")
		fl.BoolVar(&f.noCache, "no-cache", false, "disable the proximity result cache")
	}
}

// options merges cfg with the flags set on cmd. Speeds and cutoffs given on
// the command line must be positive.
func (f *buildFlags) options(cmd *cobra.Command, cfg config.Config) (pipeline.Options, error) {
	opts := pipeline.OptionsFromConfig(cfg)
	opts.StopsPath = f.stops
	opts.LinesPath = f.lines
	opts.PopulationPath = f.population
	opts.FacilitiesPath = f.facilities
	opts.NodesPath = f.nodes
	opts.ArcsPath = f.arcs
	opts.SkipInvalidLines = f.skipInvalidLines
	opts.Refresh = f.refresh

	fl := cmd.Flags()
	for _, p := range []struct {
		flag string
		val  float64
		dst  *float64
	}{
		{"walking-speed", f.walkingSpeed, &opts.WalkingSpeedKMH},
		{"stop-cutoff", f.stopCutoff, &opts.StopCutoffKM},
		{"demand-cutoff", f.demandCutoff, &opts.DemandCutoffKM},
		{"max-demand-cutoff", f.maxDemandCutoff, &opts.MaxDemandCutoffKM},
	} {
		if !fl.Changed(p.flag) {
			continue
		}
		if p.val <= 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "--%s must be positive, got %g", p.flag, p.val)
		}
		*p.dst = p.val
	}
	if fl.Changed("node-start") {
		opts.NodeIDStart = f.nodeStart
	}
	if fl.Changed("arc-start") {
		opts.ArcIDStart = f.arcStart
	}
	if fl.Changed("workers") {
		opts.Workers = f.workers
	}
	return opts, nil
}

func newBuildCmd() *cobra.Command {
	var f buildFlags

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the full network: lines, walking links and demand links",
		Long: `Build the full network from the input tables and write the node and arc tables.

Stages run in order: lines, walk, then demand when a population or facility
table is given. Both tables are replaced atomically when the build succeeds.`,
		Example: `  transitnet build --stops stops.csv --lines lines.csv --population population.csv
  transitnet build --stops stops.csv --lines lines.csv --stop-cutoff 0.3 --nodes out/nodes.tsv --arcs out/arcs.tsv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, &f, "")
		},
	}
	f.register(cmd, allFlags)
	return cmd
}

func newStageCmd(stage pipeline.Stage) *cobra.Command {
	var f buildFlags

	cmd := &cobra.Command{
		Use:  string(stage),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, &f, stage)
		},
	}

	switch stage {
	case pipeline.StageLines:
		cmd.Short = "Build stop and boarding nodes with line, board and alight arcs"
		cmd.Long = "Build the line layer from the stop and line tables and replace the node and arc tables with it."
		f.register(cmd, lineFlags)
	case pipeline.StageWalk:
		cmd.Short = "Add walking arcs between nearby stops"
		cmd.Long = "Replace the walking arcs between stops in existing node and arc tables."
		f.register(cmd, walkFlags)
	case pipeline.StageDemand:
		cmd.Short = "Add population centers and facilities linked to the stop network"
		cmd.Long = "Replace the demand nodes and their walking arcs in existing node and arc tables."
		f.register(cmd, demandFlags)
	}
	return cmd
}

// runBuild runs stage, or the full build when stage is empty.
func runBuild(cmd *cobra.Command, f *buildFlags, stage pipeline.Stage) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	cfg := configFromContext(ctx)

	opts, err := f.options(cmd, cfg)
	if err != nil {
		return err
	}
	opts.Logger = logger

	c, err := openCache(ctx, cfg, f.noCache || stage == pipeline.StageLines, logger)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(c, logger)
	defer runner.Close()

	rec := observability.NewRecorder()
	rec.Install()
	defer observability.Reset()

	prog := newProgress(logger)
	var result *pipeline.Result
	if stage == "" {
		result, err = runner.Execute(ctx, opts)
	} else {
		result, err = runner.RunStage(ctx, stage, opts)
	}
	if err != nil {
		return err
	}
	prog.done("Network written", "nodes", result.Network.NodeCount(), "arcs", result.Network.ArcCount())

	summary := rec.Summary()
	logger.Debug("proximity cache", "hits", summary.CacheHits, "misses", summary.CacheMisses, "bytes_written", summary.CacheBytes)
	printResult(result, opts, summary)
	if f.report != "" {
		if err := tables.WriteFileAtomic(f.report, func(w io.Writer) error {
			return writeReport(w, result)
		}); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		printFile(f.report)
	}
	return nil
}

// openCache returns the proximity cache selected by cfg: none when disabled,
// Redis when an address is configured, otherwise a file cache. A file cache
// that cannot be created degrades to no cache.
func openCache(ctx context.Context, cfg config.Config, disabled bool, logger *log.Logger) (cache.Cache, error) {
	if disabled || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cache.DefaultRedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("connect to redis cache: %w", err)
		}
		return rc, nil
	}
	dir, err := cacheLocation(cfg)
	if err != nil {
		logger.Warn("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		logger.Warn("cache disabled", "dir", dir, "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

func printResult(result *pipeline.Result, opts pipeline.Options, summary observability.Summary) {
	printSuccess("Network written: %d nodes, %d arcs", result.Network.NodeCount(), result.Network.ArcCount())
	for _, sr := range result.Stages {
		if sr.Stage == pipeline.StageWrite {
			continue
		}
		printStageStats(sr)
	}
	if summary.Widened > 0 {
		printDetail("%d demand points needed a cutoff above %g km (up to %g km, %d rounds)",
			summary.Widened, opts.DemandCutoffKM, summary.MaxCutoffKM, summary.MaxRounds)
	}
	printFile(opts.NodesPath)
	printFile(opts.ArcsPath)

	if n := len(result.SkippedLines); n > 0 {
		printWarning("Skipped %d invalid lines: %v", n, result.SkippedLines)
	}
	if n := len(result.Revisits); n > 0 {
		printWarning("%d stops appear twice on a line", n)
		for _, rv := range result.Revisits {
			printDetail("line %d, stop %d (row %d)", rv.Line, rv.Stop, rv.Row)
		}
	}
}

type report struct {
	RunID        string        `json:"run_id"`
	Version      string        `json:"version"`
	Nodes        int           `json:"nodes"`
	Arcs         int           `json:"arcs"`
	Stages       []stageReport `json:"stages"`
	SkippedLines []int         `json:"skipped_lines,omitempty"`
	Revisits     []revisit     `json:"revisits,omitempty"`
}

type stageReport struct {
	Stage    string  `json:"stage"`
	Nodes    int     `json:"nodes"`
	Arcs     int     `json:"arcs"`
	Links    int     `json:"links"`
	Millis   int64   `json:"duration_ms"`
	CacheHit bool    `json:"cache_hit,omitempty"`
	CutoffKM float64 `json:"cutoff_km,omitempty"`
}

type revisit struct {
	Line int `json:"line"`
	Stop int `json:"stop"`
	Row  int `json:"row"`
}

func writeReport(w io.Writer, result *pipeline.Result) error {
	rep := report{
		RunID:        result.RunID,
		Version:      buildinfo.Version,
		Nodes:        result.Network.NodeCount(),
		Arcs:         result.Network.ArcCount(),
		SkippedLines: result.SkippedLines,
	}
	for _, sr := range result.Stages {
		rep.Stages = append(rep.Stages, stageReport{
			Stage:    string(sr.Stage),
			Nodes:    sr.Stats.Nodes,
			Arcs:     sr.Stats.Arcs,
			Links:    sr.Stats.Links,
			Millis:   sr.Duration.Milliseconds(),
			CacheHit: sr.CacheHit,
			CutoffKM: sr.CutoffKM,
		})
	}
	for _, rv := range result.Revisits {
		rep.Revisits = append(rep.Revisits, revisit{Line: rv.Line, Stop: rv.Stop, Row: rv.Row})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
