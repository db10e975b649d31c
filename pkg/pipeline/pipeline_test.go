package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/transitnet/pkg/cache"
	"github.com/matzehuels/transitnet/pkg/config"
	"github.com/matzehuels/transitnet/pkg/errors"
	"github.com/matzehuels/transitnet/pkg/network"
	"github.com/matzehuels/transitnet/pkg/tables"
)

var fixtures = map[string]string{
	"stops.csv": "ID;Halte;lat;lng\n" +
		"1;Centraal;52,1600;4,4800\n" +
		"2;Markt;52,1620;4,4820\n" +
		"3;Haven;52,1640;4,4850\n" +
		"4;Dorp;52,2000;4,5200\n",
	"lines.csv": "route_ID,StopID,traveltime to next stop\n" +
		"10,1,2\n" +
		"10,2,3\n" +
		"10,3,0\n" +
		"20,3,5\n" +
		"20,4,0\n",
	"population.csv": "ID;Inwoners;lat;lng\n" +
		"BU01;1.200;52,1610;4,4810\n" +
		"BU02;800;52,1990;4,5190\n",
	"facilities.csv": "Name,lat,lng,Kwaliteit\n" +
		"Hospital,52.163,4.483,8\n",
}

// setup writes the fixture tables, with overrides, into a temp dir.
func setup(t *testing.T, overrides map[string]string) Options {
	t.Helper()
	dir := t.TempDir()
	for name, content := range fixtures {
		if o, ok := overrides[name]; ok {
			content = o
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return Options{
		StopsPath:      filepath.Join(dir, "stops.csv"),
		LinesPath:      filepath.Join(dir, "lines.csv"),
		PopulationPath: filepath.Join(dir, "population.csv"),
		FacilitiesPath: filepath.Join(dir, "facilities.csv"),
		NodesPath:      filepath.Join(dir, "out", "nodes.tsv"),
		ArcsPath:       filepath.Join(dir, "out", "arcs.tsv"),
	}
}

func readOutputs(t *testing.T, opts Options) ([]byte, []byte) {
	t.Helper()
	nodes, err := os.ReadFile(opts.NodesPath)
	if err != nil {
		t.Fatal(err)
	}
	arcs, err := os.ReadFile(opts.ArcsPath)
	if err != nil {
		t.Fatal(err)
	}
	return nodes, arcs
}

func TestOptionsValidate(t *testing.T) {
	o := Options{StopsPath: "s.csv", NodesPath: "n.tsv", ArcsPath: "a.tsv"}
	if err := o.Validate(); err != nil {
		t.Fatal(err)
	}
	if o.WalkingSpeedKMH != 4 || o.StopCutoffKM != 0.5 || o.MaxDemandCutoffKM != 64 {
		t.Errorf("defaults not applied: %+v", o)
	}
	if o.Columns.Stops.Name != "Halte" {
		t.Errorf("default columns not applied: %+v", o.Columns.Stops)
	}
	if o.WalkFactor() != 15 {
		t.Errorf("WalkFactor() = %v, want 15", o.WalkFactor())
	}

	tests := []struct {
		name  string
		opts  Options
		stage Stage
	}{
		{"no stops", Options{NodesPath: "n", ArcsPath: "a"}, StageWalk},
		{"no outputs", Options{StopsPath: "s"}, StageWalk},
		{"no lines", Options{StopsPath: "s", NodesPath: "n", ArcsPath: "a"}, StageLines},
		{"no demand", Options{StopsPath: "s", NodesPath: "n", ArcsPath: "a"}, StageDemand},
		{"ceiling", Options{StopsPath: "s", NodesPath: "n", ArcsPath: "a", DemandCutoffKM: 2, MaxDemandCutoffKM: 1}, StageWalk},
		{"negative start", Options{StopsPath: "s", NodesPath: "n", ArcsPath: "a", NodeIDStart: -1}, StageWalk},
		{"unknown stage", Options{StopsPath: "s", NodesPath: "n", ArcsPath: "a"}, Stage("render")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateFor(tt.stage); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.StopCutoffKM = 0.3
	cfg.Workers = 2
	o := OptionsFromConfig(cfg)
	if o.StopCutoffKM != 0.3 || o.Workers != 2 || o.CacheTTL != config.DefaultTTL {
		t.Errorf("got %+v", o)
	}
}

func TestExecute(t *testing.T) {
	opts := setup(t, nil)
	r := NewRunner(nil, nil)
	result, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if result.RunID == "" {
		t.Error("missing run ID")
	}

	net, err := tables.ImportNetwork(opts.NodesPath, opts.ArcsPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := network.Check(net); err != nil {
		t.Fatalf("written network violates invariants: %v", err)
	}

	nodes, arcs := net.Counts()
	wantNodes := map[network.NodeType]int{
		network.NodeStop:             4,
		network.NodeBoarding:         5,
		network.NodePopulationCenter: 2,
		network.NodeFacility:         1,
	}
	for typ, n := range wantNodes {
		if nodes[typ] != n {
			t.Errorf("%s nodes = %d, want %d", typ, nodes[typ], n)
		}
	}
	if arcs[network.ArcLine] != 3 || arcs[network.ArcBoard] != 5 || arcs[network.ArcAlight] != 5 {
		t.Errorf("transit arcs = %v", arcs)
	}
	if arcs[network.ArcWalk] != 4 {
		t.Errorf("walk arcs = %d, want 4 (Centraal-Markt, Markt-Haven)", arcs[network.ArcWalk])
	}
	if d := arcs[network.ArcWalkDemand]; d < 6 || d%2 != 0 {
		t.Errorf("demand arcs = %d, want an even count of at least 6", d)
	}

	// IDs are dense and in layer order
	for i, n := range net.Nodes {
		if n.ID != i {
			t.Fatalf("node %d has ID %d", i, n.ID)
		}
	}
	for i, a := range net.Arcs {
		if a.ID != i {
			t.Fatalf("arc %d has ID %d", i, a.ID)
		}
	}
	if net.Nodes[9].Type != network.NodePopulationCenter || net.Nodes[11].Type != network.NodeFacility {
		t.Errorf("demand nodes out of order: %+v", net.Nodes[9:])
	}
	if net.Nodes[9].Value != 1200 || net.Nodes[11].Name != "Hospital" {
		t.Errorf("demand node attributes: %+v", net.Nodes[9:])
	}

	if sr, ok := result.Stage(StageWalk); !ok || sr.Stats.Links != 2 {
		t.Errorf("walk stage = %+v, %v", sr, ok)
	}
	if sr, ok := result.Stage(StageDemand); !ok || sr.Stats.Nodes != 3 || sr.CutoffKM != 0.5 {
		t.Errorf("demand stage = %+v, %v", sr, ok)
	}
}

func TestDemandArcOrder(t *testing.T) {
	opts := setup(t, nil)
	result, err := NewRunner(nil, nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	net := result.Network

	types := make(map[int]network.NodeType)
	for _, n := range net.Nodes {
		types[n.ID] = n.Type
	}
	var demandArcs []network.Arc
	for _, a := range net.Arcs {
		if a.Type == network.ArcWalkDemand {
			demandArcs = append(demandArcs, a)
		}
	}
	seenFacility := false
	for i := 0; i < len(demandArcs); i += 2 {
		out, back := demandArcs[i], demandArcs[i+1]
		if !types[out.Tail].IsDemand() || types[out.Head] != network.NodeStop {
			t.Errorf("arc %d should run demand to stop", out.ID)
		}
		if back.Tail != out.Head || back.Head != out.Tail || back.Time != out.Time {
			t.Errorf("arc %d is not the reverse of arc %d", back.ID, out.ID)
		}
		if types[out.Tail] == network.NodeFacility {
			seenFacility = true
		} else if seenFacility {
			t.Errorf("population arc %d after facility arcs", out.ID)
		}
		if out.Line != network.NoLine {
			t.Errorf("arc %d line = %d, want -1", out.ID, out.Line)
		}
	}
}

func TestStagesMatchFullBuild(t *testing.T) {
	ctx := context.Background()
	full := setup(t, nil)
	if _, err := NewRunner(nil, nil).Execute(ctx, full); err != nil {
		t.Fatal(err)
	}
	wantNodes, wantArcs := readOutputs(t, full)

	staged := setup(t, nil)
	r := NewRunner(nil, nil)
	for _, stage := range []Stage{StageLines, StageWalk, StageDemand} {
		if _, err := r.RunStage(ctx, stage, staged); err != nil {
			t.Fatalf("%s: %v", stage, err)
		}
	}
	gotNodes, gotArcs := readOutputs(t, staged)
	if !bytes.Equal(gotNodes, wantNodes) || !bytes.Equal(gotArcs, wantArcs) {
		t.Error("stage-by-stage build differs from the full build")
	}
}

func TestRerunDemandIsIdempotent(t *testing.T) {
	ctx := context.Background()
	opts := setup(t, nil)
	r := NewRunner(nil, nil)
	if _, err := r.Execute(ctx, opts); err != nil {
		t.Fatal(err)
	}
	nodes1, arcs1 := readOutputs(t, opts)

	if _, err := r.RunStage(ctx, StageDemand, opts); err != nil {
		t.Fatal(err)
	}
	nodes2, arcs2 := readOutputs(t, opts)
	if !bytes.Equal(nodes1, nodes2) || !bytes.Equal(arcs1, arcs2) {
		t.Error("re-running the demand stage changed the tables")
	}
}

func TestRerunWalkReplacesWalkArcs(t *testing.T) {
	ctx := context.Background()
	opts := setup(t, nil)
	r := NewRunner(nil, nil)
	if _, err := r.Execute(ctx, opts); err != nil {
		t.Fatal(err)
	}
	result, err := r.RunStage(ctx, StageWalk, opts)
	if err != nil {
		t.Fatal(err)
	}
	net := result.Network
	if err := network.Check(net); err != nil {
		t.Fatal(err)
	}
	_, arcs := net.Counts()
	if arcs[network.ArcWalk] != 4 {
		t.Errorf("walk arcs after re-run = %d, want 4", arcs[network.ArcWalk])
	}
	// new walk arcs continue after the highest surviving arc ID
	maxID := slices.MaxFunc(net.Arcs, func(a, b network.Arc) int { return a.ID - b.ID }).ID
	if last := net.Arcs[len(net.Arcs)-1]; last.Type != network.ArcWalk || last.ID != maxID {
		t.Errorf("last arc = %+v, want the highest-ID walk arc", last)
	}
}

func TestIDStarts(t *testing.T) {
	opts := setup(t, nil)
	opts.NodeIDStart = 100
	opts.ArcIDStart = 1000
	result, err := NewRunner(nil, nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	net := result.Network
	if net.Nodes[0].ID != 100 || net.Arcs[0].ID != 1000 {
		t.Errorf("first IDs = %d, %d", net.Nodes[0].ID, net.Arcs[0].ID)
	}
	if last := net.Nodes[len(net.Nodes)-1]; last.ID != 100+len(net.Nodes)-1 {
		t.Errorf("last node ID = %d", last.ID)
	}
}

func TestInvalidLines(t *testing.T) {
	lines := fixtures["lines.csv"] + "30,99,1\n30,4,0\n"

	opts := setup(t, map[string]string{"lines.csv": lines})
	_, err := NewRunner(nil, nil).Execute(context.Background(), opts)
	if !errors.Is(err, errors.ErrCodeReferentialIntegrity) {
		t.Fatalf("err = %v, want REFERENTIAL_INTEGRITY", err)
	}
	if !strings.Contains(err.Error(), "99") {
		t.Errorf("error should name the missing stop: %v", err)
	}

	opts = setup(t, map[string]string{"lines.csv": lines})
	opts.SkipInvalidLines = true
	result, err := NewRunner(nil, nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(result.SkippedLines, []int{30}) {
		t.Errorf("SkippedLines = %v, want [30]", result.SkippedLines)
	}
}

func TestRevisitedStop(t *testing.T) {
	lines := fixtures["lines.csv"] + "10,1,4\n"
	opts := setup(t, map[string]string{"lines.csv": lines})
	result, err := NewRunner(nil, nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Revisits) != 1 || result.Revisits[0].Stop != 1 {
		t.Errorf("Revisits = %+v", result.Revisits)
	}
	_, arcs := result.Network.Counts()
	if arcs[network.ArcBoard] != 5 {
		t.Errorf("board arcs = %d, want 5 (stop 1 kept once on line 10)", arcs[network.ArcBoard])
	}
}

func TestSearchExhausted(t *testing.T) {
	pop := "ID;Inwoners;lat;lng\nFAR;10;53,5;6,0\n"
	opts := setup(t, map[string]string{"population.csv": pop})
	opts.MaxDemandCutoffKM = 8
	_, err := NewRunner(nil, nil).Execute(context.Background(), opts)
	if !errors.Is(err, errors.ErrCodeSearchExhausted) {
		t.Errorf("err = %v, want SEARCH_EXHAUSTED", err)
	}
}

func TestWalkStageNeedsNetwork(t *testing.T) {
	opts := setup(t, nil)
	_, err := NewRunner(nil, nil).RunStage(context.Background(), StageWalk, opts)
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestStopMissingFromStopTable(t *testing.T) {
	ctx := context.Background()
	opts := setup(t, nil)
	r := NewRunner(nil, nil)
	if _, err := r.RunStage(ctx, StageLines, opts); err != nil {
		t.Fatal(err)
	}
	// drop stop 4 from the stop table after the lines stage
	trimmed := strings.Join(strings.Split(fixtures["stops.csv"], "\n")[:4], "\n") + "\n"
	if err := os.WriteFile(opts.StopsPath, []byte(trimmed), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := r.RunStage(ctx, StageWalk, opts)
	if !errors.Is(err, errors.ErrCodeReferentialIntegrity) {
		t.Errorf("err = %v, want REFERENTIAL_INTEGRITY", err)
	}
}

func TestProximityCache(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil)
	opts := setup(t, nil)

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	nodes1, arcs1 := readOutputs(t, opts)
	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	nodes2, arcs2 := readOutputs(t, opts)

	for _, stage := range []Stage{StageWalk, StageDemand} {
		a, _ := first.Stage(stage)
		b, _ := second.Stage(stage)
		if a.CacheHit || !b.CacheHit {
			t.Errorf("%s: cache hits %v then %v, want miss then hit", stage, a.CacheHit, b.CacheHit)
		}
	}
	if !bytes.Equal(nodes1, nodes2) || !bytes.Equal(arcs1, arcs2) {
		t.Error("cached run produced different tables")
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if sr, _ := third.Stage(StageWalk); sr.CacheHit {
		t.Error("Refresh should bypass the cache")
	}
}

func TestStageLogFields(t *testing.T) {
	keys := func(kv []any) []string {
		var out []string
		for i := 0; i < len(kv); i += 2 {
			out = append(out, kv[i].(string))
		}
		return out
	}
	tests := []struct {
		stage Stage
		want  []string
	}{
		{StageLines, []string{"nodes", "arcs", "duration"}},
		{StageWalk, []string{"arcs", "links", "cached", "duration"}},
		{StageDemand, []string{"nodes", "arcs", "links", "cutoff_km", "cached", "duration"}},
		{StageWrite, []string{"nodes", "arcs", "duration"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			got := keys(StageResult{Stage: tt.stage}.keyvals())
			if !slices.Equal(got, tt.want) {
				t.Errorf("keys = %v, want %v", got, tt.want)
			}
		})
	}
}
