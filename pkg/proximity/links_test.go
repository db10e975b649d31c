package proximity

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/matzehuels/transitnet/pkg/geo"
)

const factor = 15.0 // minutes per km at 4 km/h

func pairs(links []Link) map[[2]int]bool {
	out := make(map[[2]int]bool)
	for _, l := range links {
		a, b := l.A, l.B
		if a > b {
			a, b = b, a
		}
		out[[2]int{a, b}] = true
	}
	return out
}

func TestLinksScenario(t *testing.T) {
	ctx := context.Background()
	stops := []geo.Point{
		{ID: 1, Lat: 0, Lng: 0},
		{ID: 2, Lat: 0, Lng: 0.001},
		{ID: 3, Lat: 0, Lng: 1},
	}
	links, err := Links(ctx, stops, Options{CutoffKM: 0.25, WalkFactor: factor})
	if err != nil {
		t.Fatal(err)
	}
	got := pairs(links)
	if !got[[2]int{1, 2}] || len(got) != 1 {
		t.Fatalf("links = %v, want only (1,2)", got)
	}

	// a fourth stop inside the (1,2) rectangle suppresses that link
	stops = append(stops, geo.Point{ID: 4, Lat: 0, Lng: 0.0005})
	links, err = Links(ctx, stops, Options{CutoffKM: 0.25, WalkFactor: factor})
	if err != nil {
		t.Fatal(err)
	}
	got = pairs(links)
	if got[[2]int{1, 2}] {
		t.Error("(1,2) should be suppressed by stop 4")
	}
	if !got[[2]int{1, 4}] || !got[[2]int{2, 4}] {
		t.Errorf("links = %v, want (1,4) and (2,4)", got)
	}
}

func TestLinksVisibilityPruning(t *testing.T) {
	a := geo.Point{ID: 1, Lat: 52.000, Lng: 4.000}
	b := geo.Point{ID: 2, Lat: 52.001, Lng: 4.001}
	c := geo.Point{ID: 3, Lat: 52.002, Lng: 4.002}

	links, err := Links(context.Background(), []geo.Point{a, b, c}, Options{CutoffKM: 100, WalkFactor: factor})
	if err != nil {
		t.Fatal(err)
	}
	got := pairs(links)
	if got[[2]int{1, 3}] {
		t.Error("A-C must not be linked directly through B")
	}
	if !got[[2]int{1, 2}] || !got[[2]int{2, 3}] {
		t.Errorf("links = %v, want A-B and B-C", got)
	}
}

func TestLinksWeights(t *testing.T) {
	pts := []geo.Point{{ID: 7, Lat: 52.15, Lng: 4.48}, {ID: 9, Lat: 52.152, Lng: 4.483}}
	links, err := Links(context.Background(), pts, Options{CutoffKM: 1, WalkFactor: factor})
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 {
		t.Fatalf("got %d links, want 1", len(links))
	}
	l := links[0]
	if l.A != 9 || l.B != 7 {
		t.Errorf("link = %d-%d, want 9-7 (i enumerated before j < i)", l.A, l.B)
	}
	want := geo.TaxicabDistance(pts[1].Loc(), pts[0].Loc())
	if l.Distance != want || l.Time != want*factor {
		t.Errorf("link = %+v, want distance %v time %v", l, want, want*factor)
	}
}

func TestLinksCoincidentPointsDoNotBlock(t *testing.T) {
	pts := []geo.Point{
		{ID: 1, Lat: 52.0, Lng: 4.0},
		{ID: 2, Lat: 52.0, Lng: 4.0},
		{ID: 3, Lat: 52.001, Lng: 4.0},
	}
	links, err := Links(context.Background(), pts, Options{CutoffKM: 1, WalkFactor: factor})
	if err != nil {
		t.Fatal(err)
	}
	if got := pairs(links); len(got) != 3 {
		t.Errorf("links = %v, want all three pairs", got)
	}
}

func TestLinksDeterministicAcrossWorkers(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pts := make([]geo.Point, 120)
	for i := range pts {
		pts[i] = geo.Point{ID: 1000 + i, Lat: 52.14 + rng.Float64()*0.04, Lng: 4.46 + rng.Float64()*0.06}
	}

	var want []Link
	for _, w := range []int{1, 3, 16} {
		got, err := Links(context.Background(), pts, Options{CutoffKM: 0.6, WalkFactor: factor, Workers: w})
		if err != nil {
			t.Fatal(err)
		}
		if want == nil {
			want = got
			if len(want) == 0 {
				t.Fatal("expected some links")
			}
			continue
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("workers=%d: result differs from workers=1", w)
		}
	}
}

func TestLinksErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := Links(ctx, nil, Options{CutoffKM: 0}); !errors.Is(err, ErrInvalidCutoff) {
		t.Errorf("zero cutoff: %v, want ErrInvalidCutoff", err)
	}
	bad := []geo.Point{{ID: 1, Lat: 95, Lng: 0}}
	if _, err := Links(ctx, bad, Options{CutoffKM: 1}); !errors.Is(err, ErrInvalidPoint) {
		t.Errorf("bad point: %v, want ErrInvalidPoint", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	pts := []geo.Point{{ID: 1}, {ID: 2, Lng: 0.001}}
	if _, err := Links(cancelled, pts, Options{CutoffKM: 1}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: %v, want context.Canceled", err)
	}
}

func TestLinksEmpty(t *testing.T) {
	links, err := Links(context.Background(), nil, Options{CutoffKM: 1})
	if err != nil || len(links) != 0 {
		t.Errorf("Links(nil) = %v, %v", links, err)
	}
}
