package observability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRecorderTallies(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder()

	r.OnStageStart(ctx, "walk")
	r.OnStageComplete(ctx, "walk", StageStats{Arcs: 8, Links: 4}, 2*time.Second, nil)
	r.OnStageComplete(ctx, "walk", StageStats{Arcs: 100}, time.Second, errors.New("boom"))
	r.OnAttach(ctx, "population", 0.5, 1)
	r.OnAttach(ctx, "population", 2, 3)
	r.OnAttach(ctx, "facility", 1, 2)
	r.OnCacheMiss(ctx, "links")
	r.OnCacheSet(ctx, "links", 128)
	r.OnCacheHit(ctx, "links")

	s := r.Summary()
	walk := s.Stages["walk"]
	if walk.Runs != 2 || walk.Failures != 1 || walk.Duration != 3*time.Second {
		t.Errorf("walk record = %+v", walk)
	}
	if walk.Stats.Arcs != 8 || walk.Stats.Links != 4 {
		t.Errorf("failed runs should not add stats, got %+v", walk.Stats)
	}
	if s.Attachments["population"] != 2 || s.Attachments["facility"] != 1 {
		t.Errorf("attachments = %v", s.Attachments)
	}
	if s.Widened != 2 || s.MaxCutoffKM != 2 || s.MaxRounds != 3 {
		t.Errorf("widened/max cutoff/max rounds = %d/%v/%d", s.Widened, s.MaxCutoffKM, s.MaxRounds)
	}
	if s.CacheHits != 1 || s.CacheMisses != 1 || s.CacheBytes != 128 {
		t.Errorf("cache tallies = %d/%d/%d", s.CacheHits, s.CacheMisses, s.CacheBytes)
	}
}

func TestRecorderSummaryIsCopy(t *testing.T) {
	r := NewRecorder()
	r.OnAttach(context.Background(), "facility", 1, 1)

	s := r.Summary()
	s.Attachments["facility"] = 99
	if got := r.Summary().Attachments["facility"]; got != 1 {
		t.Errorf("summary mutation leaked into recorder: %d", got)
	}
}

func TestRecorderInstall(t *testing.T) {
	Reset()
	defer Reset()

	r := NewRecorder()
	r.Install()
	Pipeline().OnAttach(context.Background(), "population", 4, 4)
	Cache().OnCacheHit(context.Background(), "attach")

	s := r.Summary()
	if s.Attachments["population"] != 1 || s.CacheHits != 1 {
		t.Errorf("installed recorder missed events: %+v", s)
	}
}

func TestRecorderConcurrent(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				r.OnAttach(context.Background(), "population", 1, 1)
				r.OnCacheMiss(context.Background(), "attach")
			}
		}()
	}
	wg.Wait()

	s := r.Summary()
	if s.Attachments["population"] != 800 || s.CacheMisses != 800 {
		t.Errorf("attachments/misses = %d/%d, want 800/800", s.Attachments["population"], s.CacheMisses)
	}
}
