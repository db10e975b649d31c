package observability

import (
	"context"
	"maps"
	"sync"
	"time"
)

// StageRecord aggregates the completions of one stage.
type StageRecord struct {
	Runs     int
	Failures int
	Duration time.Duration
	Stats    StageStats
}

// Summary is a snapshot of a [Recorder].
type Summary struct {
	Stages map[string]StageRecord

	// Attachments counts attached demand points by node type.
	Attachments map[string]int
	// Widened counts demand points that needed more than one cutoff round.
	Widened     int
	MaxCutoffKM float64
	MaxRounds   int

	CacheHits   int
	CacheMisses int
	CacheBytes  int
}

// Recorder tallies pipeline and cache events in memory. It implements both
// [PipelineHooks] and [CacheHooks] and is safe for concurrent use.
type Recorder struct {
	mu sync.Mutex
	s  Summary
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{s: Summary{
		Stages:      make(map[string]StageRecord),
		Attachments: make(map[string]int),
	}}
}

// Install registers r as both the pipeline and the cache hooks.
func (r *Recorder) Install() {
	SetPipelineHooks(r)
	SetCacheHooks(r)
}

func (r *Recorder) OnStageStart(context.Context, string) {}

func (r *Recorder) OnStageComplete(_ context.Context, stage string, stats StageStats, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.s.Stages[stage]
	rec.Runs++
	rec.Duration += d
	if err != nil {
		rec.Failures++
	} else {
		rec.Stats.Nodes += stats.Nodes
		rec.Stats.Arcs += stats.Arcs
		rec.Stats.Links += stats.Links
	}
	r.s.Stages[stage] = rec
}

func (r *Recorder) OnAttach(_ context.Context, nodeType string, cutoffKM float64, rounds int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.Attachments[nodeType]++
	if rounds > 1 {
		r.s.Widened++
	}
	r.s.MaxCutoffKM = max(r.s.MaxCutoffKM, cutoffKM)
	r.s.MaxRounds = max(r.s.MaxRounds, rounds)
}

func (r *Recorder) OnCacheHit(context.Context, string) {
	r.mu.Lock()
	r.s.CacheHits++
	r.mu.Unlock()
}

func (r *Recorder) OnCacheMiss(context.Context, string) {
	r.mu.Lock()
	r.s.CacheMisses++
	r.mu.Unlock()
}

func (r *Recorder) OnCacheSet(_ context.Context, _ string, size int) {
	r.mu.Lock()
	r.s.CacheBytes += size
	r.mu.Unlock()
}

// Summary returns a copy of the tallies so far.
func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.s
	s.Stages = maps.Clone(r.s.Stages)
	s.Attachments = maps.Clone(r.s.Attachments)
	return s
}

var (
	_ PipelineHooks = (*Recorder)(nil)
	_ CacheHooks    = (*Recorder)(nil)
)
