// Package observability carries build and cache events out of the library
// packages. The pipeline reports stage completions and demand attachments;
// the cache helpers report hits, misses and writes. Both go to process-wide
// hooks that default to no-ops.
//
// [Recorder] tallies every event in memory; the CLI installs one per run
// to report how many demand points needed a widened cutoff:
//
//	rec := observability.NewRecorder()
//	rec.Install()
//	defer observability.Reset()
//	// ... run the pipeline ...
//	fmt.Println(rec.Summary().Widened)
package observability

import (
	"context"
	"sync"
	"time"
)

// StageStats counts the rows a build stage added.
type StageStats struct {
	Nodes int
	Arcs  int
	Links int
}

// PipelineHooks receives events from the build pipeline.
type PipelineHooks interface {
	// OnStageStart records the start of a stage ("lines", "walk", "demand", "write").
	OnStageStart(ctx context.Context, stage string)

	// OnStageComplete records the end of a stage, successful or not.
	OnStageComplete(ctx context.Context, stage string, stats StageStats, duration time.Duration, err error)

	// OnAttach records one demand point attachment: the cutoff that found
	// stops and the number of doubling rounds it took.
	OnAttach(ctx context.Context, nodeType string, cutoffKM float64, rounds int)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStageStart(context.Context, string) {}
func (NoopPipelineHooks) OnStageComplete(context.Context, string, StageStats, time.Duration, error) {
}
func (NoopPipelineHooks) OnAttach(context.Context, string, float64, int) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
