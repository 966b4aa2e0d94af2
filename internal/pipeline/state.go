// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"time"

	"go.uber.org/zap"
)

// State is a pipeline run's position in the stage sequence.
type State string

const (
	StateCreated      State = "CREATED"
	StateSynthesizing State = "SYNTHESIZING"
	StateMapping      State = "MAPPING"
	StateGrounding    State = "GROUNDING"
	StateEnhancing    State = "ENHANCING"
	StateOptimizing   State = "OPTIMIZING"
	StateRebalancing  State = "REBALANCING"
	StateCached       State = "CACHED"
	StateDone         State = "DONE"
	StateFailed       State = "FAILED"
)

// Progress is delivered to the progress hook on every state change.
type Progress struct {
	RunID string
	State State
	At    time.Time
}

// ProgressFunc receives progress notifications. It runs on its own
// goroutine and is never waited for; a panic inside it is recovered.
type ProgressFunc func(Progress)

// run carries the per-request identity through the stages.
type run struct {
	id     string
	logger *zap.Logger
}

func (p *Pipeline) enter(r *run, s State) {
	r.logger.Debug("pipeline state", zap.String("state", string(s)))
	if p.progress == nil {
		return
	}
	ev := Progress{RunID: r.id, State: s, At: time.Now()}
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Warn("progress hook panicked", zap.Any("panic", rec))
			}
		}()
		p.progress(ev)
	}()
}
