package replay

import "github.com/rxtech-lab/argo-research/internal/rebalance"

// Lifecycle callback types for replay phases.
// All callbacks with error return can abort the replay if they return an error.

// OnReplayStartCallback is called once before the first event.
// runID identifies the replay and is stamped on every ledger row.
type OnReplayStartCallback func(runID string, rebalancerName string, totalEvents int) error

// OnReplayEndCallback is called when the replay finishes (always called via defer).
type OnReplayEndCallback func(err error)

// OnEventCallback is called after each event has been handled by the rebalancer.
type OnEventCallback func(current int, total int, decision rebalance.Decision) error

// LifecycleCallbacks holds all lifecycle callback functions for a replay.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnReplayStart *OnReplayStartCallback
	OnReplayEnd   *OnReplayEndCallback
	OnEvent       *OnEventCallback
}
