// Package playback is the boundary to the streaming player. The core never
// touches decoding or buffering heuristics; it hands the adapter an episode
// and a position, and turns the adapter's callbacks into player intents.
package playback

import (
	"context"

	"github.com/shba007/ntertainer/internal/timeline"
)

// Adapter is implemented by the embedding player (dash.js bridge, test
// fake, ...).
type Adapter interface {
	// Load points the player at an episode starting from position seconds.
	Load(ctx context.Context, episodeRef string, position float64) error
	// Seek moves the play head within the loaded episode.
	Seek(ctx context.Context, position float64) error
}

// Callbacks is what the adapter reports back to the core.
type Callbacks struct {
	BufferStateChanged     func(timeline.BufferState)
	QualityChangeRequested func(height int)
}

// BufferIntent translates an adapter buffer report into the player intent
// submitted to the room. The buffer state only ever changes through this
// explicit intent; it is never inferred.
func BufferIntent(state timeline.BufferState) timeline.Intent {
	return timeline.Intent{
		Kind:        timeline.IntentBufferStateChanged,
		BufferState: state,
	}
}

// Bind wires a reconciler-driven model to an adapter: episode or position
// changes in the accepted model are pushed down, and the returned Callbacks
// forward adapter reports through submit as intents.
func Bind(adapter Adapter, submit func(timeline.Intent)) Callbacks {
	return Callbacks{
		BufferStateChanged: func(state timeline.BufferState) {
			submit(BufferIntent(state))
		},
		QualityChangeRequested: func(int) {
			// Quality selection stays inside the adapter; nothing for the
			// room to coordinate.
		},
	}
}

// Sync drives the adapter toward an accepted model: a changed episode is
// reloaded from the derived position, a moved play head is seeked.
func Sync(ctx context.Context, adapter Adapter, prev, accepted timeline.Model, now float64) error {
	if prev.EpisodeRef != accepted.EpisodeRef {
		return adapter.Load(ctx, accepted.EpisodeRef, accepted.Position(now))
	}
	if prev.SeekTime != accepted.SeekTime || prev.Timestamp != accepted.Timestamp {
		return adapter.Seek(ctx, accepted.Position(now))
	}
	return nil
}
