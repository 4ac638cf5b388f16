package timeline

import "time"

type BufferState string

const (
	BufferStateLoading BufferState = "loading"
	BufferStateReady   BufferState = "ready"
)

// MarshalBinary lets the value be written as a redis hash field.
func (s BufferState) MarshalBinary() ([]byte, error) {
	return []byte(s), nil
}

type Playback string

const (
	PlaybackPlaying Playback = "playing"
	PlaybackPaused  Playback = "paused"
)

func (p Playback) MarshalBinary() ([]byte, error) {
	return []byte(p), nil
}

const DefaultPlaybackRate = 1.0

// Model is the authoritative description of what a room is playing. The
// current position is never stored: it is always derived from the
// (SeekTime, Timestamp) pair, so it cannot drift away from the fields it
// would have been computed from.
type Model struct {
	EpisodeRef   string      `json:"episode_ref" redis:"episode_ref"`
	BufferState  BufferState `json:"buffer_state" redis:"buffer_state"`
	Playback     Playback    `json:"playback" redis:"playback"`
	PlaybackRate float64     `json:"playback_rate" redis:"playback_rate"`
	SeekTime     float64     `json:"seek_time" redis:"seek_time"`
	Timestamp    float64     `json:"timestamp" redis:"timestamp"`
}

// NewModel returns the model a freshly created room starts with.
func NewModel(episodeRef string) Model {
	return Model{
		EpisodeRef:   episodeRef,
		BufferState:  BufferStateLoading,
		Playback:     PlaybackPaused,
		PlaybackRate: DefaultPlaybackRate,
		SeekTime:     0,
		Timestamp:    0,
	}
}

// Seconds converts a wall-clock instant to the float seconds representation
// used by Model.Timestamp.
func Seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Position derives the effective play-head position at the wall-clock
// instant now (in seconds). While paused the position is frozen at
// SeekTime; while playing it advances at PlaybackRate. Never negative.
func (m Model) Position(now float64) float64 {
	pos := m.SeekTime
	if m.Playback == PlaybackPlaying {
		pos += (now - m.Timestamp) * m.PlaybackRate
	}
	if pos < 0 {
		return 0
	}
	return pos
}

type IntentKind string

const (
	IntentPlay               IntentKind = "play"
	IntentPause              IntentKind = "pause"
	IntentSeek               IntentKind = "seek"
	IntentSetRate            IntentKind = "set_rate"
	IntentSetEpisode         IntentKind = "set_episode"
	IntentBufferStateChanged IntentKind = "buffer_state_changed"
)

// Intent is a requested playback state change. Only the field matching
// Kind is meaningful.
type Intent struct {
	Kind        IntentKind  `json:"kind"`
	SeekTo      float64     `json:"seek_to,omitempty"`
	Rate        float64     `json:"rate,omitempty"`
	EpisodeRef  string      `json:"episode_ref,omitempty"`
	BufferState BufferState `json:"buffer_state,omitempty"`
}

func (i Intent) Validate() error {
	switch i.Kind {
	case IntentPlay, IntentPause:
	case IntentSeek:
		if i.SeekTo < 0 {
			return ErrInvalidIntent
		}
	case IntentSetRate:
		if i.Rate <= 0 {
			return ErrInvalidIntent
		}
	case IntentSetEpisode:
		if i.EpisodeRef == "" {
			return ErrInvalidIntent
		}
	case IntentBufferStateChanged:
		if i.BufferState != BufferStateLoading && i.BufferState != BufferStateReady {
			return ErrInvalidIntent
		}
	default:
		return ErrInvalidIntent
	}
	return nil
}

// Apply produces the model resulting from an intent at instant now. The
// position is frozen first (SeekTime = Position(now), Timestamp = now), so
// flipping Playback or PlaybackRate never moves the play head. Switching
// episodes starts the new episode from zero, paused, with the buffer back
// in loading until the playback adapter reports otherwise.
func Apply(m Model, intent Intent, now float64) Model {
	next := m
	next.SeekTime = m.Position(now)
	next.Timestamp = now

	switch intent.Kind {
	case IntentPlay:
		next.Playback = PlaybackPlaying
	case IntentPause:
		next.Playback = PlaybackPaused
	case IntentSeek:
		to := intent.SeekTo
		if to < 0 {
			to = 0
		}
		next.SeekTime = to
	case IntentSetRate:
		next.PlaybackRate = intent.Rate
	case IntentSetEpisode:
		next.EpisodeRef = intent.EpisodeRef
		next.BufferState = BufferStateLoading
		next.Playback = PlaybackPaused
		next.SeekTime = 0
	case IntentBufferStateChanged:
		next.BufferState = intent.BufferState
	}

	return next
}
