package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionAdvancesWhilePlaying(t *testing.T) {
	m := Model{
		EpisodeRef:   "ep-1",
		BufferState:  BufferStateReady,
		Playback:     PlaybackPlaying,
		PlaybackRate: 1,
		SeekTime:     10,
		Timestamp:    100,
	}

	assert.Equal(t, 10.0, m.Position(100))
	assert.Equal(t, 15.0, m.Position(105))

	// monotonic: later instants never yield earlier positions
	prev := m.Position(100)
	for now := 100.5; now < 110; now += 0.5 {
		pos := m.Position(now)
		assert.GreaterOrEqual(t, pos, prev)
		prev = pos
	}
}

func TestPositionFrozenWhilePaused(t *testing.T) {
	m := Model{
		Playback:     PlaybackPaused,
		PlaybackRate: 1,
		SeekTime:     42,
		Timestamp:    100,
	}

	assert.Equal(t, 42.0, m.Position(100))
	assert.Equal(t, 42.0, m.Position(1000))
}

func TestPositionNeverNegative(t *testing.T) {
	m := Model{
		Playback:     PlaybackPlaying,
		PlaybackRate: 1,
		SeekTime:     0,
		Timestamp:    100,
	}

	// now before the authoritative timestamp (client clock behind)
	assert.Equal(t, 0.0, m.Position(90))
}

func TestPauseIsIdempotent(t *testing.T) {
	m := Model{
		Playback:     PlaybackPlaying,
		PlaybackRate: 1,
		SeekTime:     0,
		Timestamp:    100,
	}

	paused := Apply(m, Intent{Kind: IntentPause}, 110)
	assert.Equal(t, 10.0, paused.Position(110))

	pausedAgain := Apply(paused, Intent{Kind: IntentPause}, 120)
	assert.Equal(t, paused.Position(120), pausedAgain.Position(120))
	assert.Equal(t, 10.0, pausedAgain.Position(130))
}

func TestSeekRoundTrip(t *testing.T) {
	m := Model{
		Playback:     PlaybackPlaying,
		PlaybackRate: 1,
		SeekTime:     3,
		Timestamp:    100,
	}

	seeked := Apply(m, Intent{Kind: IntentSeek, SeekTo: 77}, 104)
	assert.Equal(t, 77.0, seeked.Position(104))
}

func TestPlaySeekScenario(t *testing.T) {
	// room starts paused at zero
	const t0 = 1000.0
	m := Model{
		Playback:     PlaybackPaused,
		PlaybackRate: 1,
		SeekTime:     0,
		Timestamp:    t0,
	}

	// play at T0+5
	m = Apply(m, Intent{Kind: IntentPlay}, t0+5)
	assert.Equal(t, PlaybackPlaying, m.Playback)
	assert.Equal(t, 0.0, m.SeekTime)
	assert.Equal(t, t0+5, m.Timestamp)
	assert.Equal(t, 10.0, m.Position(t0+15))

	// seek(50) at T0+20
	m = Apply(m, Intent{Kind: IntentSeek, SeekTo: 50}, t0+20)
	assert.Equal(t, PlaybackPlaying, m.Playback)
	assert.Equal(t, 50.0, m.SeekTime)
	assert.Equal(t, t0+20, m.Timestamp)
	assert.Equal(t, 55.0, m.Position(t0+25))
}

func TestSetRatePreservesPosition(t *testing.T) {
	m := Model{
		Playback:     PlaybackPlaying,
		PlaybackRate: 1,
		SeekTime:     0,
		Timestamp:    0,
	}

	// playing at position 10 when the rate doubles
	m = Apply(m, Intent{Kind: IntentSetRate, Rate: 2}, 10)
	assert.Equal(t, 10.0, m.Position(10))
	assert.Equal(t, 20.0, m.Position(15))
}

func TestSetEpisodeStartsFresh(t *testing.T) {
	m := Model{
		EpisodeRef:   "ep-1",
		BufferState:  BufferStateReady,
		Playback:     PlaybackPlaying,
		PlaybackRate: 1.5,
		SeekTime:     30,
		Timestamp:    100,
	}

	m = Apply(m, Intent{Kind: IntentSetEpisode, EpisodeRef: "ep-2"}, 110)
	assert.Equal(t, "ep-2", m.EpisodeRef)
	assert.Equal(t, BufferStateLoading, m.BufferState)
	assert.Equal(t, PlaybackPaused, m.Playback)
	assert.Equal(t, 0.0, m.SeekTime)
	assert.Equal(t, 1.5, m.PlaybackRate, "rate survives an episode change")
}

func TestBufferStateChangedOnlyFlipsBuffer(t *testing.T) {
	m := NewModel("ep-1")
	assert.Equal(t, BufferStateLoading, m.BufferState)

	m = Apply(m, Intent{Kind: IntentBufferStateChanged, BufferState: BufferStateReady}, 5)
	assert.Equal(t, BufferStateReady, m.BufferState)
	assert.Equal(t, PlaybackPaused, m.Playback)
	assert.Equal(t, 0.0, m.SeekTime)
}

func TestIntentValidate(t *testing.T) {
	valid := []Intent{
		{Kind: IntentPlay},
		{Kind: IntentPause},
		{Kind: IntentSeek, SeekTo: 0},
		{Kind: IntentSeek, SeekTo: 120.5},
		{Kind: IntentSetRate, Rate: 0.5},
		{Kind: IntentSetEpisode, EpisodeRef: "ep-9"},
		{Kind: IntentBufferStateChanged, BufferState: BufferStateReady},
	}
	for _, intent := range valid {
		require.NoError(t, intent.Validate(), "intent %v", intent)
	}

	invalid := []Intent{
		{Kind: "unknown"},
		{Kind: IntentSeek, SeekTo: -1},
		{Kind: IntentSetRate, Rate: 0},
		{Kind: IntentSetRate, Rate: -2},
		{Kind: IntentSetEpisode},
		{Kind: IntentBufferStateChanged, BufferState: "buffering"},
	}
	for _, intent := range invalid {
		require.Error(t, intent.Validate(), "intent %v", intent)
	}
}
