package session

import "sync/atomic"

// NullStream is a CaptureStream for signaling-only participants (no local
// devices attached). It tracks whether any track is nominally live so the
// streamActive signal still behaves.
type NullStream struct {
	audio atomic.Bool
	video atomic.Bool
}

func NewNullStream() *NullStream { return &NullStream{} }

func (s *NullStream) EnableAudio() error  { s.audio.Store(true); return nil }
func (s *NullStream) DisableAudio() error { s.audio.Store(false); return nil }
func (s *NullStream) EnableVideo() error  { s.video.Store(true); return nil }
func (s *NullStream) DisableVideo() error { s.video.Store(false); return nil }

func (s *NullStream) Active() bool {
	return s.audio.Load() || s.video.Load()
}
