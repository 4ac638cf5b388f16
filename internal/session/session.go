// Package session tracks one participant's local media toggles and keeps
// them in lockstep with the underlying capture stream. Device enumeration
// and permission prompts live behind the CaptureStream boundary.
package session

import "sync"

// CaptureStream is the device/session boundary. Implementations own the
// actual microphone/camera tracks.
type CaptureStream interface {
	EnableAudio() error
	DisableAudio() error
	EnableVideo() error
	DisableVideo() error
	Active() bool
}

// Manager holds the audio/video enabled flags for one participant. A flag
// and its stream change together or not at all: if the stream call fails
// the flag keeps its previous value.
type Manager struct {
	mu           sync.Mutex
	stream       CaptureStream
	audioEnabled bool
	videoEnabled bool
}

func NewManager(stream CaptureStream) *Manager {
	return &Manager{stream: stream}
}

func (m *Manager) AudioEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.audioEnabled
}

func (m *Manager) VideoEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.videoEnabled
}

func (m *Manager) StreamActive() bool {
	return m.stream.Active()
}

// SetAudio toggles the audio flag, applying the stream change first.
// Returns the resulting flag value.
func (m *Manager) SetAudio(enabled bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.audioEnabled == enabled {
		return enabled, nil
	}

	var err error
	if enabled {
		err = m.stream.EnableAudio()
	} else {
		err = m.stream.DisableAudio()
	}
	if err != nil {
		return m.audioEnabled, err
	}

	m.audioEnabled = enabled
	return enabled, nil
}

// SetVideo toggles the video flag, applying the stream change first.
func (m *Manager) SetVideo(enabled bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.videoEnabled == enabled {
		return enabled, nil
	}

	var err error
	if enabled {
		err = m.stream.EnableVideo()
	} else {
		err = m.stream.DisableVideo()
	}
	if err != nil {
		return m.videoEnabled, err
	}

	m.videoEnabled = enabled
	return enabled, nil
}
