package room

import "github.com/shba007/ntertainer/internal/timeline"

type Participant struct {
	Id           string `json:"id"`
	DisplayName  string `json:"display_name"`
	AudioEnabled bool   `json:"audio_enabled"`
	VideoEnabled bool   `json:"video_enabled"`
}

type ChatMessage struct {
	Id       string  `json:"id"`
	SenderId string  `json:"sender_id"`
	Text     string  `json:"text"`
	SentAt   float64 `json:"sent_at"`
}

// Snapshot is the full current state of a room, delivered to every new
// subscriber so late joiners start synchronized.
type Snapshot struct {
	RoomId   string         `json:"room_id"`
	Timeline timeline.Model `json:"timeline"`
	Roster   []Participant  `json:"roster"`
	Chat     []ChatMessage  `json:"chat"`
}
