package relay

type Topic string

const (
	TopicPlayer Topic = "player"
	TopicChat   Topic = "chat"
	TopicCall   Topic = "call"
)

const (
	EventSnapshot          = "snapshot"
	EventSync              = "sync"
	EventPlayerUpdated     = "player_updated"
	EventChatMessage       = "chat_message"
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventAudioToggled      = "audio_toggled"
	EventVideoToggled      = "video_toggled"
)

// Event is one fan-out unit. Seq is the per-room per-topic acceptance
// order; events of the same room and topic reach every subscriber in Seq
// order. No ordering is promised across topics.
type Event struct {
	RoomId  string `json:"room_id"`
	Topic   Topic  `json:"topic"`
	Type    string `json:"type"`
	Seq     uint64 `json:"seq"`
	Payload any    `json:"payload"`
}
