package room

import "github.com/shba007/ntertainer/internal/timeline"

type SetTimelineParams struct {
	Timeline timeline.Model
	RoomId   string
}

type UpdateTimelineParams struct {
	Timeline timeline.Model
	RoomId   string
}

type SetParticipantParams struct {
	ParticipantId string
	DisplayName   string
	AudioEnabled  bool
	VideoEnabled  bool
	RoomId        string
}

type GetParticipantParams struct {
	ParticipantId string
	RoomId        string
}

type RemoveParticipantParams struct {
	ParticipantId string
	RoomId        string
}

type UpdateParticipantAudioParams struct {
	ParticipantId string
	RoomId        string
	Enabled       bool
}

type UpdateParticipantVideoParams struct {
	ParticipantId string
	RoomId        string
	Enabled       bool
}

type AppendChatMessageParams struct {
	Message ChatMessage
	RoomId  string
}

type GetChatTailParams struct {
	RoomId string
	Limit  int
}

type SetConnectSessionParams struct {
	Token       string
	DisplayName string
	EpisodeRef  string
	RoomId      string
}
