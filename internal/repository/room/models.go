package room

type Participant struct {
	DisplayName  string `redis:"display_name" json:"display_name"`
	AudioEnabled bool   `redis:"audio_enabled" json:"audio_enabled"`
	VideoEnabled bool   `redis:"video_enabled" json:"video_enabled"`
	RoomId       string `redis:"room_id" json:"-"`
}

type ChatMessage struct {
	Id       string  `json:"id"`
	SenderId string  `json:"sender_id"`
	Text     string  `json:"text"`
	SentAt   float64 `json:"sent_at"`
}

type ConnectSession struct {
	DisplayName string `redis:"display_name"`
	EpisodeRef  string `redis:"episode_ref"`
	RoomId      string `redis:"room_id"`
}
