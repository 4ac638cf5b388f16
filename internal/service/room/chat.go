package room

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shba007/ntertainer/internal/repository/room"
	"github.com/shba007/ntertainer/internal/timeline"
)

type AppendChatMessageParams struct {
	Text     string
	SenderId string
	RoomId   string
}

type AppendChatMessageResponse struct {
	Message ChatMessage
}

// AppendChatMessage appends to the room chat log. Chat carries no state
// machine: messages are accepted as-is and only ordered.
func (s *service) AppendChatMessage(ctx context.Context, params *AppendChatMessageParams) (AppendChatMessageResponse, error) {
	lock := s.roomLock(params.RoomId)
	lock.Lock()
	defer lock.Unlock()

	exists, err := s.roomRepo.RoomExists(ctx, params.RoomId)
	if err != nil {
		return AppendChatMessageResponse{}, fmt.Errorf("failed to check if room exists: %w", err)
	}
	if !exists {
		return AppendChatMessageResponse{}, ErrRoomNotFound
	}

	message := room.ChatMessage{
		Id:       uuid.NewString(),
		SenderId: params.SenderId,
		Text:     params.Text,
		SentAt:   timeline.Seconds(s.now()),
	}

	if err := s.roomRepo.AppendChatMessage(ctx, &room.AppendChatMessageParams{
		Message: message,
		RoomId:  params.RoomId,
	}); err != nil {
		return AppendChatMessageResponse{}, fmt.Errorf("failed to append chat message: %w", err)
	}

	return AppendChatMessageResponse{
		Message: ChatMessage(message),
	}, nil
}
