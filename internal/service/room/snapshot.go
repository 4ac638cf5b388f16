package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/shba007/ntertainer/internal/repository/room"
)

// Snapshot returns the full current room state: timeline, roster, and the
// trailing chat messages. Handed to every new subscriber before any live
// event so late joiners never start from a stale position.
func (s *service) Snapshot(ctx context.Context, roomId string) (Snapshot, error) {
	model, err := s.roomRepo.GetTimeline(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return Snapshot{}, ErrRoomNotFound
		}
		return Snapshot{}, fmt.Errorf("failed to get timeline: %w", err)
	}

	roster, err := s.getRoster(ctx, roomId)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to get roster: %w", err)
	}

	tail, err := s.roomRepo.GetChatTail(ctx, &room.GetChatTailParams{
		RoomId: roomId,
		Limit:  s.chatTailLen,
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to get chat tail: %w", err)
	}

	chat := make([]ChatMessage, 0, len(tail))
	for _, message := range tail {
		chat = append(chat, ChatMessage(message))
	}

	return Snapshot{
		RoomId:   roomId,
		Timeline: model,
		Roster:   roster,
		Chat:     chat,
	}, nil
}
