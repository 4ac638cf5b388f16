package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shba007/ntertainer/internal/repository/room"
)

func (r repo) getChatKey(roomId string) string {
	return "room:" + roomId + ":chat"
}

func (r repo) AppendChatMessage(ctx context.Context, params *room.AppendChatMessageParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	raw, err := json.Marshal(params.Message)
	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	chatKey := r.getChatKey(params.RoomId)

	pipe := r.rc.TxPipeline()
	pipe.RPush(ctx, chatKey, raw)
	pipe.Expire(ctx, chatKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	return nil
}

// GetChatTail returns the trailing limit messages in send order.
func (r repo) GetChatTail(ctx context.Context, params *room.GetChatTailParams) ([]room.ChatMessage, error) {
	raws, err := r.rc.LRange(ctx, r.getChatKey(params.RoomId), int64(-params.Limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get chat tail: %w", err)
	}

	messages := make([]room.ChatMessage, 0, len(raws))
	for _, raw := range raws {
		var message room.ChatMessage
		if err := json.Unmarshal([]byte(raw), &message); err != nil {
			return nil, fmt.Errorf("failed to get chat tail: %w", err)
		}

		messages = append(messages, message)
	}

	return messages, nil
}

func (r repo) RemoveChat(ctx context.Context, roomId string) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	if err := r.rc.Del(ctx, r.getChatKey(roomId)).Err(); err != nil {
		return fmt.Errorf("failed to remove chat: %w", err)
	}

	return nil
}
