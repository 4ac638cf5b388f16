package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shba007/ntertainer/internal/repository/room"
)

func (r repo) getParticipantKey(participantId string) string {
	return "participant:" + participantId
}

func (r repo) getRosterKey(roomId string) string {
	return "room:" + roomId + ":roster"
}

func (r repo) addToRoster(ctx context.Context, pipe redis.Pipeliner, roomId, participantId string) {
	rosterKey := r.getRosterKey(roomId)

	r.addWithIncrement(ctx, pipe, rosterKey, participantId)
	pipe.Expire(ctx, rosterKey, r.expireDuration)
}

func (r repo) SetParticipant(ctx context.Context, params *room.SetParticipantParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	participant := room.Participant{
		DisplayName:  params.DisplayName,
		AudioEnabled: params.AudioEnabled,
		VideoEnabled: params.VideoEnabled,
		RoomId:       params.RoomId,
	}

	participantKey := r.getParticipantKey(params.ParticipantId)
	pipe.HSet(ctx, participantKey, participant)
	pipe.Expire(ctx, participantKey, r.expireDuration)

	r.addToRoster(ctx, pipe, params.RoomId, params.ParticipantId)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set participant: %w", err)
	}

	return nil
}

func (r repo) GetParticipant(ctx context.Context, params *room.GetParticipantParams) (room.Participant, error) {
	participantKey := r.getParticipantKey(params.ParticipantId)

	cmd := r.rc.Exists(ctx, participantKey)
	if err := cmd.Err(); err != nil {
		return room.Participant{}, fmt.Errorf("failed to get participant: %w", err)
	}
	if cmd.Val() == 0 {
		return room.Participant{}, room.ErrParticipantNotFound
	}

	var participant room.Participant
	if err := r.rc.HGetAll(ctx, participantKey).Scan(&participant); err != nil {
		return room.Participant{}, fmt.Errorf("failed to get participant: %w", err)
	}

	r.rc.Expire(ctx, participantKey, r.expireDuration)

	return participant, nil
}

// GetParticipantIds returns the roster in join order.
func (r repo) GetParticipantIds(ctx context.Context, roomId string) ([]string, error) {
	ids, err := r.rc.ZRange(ctx, r.getRosterKey(roomId), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get participant ids: %w", err)
	}

	return ids, nil
}

func (r repo) RemoveParticipant(ctx context.Context, params *room.RemoveParticipantParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	if err := r.rc.ZRem(ctx, r.getRosterKey(params.RoomId), params.ParticipantId).Err(); err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}

	res, err := r.rc.Del(ctx, r.getParticipantKey(params.ParticipantId)).Result()
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}

	if res == 0 {
		return room.ErrParticipantNotFound
	}

	return nil
}

func (r repo) updateParticipantField(ctx context.Context, participantId, field string, value interface{}) error {
	participantKey := r.getParticipantKey(participantId)

	cmd := r.rc.Exists(ctx, participantKey)
	if err := cmd.Err(); err != nil {
		return err
	}
	if cmd.Val() == 0 {
		return room.ErrParticipantNotFound
	}

	if err := r.rc.HSet(ctx, participantKey, field, value).Err(); err != nil {
		return err
	}

	r.rc.Expire(ctx, participantKey, r.expireDuration)

	return nil
}

func (r repo) UpdateParticipantAudio(ctx context.Context, params *room.UpdateParticipantAudioParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	return r.updateParticipantField(ctx, params.ParticipantId, "audio_enabled", params.Enabled)
}

func (r repo) UpdateParticipantVideo(ctx context.Context, params *room.UpdateParticipantVideoParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	return r.updateParticipantField(ctx, params.ParticipantId, "video_enabled", params.Enabled)
}

func (r repo) RemoveRoster(ctx context.Context, roomId string) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	if err := r.rc.Del(ctx, r.getRosterKey(roomId)).Err(); err != nil {
		return fmt.Errorf("failed to remove roster: %w", err)
	}

	return nil
}
