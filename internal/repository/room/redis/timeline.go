package redis

import (
	"context"
	"fmt"

	"github.com/shba007/ntertainer/internal/repository/room"
	"github.com/shba007/ntertainer/internal/timeline"
)

func (r repo) getTimelineKey(roomId string) string {
	return "room:" + roomId + ":timeline"
}

func (r repo) SetTimeline(ctx context.Context, params *room.SetTimelineParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	timelineKey := r.getTimelineKey(params.RoomId)

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, timelineKey, params.Timeline)
	pipe.Expire(ctx, timelineKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set timeline: %w", err)
	}

	return nil
}

func (r repo) GetTimeline(ctx context.Context, roomId string) (timeline.Model, error) {
	timelineKey := r.getTimelineKey(roomId)

	cmd := r.rc.Exists(ctx, timelineKey)
	if err := cmd.Err(); err != nil {
		return timeline.Model{}, fmt.Errorf("failed to get timeline: %w", err)
	}
	if cmd.Val() == 0 {
		return timeline.Model{}, room.ErrRoomNotFound
	}

	var model timeline.Model
	if err := r.rc.HGetAll(ctx, timelineKey).Scan(&model); err != nil {
		return timeline.Model{}, fmt.Errorf("failed to get timeline: %w", err)
	}

	r.rc.Expire(ctx, timelineKey, r.expireDuration)

	return model, nil
}

func (r repo) UpdateTimeline(ctx context.Context, params *room.UpdateTimelineParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	timelineKey := r.getTimelineKey(params.RoomId)

	cmd := r.rc.Exists(ctx, timelineKey)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("failed to update timeline: %w", err)
	}
	if cmd.Val() == 0 {
		return room.ErrRoomNotFound
	}

	if err := r.rc.HSet(ctx, timelineKey, params.Timeline).Err(); err != nil {
		return fmt.Errorf("failed to update timeline: %w", err)
	}

	r.rc.Expire(ctx, timelineKey, r.expireDuration)

	return nil
}

func (r repo) RoomExists(ctx context.Context, roomId string) (bool, error) {
	res, err := r.rc.Exists(ctx, r.getTimelineKey(roomId)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if room exists: %w", err)
	}

	return res > 0, nil
}

func (r repo) RemoveTimeline(ctx context.Context, roomId string) error {
	r.logger.DebugContext(ctx, "called", "room_id", roomId)
	res, err := r.rc.Del(ctx, r.getTimelineKey(roomId)).Result()
	if err != nil {
		return fmt.Errorf("failed to remove timeline: %w", err)
	}

	if res == 0 {
		return room.ErrRoomNotFound
	}

	return nil
}
