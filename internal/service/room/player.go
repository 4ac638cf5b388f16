package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/shba007/ntertainer/internal/repository/room"
	"github.com/shba007/ntertainer/internal/timeline"
)

type AcceptPlayerIntentParams struct {
	Intent   timeline.Intent
	SenderId string
	RoomId   string
}

type AcceptPlayerIntentResponse struct {
	Timeline timeline.Model
}

// AcceptPlayerIntent applies an intent to the room timeline using the
// store's own clock; the submitter's local time is deliberately ignored so
// authoritative state never depends on client clocks. Intents are accepted
// unconditionally: a conflicting concurrent intent is not an error, the
// most recent submission wins in arrival order at the room lock.
func (s *service) AcceptPlayerIntent(ctx context.Context, params *AcceptPlayerIntentParams) (AcceptPlayerIntentResponse, error) {
	if err := params.Intent.Validate(); err != nil {
		return AcceptPlayerIntentResponse{}, fmt.Errorf("failed to accept player intent: %w", err)
	}

	lock := s.roomLock(params.RoomId)
	lock.Lock()
	defer lock.Unlock()

	model, err := s.roomRepo.GetTimeline(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return AcceptPlayerIntentResponse{}, ErrRoomNotFound
		}
		return AcceptPlayerIntentResponse{}, fmt.Errorf("failed to get timeline: %w", err)
	}

	accepted := timeline.Apply(model, params.Intent, timeline.Seconds(s.now()))

	if err := s.roomRepo.UpdateTimeline(ctx, &room.UpdateTimelineParams{
		Timeline: accepted,
		RoomId:   params.RoomId,
	}); err != nil {
		return AcceptPlayerIntentResponse{}, fmt.Errorf("failed to update timeline: %w", err)
	}

	s.logger.DebugContext(ctx, "player intent accepted",
		"room_id", params.RoomId,
		"sender_id", params.SenderId,
		"kind", params.Intent.Kind,
	)

	return AcceptPlayerIntentResponse{Timeline: accepted}, nil
}
