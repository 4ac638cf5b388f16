package relay

import (
	"context"
	"errors"

	roomservice "github.com/shba007/ntertainer/internal/service/room"
	"github.com/shba007/ntertainer/internal/timeline"
)

// publish runs accept-then-fan-out under the room order lock. accept runs
// against the store; its error aborts the publish and nothing is fanned
// out. The sender never receives its own event back.
func (r *Relay) publish(roomId string, topic Topic, senderId, eventType string, accept func() (any, error)) (Event, error) {
	state := r.lockRoom(roomId)
	defer state.mu.Unlock()

	payload, err := accept()
	if err != nil {
		r.releaseIfUnused(roomId, state)
		if errors.Is(err, roomservice.ErrRoomNotFound) {
			return Event{}, ErrRoomNotFound
		}
		return Event{}, err
	}

	ev := Event{
		RoomId:  roomId,
		Topic:   topic,
		Type:    eventType,
		Payload: payload,
	}
	r.fanOut(state, ev, senderId)
	ev.Seq = state.seq[topic]

	return ev, nil
}

type PlayerUpdatedPayload struct {
	Intent   timeline.Intent `json:"intent"`
	Timeline timeline.Model  `json:"timeline"`
	SenderId string          `json:"sender_id"`
}

// PublishPlayerIntent submits an intent to the store and fans out the
// accepted timeline. Returns the accepted model so the submitter can
// reconcile its optimistic copy.
func (r *Relay) PublishPlayerIntent(ctx context.Context, roomId, senderId string, intent timeline.Intent) (timeline.Model, error) {
	var accepted timeline.Model
	_, err := r.publish(roomId, TopicPlayer, senderId, EventPlayerUpdated, func() (any, error) {
		resp, err := r.store.AcceptPlayerIntent(ctx, &roomservice.AcceptPlayerIntentParams{
			Intent:   intent,
			SenderId: senderId,
			RoomId:   roomId,
		})
		if err != nil {
			return nil, err
		}

		accepted = resp.Timeline
		return PlayerUpdatedPayload{
			Intent:   intent,
			Timeline: resp.Timeline,
			SenderId: senderId,
		}, nil
	})
	if err != nil {
		return timeline.Model{}, err
	}

	return accepted, nil
}

// PublishChatMessage appends to the chat log and fans the message out.
// Chat needs no further validation by the store.
func (r *Relay) PublishChatMessage(ctx context.Context, roomId, senderId, text string) (roomservice.ChatMessage, error) {
	var message roomservice.ChatMessage
	_, err := r.publish(roomId, TopicChat, senderId, EventChatMessage, func() (any, error) {
		resp, err := r.store.AppendChatMessage(ctx, &roomservice.AppendChatMessageParams{
			Text:     text,
			SenderId: senderId,
			RoomId:   roomId,
		})
		if err != nil {
			return nil, err
		}

		message = resp.Message
		return message, nil
	})
	if err != nil {
		return roomservice.ChatMessage{}, err
	}

	return message, nil
}

type RosterPayload struct {
	Participant roomservice.Participant   `json:"participant"`
	Roster      []roomservice.Participant `json:"roster,omitempty"`
}

// PublishJoin adds the participant to the room (creating the room on first
// join) and announces it on the call topic.
func (r *Relay) PublishJoin(ctx context.Context, params *roomservice.JoinParams) (roomservice.JoinResponse, error) {
	var joined roomservice.JoinResponse
	_, err := r.publish(params.RoomId, TopicCall, params.ParticipantId, EventParticipantJoined, func() (any, error) {
		resp, err := r.store.Join(ctx, params)
		if err != nil {
			return nil, err
		}

		joined = resp
		return RosterPayload{
			Participant: resp.JoinedParticipant,
			Roster:      resp.Roster,
		}, nil
	})
	if err != nil {
		return roomservice.JoinResponse{}, err
	}

	return joined, nil
}

// PublishLeave removes the participant and announces it; if the room was
// destroyed with them, every remaining subscription is closed.
func (r *Relay) PublishLeave(ctx context.Context, params *roomservice.LeaveParams) error {
	var deleted bool
	_, err := r.publish(params.RoomId, TopicCall, params.ParticipantId, EventParticipantLeft, func() (any, error) {
		resp, err := r.store.Leave(ctx, params)
		if err != nil {
			return nil, err
		}

		deleted = resp.RoomDeleted
		return RosterPayload{
			Participant: roomservice.Participant{Id: params.ParticipantId},
			Roster:      resp.Roster,
		}, nil
	})
	if err != nil {
		return err
	}

	if deleted {
		r.closeRoom(params.RoomId)
	}

	return nil
}

// PublishToggleAudio updates the roster flag and announces it on the call
// topic. The local flag/stream atomicity is the session manager's concern;
// by the time this runs the toggle already took effect locally.
func (r *Relay) PublishToggleAudio(ctx context.Context, params *roomservice.ToggleMediaParams) (roomservice.Participant, error) {
	return r.publishToggle(params, EventAudioToggled, func() (roomservice.ToggleMediaResponse, error) {
		return r.store.ToggleAudio(ctx, params)
	})
}

func (r *Relay) PublishToggleVideo(ctx context.Context, params *roomservice.ToggleMediaParams) (roomservice.Participant, error) {
	return r.publishToggle(params, EventVideoToggled, func() (roomservice.ToggleMediaResponse, error) {
		return r.store.ToggleVideo(ctx, params)
	})
}

func (r *Relay) publishToggle(params *roomservice.ToggleMediaParams, eventType string, toggle func() (roomservice.ToggleMediaResponse, error)) (roomservice.Participant, error) {
	var participant roomservice.Participant
	_, err := r.publish(params.RoomId, TopicCall, params.ParticipantId, eventType, func() (any, error) {
		resp, err := toggle()
		if err != nil {
			return nil, err
		}

		participant = resp.Participant
		return RosterPayload{Participant: participant}, nil
	})
	if err != nil {
		return roomservice.Participant{}, err
	}

	return participant, nil
}
