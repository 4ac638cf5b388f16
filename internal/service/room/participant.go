package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/shba007/ntertainer/internal/repository/room"
	"github.com/shba007/ntertainer/internal/timeline"
)

func (s *service) getRoster(ctx context.Context, roomId string) ([]Participant, error) {
	participantIds, err := s.roomRepo.GetParticipantIds(ctx, roomId)
	if err != nil {
		return nil, err
	}

	roster := make([]Participant, 0, len(participantIds))
	for _, participantId := range participantIds {
		participant, err := s.roomRepo.GetParticipant(ctx, &room.GetParticipantParams{
			ParticipantId: participantId,
			RoomId:        roomId,
		})
		if err != nil {
			return nil, err
		}

		roster = append(roster, Participant{
			Id:           participantId,
			DisplayName:  participant.DisplayName,
			AudioEnabled: participant.AudioEnabled,
			VideoEnabled: participant.VideoEnabled,
		})
	}

	return roster, nil
}

type JoinParams struct {
	ParticipantId string
	DisplayName   string
	// EpisodeRef seeds the timeline when the join creates the room.
	EpisodeRef string
	RoomId     string
}

type JoinResponse struct {
	JoinedParticipant Participant
	Roster            []Participant
	RoomCreated       bool
}

// Join adds a participant to the room roster. A join against an unknown
// room creates it with a default timeline: paused at zero.
func (s *service) Join(ctx context.Context, params *JoinParams) (JoinResponse, error) {
	lock := s.roomLock(params.RoomId)
	lock.Lock()
	defer lock.Unlock()

	exists, err := s.roomRepo.RoomExists(ctx, params.RoomId)
	if err != nil {
		return JoinResponse{}, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		if err := s.roomRepo.SetTimeline(ctx, &room.SetTimelineParams{
			Timeline: timeline.NewModel(params.EpisodeRef),
			RoomId:   params.RoomId,
		}); err != nil {
			return JoinResponse{}, fmt.Errorf("failed to create room: %w", err)
		}

		s.logger.InfoContext(ctx, "room created", "room_id", params.RoomId)
	}

	if err := s.roomRepo.SetParticipant(ctx, &room.SetParticipantParams{
		ParticipantId: params.ParticipantId,
		DisplayName:   params.DisplayName,
		AudioEnabled:  false,
		VideoEnabled:  false,
		RoomId:        params.RoomId,
	}); err != nil {
		return JoinResponse{}, fmt.Errorf("failed to set participant: %w", err)
	}

	roster, err := s.getRoster(ctx, params.RoomId)
	if err != nil {
		return JoinResponse{}, fmt.Errorf("failed to get roster: %w", err)
	}

	return JoinResponse{
		JoinedParticipant: Participant{
			Id:          params.ParticipantId,
			DisplayName: params.DisplayName,
		},
		Roster:      roster,
		RoomCreated: !exists,
	}, nil
}

type LeaveParams struct {
	ParticipantId string
	RoomId        string
}

type LeaveResponse struct {
	Roster      []Participant
	RoomDeleted bool
}

// Leave removes a participant; when the last one leaves the room state is
// destroyed (the redis TTL acts as a grace timer for keys a crash leaves
// behind).
func (s *service) Leave(ctx context.Context, params *LeaveParams) (LeaveResponse, error) {
	lock := s.roomLock(params.RoomId)
	lock.Lock()
	defer lock.Unlock()

	exists, err := s.roomRepo.RoomExists(ctx, params.RoomId)
	if err != nil {
		return LeaveResponse{}, fmt.Errorf("failed to check if room exists: %w", err)
	}
	if !exists {
		return LeaveResponse{}, ErrRoomNotFound
	}

	if err := s.roomRepo.RemoveParticipant(ctx, &room.RemoveParticipantParams{
		ParticipantId: params.ParticipantId,
		RoomId:        params.RoomId,
	}); err != nil && !errors.Is(err, room.ErrParticipantNotFound) {
		return LeaveResponse{}, fmt.Errorf("failed to remove participant: %w", err)
	}

	roster, err := s.getRoster(ctx, params.RoomId)
	if err != nil {
		return LeaveResponse{}, fmt.Errorf("failed to get roster: %w", err)
	}

	if len(roster) == 0 {
		if err := s.deleteRoom(ctx, params.RoomId); err != nil {
			return LeaveResponse{}, fmt.Errorf("failed to delete room: %w", err)
		}

		s.logger.InfoContext(ctx, "room deleted", "room_id", params.RoomId)

		return LeaveResponse{RoomDeleted: true}, nil
	}

	return LeaveResponse{Roster: roster}, nil
}

func (s *service) deleteRoom(ctx context.Context, roomId string) error {
	if err := s.roomRepo.RemoveTimeline(ctx, roomId); err != nil && !errors.Is(err, room.ErrRoomNotFound) {
		return err
	}
	if err := s.roomRepo.RemoveRoster(ctx, roomId); err != nil {
		return err
	}
	if err := s.roomRepo.RemoveChat(ctx, roomId); err != nil {
		return err
	}

	s.releaseRoomLock(roomId)

	return nil
}

type ToggleMediaParams struct {
	ParticipantId string
	RoomId        string
	Enabled       bool
}

type ToggleMediaResponse struct {
	Participant Participant
}

func (s *service) ToggleAudio(ctx context.Context, params *ToggleMediaParams) (ToggleMediaResponse, error) {
	lock := s.roomLock(params.RoomId)
	lock.Lock()
	defer lock.Unlock()

	if err := s.roomRepo.UpdateParticipantAudio(ctx, &room.UpdateParticipantAudioParams{
		ParticipantId: params.ParticipantId,
		RoomId:        params.RoomId,
		Enabled:       params.Enabled,
	}); err != nil {
		return ToggleMediaResponse{}, fmt.Errorf("failed to update participant audio: %w", err)
	}

	return s.toggledParticipant(ctx, params.RoomId, params.ParticipantId)
}

func (s *service) ToggleVideo(ctx context.Context, params *ToggleMediaParams) (ToggleMediaResponse, error) {
	lock := s.roomLock(params.RoomId)
	lock.Lock()
	defer lock.Unlock()

	if err := s.roomRepo.UpdateParticipantVideo(ctx, &room.UpdateParticipantVideoParams{
		ParticipantId: params.ParticipantId,
		RoomId:        params.RoomId,
		Enabled:       params.Enabled,
	}); err != nil {
		return ToggleMediaResponse{}, fmt.Errorf("failed to update participant video: %w", err)
	}

	return s.toggledParticipant(ctx, params.RoomId, params.ParticipantId)
}

func (s *service) toggledParticipant(ctx context.Context, roomId, participantId string) (ToggleMediaResponse, error) {
	participant, err := s.roomRepo.GetParticipant(ctx, &room.GetParticipantParams{
		ParticipantId: participantId,
		RoomId:        roomId,
	})
	if err != nil {
		return ToggleMediaResponse{}, fmt.Errorf("failed to get participant: %w", err)
	}

	return ToggleMediaResponse{
		Participant: Participant{
			Id:           participantId,
			DisplayName:  participant.DisplayName,
			AudioEnabled: participant.AudioEnabled,
			VideoEnabled: participant.VideoEnabled,
		},
	}, nil
}

type ConnectParticipantParams struct {
	Conn          *websocket.Conn
	ParticipantId string
}

func (s *service) ConnectParticipant(ctx context.Context, params *ConnectParticipantParams) error {
	if err := s.connRepo.Add(params.Conn, params.ParticipantId); err != nil {
		s.logger.InfoContext(ctx, "failed to connect participant", "error", err)
		return err
	}

	return nil
}

type DisconnectParticipantParams struct {
	ParticipantId string
}

func (s *service) DisconnectParticipant(ctx context.Context, params *DisconnectParticipantParams) error {
	conn, err := s.connRepo.RemoveByParticipantId(params.ParticipantId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to remove conn", "error", err)
		return err
	}

	if conn.NetConn() != nil {
		conn.Close()
	}

	return nil
}
