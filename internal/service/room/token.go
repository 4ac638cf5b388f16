package room

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shba007/ntertainer/internal/repository/room"
)

type CreateRoomSessionParams struct {
	DisplayName string
	EpisodeRef  string
}

type CreateRoomSessionResponse struct {
	ConnectToken string
	RoomId       string
}

// CreateRoomSession validates a room-creation request ahead of the
// websocket upgrade: it allocates the room id and stashes the requester's
// profile behind a signed one-shot connect token.
func (s *service) CreateRoomSession(ctx context.Context, params *CreateRoomSessionParams) (CreateRoomSessionResponse, error) {
	roomId := uuid.NewString()

	token, err := s.createConnectSession(ctx, params.DisplayName, params.EpisodeRef, roomId)
	if err != nil {
		return CreateRoomSessionResponse{}, err
	}

	return CreateRoomSessionResponse{
		ConnectToken: token,
		RoomId:       roomId,
	}, nil
}

type JoinRoomSessionParams struct {
	DisplayName string
	RoomId      string
}

type JoinRoomSessionResponse struct {
	ConnectToken string
}

func (s *service) JoinRoomSession(ctx context.Context, params *JoinRoomSessionParams) (JoinRoomSessionResponse, error) {
	token, err := s.createConnectSession(ctx, params.DisplayName, "", params.RoomId)
	if err != nil {
		return JoinRoomSessionResponse{}, err
	}

	return JoinRoomSessionResponse{ConnectToken: token}, nil
}

func (s *service) createConnectSession(ctx context.Context, displayName, episodeRef, roomId string) (string, error) {
	sessionId := uuid.NewString()
	if err := s.roomRepo.SetConnectSession(ctx, &room.SetConnectSessionParams{
		Token:       sessionId,
		DisplayName: displayName,
		EpisodeRef:  episodeRef,
		RoomId:      roomId,
	}); err != nil {
		return "", fmt.Errorf("failed to set connect session: %w", err)
	}

	return s.signConnectToken(sessionId)
}

type ConsumeConnectTokenParams struct {
	ConnectToken string
}

type ConsumeConnectTokenResponse struct {
	DisplayName string
	EpisodeRef  string
	RoomId      string
}

// ConsumeConnectToken verifies the token signature and consumes the
// session it points at. A token admits exactly one websocket upgrade.
func (s *service) ConsumeConnectToken(ctx context.Context, params *ConsumeConnectTokenParams) (ConsumeConnectTokenResponse, error) {
	sessionId, err := s.parseConnectToken(params.ConnectToken)
	if err != nil {
		return ConsumeConnectTokenResponse{}, ErrInvalidToken
	}

	session, err := s.roomRepo.GetConnectSession(ctx, sessionId)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get connect session", "error", err)
		return ConsumeConnectTokenResponse{}, ErrInvalidToken
	}

	return ConsumeConnectTokenResponse{
		DisplayName: session.DisplayName,
		EpisodeRef:  session.EpisodeRef,
		RoomId:      session.RoomId,
	}, nil
}

func (s *service) signConnectToken(sessionId string) (string, error) {
	claims := jwt.MapClaims{
		"session_id": sessionId,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.secret))
}

func (s *service) parseConnectToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	sessionId, ok := claims["session_id"].(string)
	if !ok {
		return "", ErrInvalidToken
	}

	return sessionId, nil
}
