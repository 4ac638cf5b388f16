package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shba007/ntertainer/internal/repository/room"
	"github.com/shba007/ntertainer/internal/timeline"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrInvalidToken = errors.New("invalid connect token")
)

type iRoomRepo interface {
	// timeline
	SetTimeline(context.Context, *room.SetTimelineParams) error
	GetTimeline(ctx context.Context, roomId string) (timeline.Model, error)
	UpdateTimeline(context.Context, *room.UpdateTimelineParams) error
	RemoveTimeline(ctx context.Context, roomId string) error
	RoomExists(ctx context.Context, roomId string) (bool, error)
	// participant
	SetParticipant(context.Context, *room.SetParticipantParams) error
	GetParticipant(context.Context, *room.GetParticipantParams) (room.Participant, error)
	GetParticipantIds(ctx context.Context, roomId string) ([]string, error)
	RemoveParticipant(context.Context, *room.RemoveParticipantParams) error
	UpdateParticipantAudio(context.Context, *room.UpdateParticipantAudioParams) error
	UpdateParticipantVideo(context.Context, *room.UpdateParticipantVideoParams) error
	RemoveRoster(ctx context.Context, roomId string) error
	// chat
	AppendChatMessage(context.Context, *room.AppendChatMessageParams) error
	GetChatTail(context.Context, *room.GetChatTailParams) ([]room.ChatMessage, error)
	RemoveChat(ctx context.Context, roomId string) error
	// connect session
	SetConnectSession(context.Context, *room.SetConnectSessionParams) error
	GetConnectSession(ctx context.Context, token string) (room.ConnectSession, error)
}

type iConnRepo interface {
	Add(conn *websocket.Conn, participantId string) error
	RemoveByParticipantId(participantId string) (*websocket.Conn, error)
	RemoveByConn(conn *websocket.Conn) (string, error)
	GetParticipantId(conn *websocket.Conn) (string, error)
	GetConn(participantId string) (*websocket.Conn, error)
}

type Config struct {
	Secret      string
	ChatTailLen int
}

// service is the authority for room state. Every mutation to one room runs
// under that room's lock, so concurrent intents are serialized into a
// single ordered sequence of accepted transitions; distinct rooms proceed
// independently.
type service struct {
	roomRepo    iRoomRepo
	connRepo    iConnRepo
	logger      *slog.Logger
	secret      string
	chatTailLen int
	now         func() time.Time

	mu        sync.Mutex
	roomLocks map[string]*sync.Mutex
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, logger *slog.Logger, cfg *Config) *service {
	return &service{
		roomRepo:    roomRepo,
		connRepo:    connRepo,
		logger:      logger,
		secret:      cfg.Secret,
		chatTailLen: cfg.ChatTailLen,
		now:         time.Now,
		roomLocks:   make(map[string]*sync.Mutex),
	}
}

// SetClock replaces the store's wall-clock source. Test seam.
func (s *service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *service) roomLock(roomId string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.roomLocks[roomId]
	if !ok {
		lock = &sync.Mutex{}
		s.roomLocks[roomId] = lock
	}

	return lock
}

func (s *service) releaseRoomLock(roomId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roomLocks, roomId)
}
