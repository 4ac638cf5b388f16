package controller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shba007/ntertainer/internal/relay"
	roomservice "github.com/shba007/ntertainer/internal/service/room"
	"github.com/shba007/ntertainer/internal/session"
	"github.com/shba007/ntertainer/internal/timeline"
	"github.com/shba007/ntertainer/pkg/validator"
)

type iRoomService interface {
	CreateRoomSession(context.Context, *roomservice.CreateRoomSessionParams) (roomservice.CreateRoomSessionResponse, error)
	JoinRoomSession(context.Context, *roomservice.JoinRoomSessionParams) (roomservice.JoinRoomSessionResponse, error)
	ConsumeConnectToken(context.Context, *roomservice.ConsumeConnectTokenParams) (roomservice.ConsumeConnectTokenResponse, error)
	ConnectParticipant(context.Context, *roomservice.ConnectParticipantParams) error
	DisconnectParticipant(context.Context, *roomservice.DisconnectParticipantParams) error
}

type iRelay interface {
	Subscribe(ctx context.Context, roomId string, topic relay.Topic, participantId string) (*relay.Subscription, error)
	PublishPlayerIntent(ctx context.Context, roomId, senderId string, intent timeline.Intent) (timeline.Model, error)
	PublishChatMessage(ctx context.Context, roomId, senderId, text string) (roomservice.ChatMessage, error)
	PublishJoin(context.Context, *roomservice.JoinParams) (roomservice.JoinResponse, error)
	PublishLeave(context.Context, *roomservice.LeaveParams) error
	PublishToggleAudio(context.Context, *roomservice.ToggleMediaParams) (roomservice.Participant, error)
	PublishToggleVideo(context.Context, *roomservice.ToggleMediaParams) (roomservice.Participant, error)
}

// StreamFactory builds the capture stream backing one participant's media
// toggles. The default signaling-only stream has no devices behind it.
type StreamFactory func() session.CaptureStream

type controller struct {
	roomService iRoomService
	relay       iRelay
	logger      *slog.Logger
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	newStream   StreamFactory
}

func NewController(roomService iRoomService, eventRelay iRelay, logger *slog.Logger, newStream StreamFactory) *controller {
	if newStream == nil {
		newStream = func() session.CaptureStream { return session.NewNullStream() }
	}

	return &controller{
		roomService: roomService,
		relay:       eventRelay,
		logger:      logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate:  validator.NewValidator(),
		newStream: newStream,
	}
}

func (c controller) generateTimeBasedId() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
