package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shba007/ntertainer/internal/relay"
	roomservice "github.com/shba007/ntertainer/internal/service/room"
	"github.com/shba007/ntertainer/internal/session"
	"github.com/shba007/ntertainer/internal/timeline"
	"github.com/shba007/ntertainer/pkg/wsrouter"
)

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	c.serveParticipant(w, r, "")
}

func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	c.serveParticipant(w, r, chi.URLParam(r, "room-id"))
}

// serveParticipant owns one participant connection end to end: consume the
// connect token, upgrade, join the room, subscribe to the three topics,
// then run the read loop until the connection dies.
func (c controller) serveParticipant(w http.ResponseWriter, r *http.Request, urlRoomId string) {
	ctx := r.Context()

	sess, err := c.roomService.ConsumeConnectToken(ctx, &roomservice.ConsumeConnectTokenParams{
		ConnectToken: r.URL.Query().Get("connect-token"),
	})
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	roomId := sess.RoomId
	if urlRoomId != "" && urlRoomId != roomId {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.InfoContext(ctx, "failed to upgrade connection", "error", err)
		return
	}

	participantId := uuid.NewString()

	if _, err := c.relay.PublishJoin(ctx, &roomservice.JoinParams{
		ParticipantId: participantId,
		DisplayName:   sess.DisplayName,
		EpisodeRef:    sess.EpisodeRef,
		RoomId:        roomId,
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to join room", "error", err)
		conn.Close()
		return
	}

	if err := c.roomService.ConnectParticipant(ctx, &roomservice.ConnectParticipantParams{
		Conn:          conn,
		ParticipantId: participantId,
	}); err != nil {
		conn.Close()
		return
	}

	writer := newConnWriter(conn)

	subs := make([]*relay.Subscription, 0, 3)
	for _, topic := range []relay.Topic{relay.TopicPlayer, relay.TopicChat, relay.TopicCall} {
		sub, err := c.relay.Subscribe(ctx, roomId, topic, participantId)
		if err != nil {
			c.logger.InfoContext(ctx, "failed to subscribe", "topic", topic, "error", err)
			c.teardown(ctx, conn, subs, roomId, participantId)
			return
		}

		subs = append(subs, sub)
		go c.forward(sub, writer, conn)
	}

	writer.WriteJSON(Output{
		Type: "connected",
		Payload: map[string]any{
			"participant_id": participantId,
			"room_id":        roomId,
		},
	})

	connCtx := context.WithValue(context.Background(), roomIdCtxKey, roomId)
	connCtx = context.WithValue(connCtx, participantIdCtxKey, participantId)

	mediaSession := session.NewManager(c.newStream())

	router := c.buildWSRouter(writer, mediaSession)
	if err := router.ServeConn(connCtx, conn); err != nil {
		c.logger.DebugContext(connCtx, "connection closed", "error", err)
	}

	c.teardown(connCtx, conn, subs, roomId, participantId)
}

// teardown cancels the subscriptions, announces the leave, and releases
// the connection. A leave already lost to room destruction is fine.
func (c controller) teardown(ctx context.Context, conn *websocket.Conn, subs []*relay.Subscription, roomId, participantId string) {
	for _, sub := range subs {
		sub.Close()
	}

	if err := c.relay.PublishLeave(ctx, &roomservice.LeaveParams{
		ParticipantId: participantId,
		RoomId:        roomId,
	}); err != nil {
		c.logger.DebugContext(ctx, "failed to publish leave", "error", err)
	}

	if err := c.roomService.DisconnectParticipant(ctx, &roomservice.DisconnectParticipantParams{
		ParticipantId: participantId,
	}); err != nil {
		conn.Close()
	}
}

func (c controller) buildWSRouter(writer *connWriter, mediaSession *session.Manager) *wsrouter.WSRouter {
	router := wsrouter.New()
	router.Use(c.wsRequestIdMw())
	router.Use(c.wsLoggerMw())
	router.OnError(func(ctx context.Context, conn *websocket.Conn, err error) {
		c.logger.InfoContext(ctx, "websocket handler error", "error", err)
		writer.WriteJSON(Output{
			Type:    "error",
			Payload: map[string]any{"message": err.Error()},
		})
	})

	wsrouter.Handle(router, "alive", c.handleAlive)
	wsrouter.Handle(router, "player_intent", c.handlePlayerIntent(writer))
	wsrouter.Handle(router, "chat_message", c.handleChatMessage(writer))
	wsrouter.Handle(router, "toggle_audio", c.handleToggleAudio(writer, mediaSession))
	wsrouter.Handle(router, "toggle_video", c.handleToggleVideo(writer, mediaSession))

	return router
}

type emptyInput struct{}

func (c controller) handleAlive(_ context.Context, _ *websocket.Conn, _ emptyInput) error {
	return nil
}

// handlePlayerIntent submits the sender's intent; the accepted model goes
// back to the sender as its reconciliation ack while the relay fans the
// event out to everyone else.
func (c controller) handlePlayerIntent(writer *connWriter) wsrouter.HandlerFunc[timeline.Intent] {
	return func(ctx context.Context, _ *websocket.Conn, intent timeline.Intent) error {
		roomId := c.getRoomIdFromCtx(ctx)
		participantId := c.getParticipantIdFromCtx(ctx)

		accepted, err := c.relay.PublishPlayerIntent(ctx, roomId, participantId, intent)
		if err != nil {
			return fmt.Errorf("failed to publish player intent: %w", err)
		}

		return writer.WriteJSON(Output{
			Type:    "player_accepted",
			Payload: accepted,
		})
	}
}

type chatMessageInput struct {
	Text string `json:"text"`
}

func (c controller) handleChatMessage(writer *connWriter) wsrouter.HandlerFunc[chatMessageInput] {
	return func(ctx context.Context, _ *websocket.Conn, input chatMessageInput) error {
		roomId := c.getRoomIdFromCtx(ctx)
		participantId := c.getParticipantIdFromCtx(ctx)

		message, err := c.relay.PublishChatMessage(ctx, roomId, participantId, input.Text)
		if err != nil {
			return fmt.Errorf("failed to publish chat message: %w", err)
		}

		return writer.WriteJSON(Output{
			Type:    "chat_accepted",
			Payload: message,
		})
	}
}

type toggleMediaInput struct {
	Enabled bool `json:"enabled"`
}

// handleToggleAudio flips the local capture stream first; only when stream
// and flag changed together does the roster update go out.
func (c controller) handleToggleAudio(writer *connWriter, mediaSession *session.Manager) wsrouter.HandlerFunc[toggleMediaInput] {
	return func(ctx context.Context, _ *websocket.Conn, input toggleMediaInput) error {
		roomId := c.getRoomIdFromCtx(ctx)
		participantId := c.getParticipantIdFromCtx(ctx)

		enabled, err := mediaSession.SetAudio(input.Enabled)
		if err != nil {
			return fmt.Errorf("failed to toggle audio stream: %w", err)
		}

		participant, err := c.relay.PublishToggleAudio(ctx, &roomservice.ToggleMediaParams{
			ParticipantId: participantId,
			RoomId:        roomId,
			Enabled:       enabled,
		})
		if err != nil {
			return fmt.Errorf("failed to publish audio toggle: %w", err)
		}

		return writer.WriteJSON(Output{
			Type:    "audio_toggled",
			Payload: participant,
		})
	}
}

func (c controller) handleToggleVideo(writer *connWriter, mediaSession *session.Manager) wsrouter.HandlerFunc[toggleMediaInput] {
	return func(ctx context.Context, _ *websocket.Conn, input toggleMediaInput) error {
		roomId := c.getRoomIdFromCtx(ctx)
		participantId := c.getParticipantIdFromCtx(ctx)

		enabled, err := mediaSession.SetVideo(input.Enabled)
		if err != nil {
			return fmt.Errorf("failed to toggle video stream: %w", err)
		}

		participant, err := c.relay.PublishToggleVideo(ctx, &roomservice.ToggleMediaParams{
			ParticipantId: participantId,
			RoomId:        roomId,
			Enabled:       enabled,
		})
		if err != nil {
			return fmt.Errorf("failed to publish video toggle: %w", err)
		}

		return writer.WriteJSON(Output{
			Type:    "video_toggled",
			Payload: participant,
		})
	}
}
