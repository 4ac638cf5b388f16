package app

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shba007/ntertainer/internal/relay"
	"github.com/shba007/ntertainer/internal/repository/connection/inmemory"
	roomRedis "github.com/shba007/ntertainer/internal/repository/room/redis"
	roomservice "github.com/shba007/ntertainer/internal/service/room"
	"github.com/shba007/ntertainer/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchTogetherFlow(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	roomRepo := roomRedis.NewRepo(rc, slog.Default(), 10*time.Minute)
	connRepo := inmemory.NewRepo(slog.Default())
	service := roomservice.NewService(roomRepo, connRepo, slog.Default(), &roomservice.Config{
		Secret:      "test-secret",
		ChatTailLen: 50,
	})
	eventRelay := relay.New(service, slog.Default(), &relay.Config{QueueSize: 16})

	ctx := context.Background()

	// creator validates and receives a connect token
	createResp, err := service.CreateRoomSession(ctx, &roomservice.CreateRoomSessionParams{
		DisplayName: "alice",
		EpisodeRef:  "ep-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, createResp.ConnectToken)
	require.NotEmpty(t, createResp.RoomId)
	roomId := createResp.RoomId

	consumeResp, err := service.ConsumeConnectToken(ctx, &roomservice.ConsumeConnectTokenParams{
		ConnectToken: createResp.ConnectToken,
	})
	require.NoError(t, err)
	assert.Equal(t, roomId, consumeResp.RoomId)
	assert.Equal(t, "ep-1", consumeResp.EpisodeRef)

	// creator joins, which creates the room
	joinResp, err := eventRelay.PublishJoin(ctx, &roomservice.JoinParams{
		ParticipantId: "p1",
		DisplayName:   consumeResp.DisplayName,
		EpisodeRef:    consumeResp.EpisodeRef,
		RoomId:        roomId,
	})
	require.NoError(t, err)
	assert.True(t, joinResp.RoomCreated)
	t.Log("room created")

	// second participant validates, joins, subscribes
	joinSessionResp, err := service.JoinRoomSession(ctx, &roomservice.JoinRoomSessionParams{
		DisplayName: "bob",
		RoomId:      roomId,
	})
	require.NoError(t, err)
	consume2Resp, err := service.ConsumeConnectToken(ctx, &roomservice.ConsumeConnectTokenParams{
		ConnectToken: joinSessionResp.ConnectToken,
	})
	require.NoError(t, err)

	join2Resp, err := eventRelay.PublishJoin(ctx, &roomservice.JoinParams{
		ParticipantId: "p2",
		DisplayName:   consume2Resp.DisplayName,
		RoomId:        roomId,
	})
	require.NoError(t, err)
	assert.False(t, join2Resp.RoomCreated)
	assert.Len(t, join2Resp.Roster, 2)

	playerSub, err := eventRelay.Subscribe(ctx, roomId, relay.TopicPlayer, "p2")
	require.NoError(t, err)
	chatSub, err := eventRelay.Subscribe(ctx, roomId, relay.TopicChat, "p2")
	require.NoError(t, err)
	t.Log("second participant joined")

	// both subscriptions start from a snapshot
	snapshotEv := <-playerSub.Events()
	assert.Equal(t, relay.EventSnapshot, snapshotEv.Type)
	snapshot := snapshotEv.Payload.(roomservice.Snapshot)
	assert.Equal(t, timeline.NewModel("ep-1"), snapshot.Timeline)
	<-chatSub.Events()

	// creator starts playback; the other side receives the accepted model
	accepted, err := eventRelay.PublishPlayerIntent(ctx, roomId, "p1", timeline.Intent{Kind: timeline.IntentPlay})
	require.NoError(t, err)
	assert.Equal(t, timeline.PlaybackPlaying, accepted.Playback)

	playerEv := <-playerSub.Events()
	assert.Equal(t, relay.EventPlayerUpdated, playerEv.Type)
	payload := playerEv.Payload.(relay.PlayerUpdatedPayload)
	assert.Equal(t, accepted, payload.Timeline)
	t.Log("playback started")

	// chat flows on its own topic
	message, err := eventRelay.PublishChatMessage(ctx, roomId, "p1", "ready?")
	require.NoError(t, err)
	chatEv := <-chatSub.Events()
	assert.Equal(t, relay.EventChatMessage, chatEv.Type)
	assert.Equal(t, message, chatEv.Payload.(roomservice.ChatMessage))

	// everyone leaves, the room is destroyed, streams close
	err = eventRelay.PublishLeave(ctx, &roomservice.LeaveParams{ParticipantId: "p1", RoomId: roomId})
	require.NoError(t, err)
	err = eventRelay.PublishLeave(ctx, &roomservice.LeaveParams{ParticipantId: "p2", RoomId: roomId})
	require.NoError(t, err)

	for {
		if _, ok := <-playerSub.Events(); !ok {
			break
		}
	}

	_, err = service.Snapshot(ctx, roomId)
	assert.ErrorIs(t, err, roomservice.ErrRoomNotFound)
	t.Log("room deleted")
}

func TestAppConfigValidate(t *testing.T) {
	cfg := AppConfig{
		Secret:        "secret",
		Host:          "0.0.0.0",
		Port:          8080,
		LogLevel:      "info",
		ChatTailLen:   50,
		QueueSize:     16,
		SyncInterval:  5,
		RoomIdleGrace: 600,
		RedisHost:     "localhost",
		RedisPort:     6379,
	}
	require.NoError(t, cfg.Validate())

	missingSecret := cfg
	missingSecret.Secret = ""
	assert.Error(t, missingSecret.Validate())

	zeroQueue := cfg
	zeroQueue.QueueSize = 0
	assert.Error(t, zeroQueue.Validate())

	zeroTail := cfg
	zeroTail.ChatTailLen = 0
	assert.Error(t, zeroTail.Validate())
}
