package room

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shba007/ntertainer/internal/repository/connection/inmemory"
	roomRedis "github.com/shba007/ntertainer/internal/repository/room/redis"
	"github.com/shba007/ntertainer/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *service {
	t.Helper()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	roomRepo := roomRedis.NewRepo(rc, slog.Default(), 10*time.Minute)
	connRepo := inmemory.NewRepo(slog.Default())

	return NewService(roomRepo, connRepo, slog.Default(), &Config{
		Secret:      "test-secret",
		ChatTailLen: 50,
	})
}

// fixedClock returns a clock pinned to base that advances only when the
// test calls tick.
func fixedClock(base time.Time) (now func() time.Time, tick func(d time.Duration)) {
	current := base
	return func() time.Time { return current },
		func(d time.Duration) { current = current.Add(d) }
}

func TestJoinCreatesRoom(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	joinResp, err := service.Join(ctx, &JoinParams{
		ParticipantId: "p1",
		DisplayName:   "alice",
		EpisodeRef:    "ep-1",
		RoomId:        "room-1",
	})
	require.NoError(t, err)
	assert.True(t, joinResp.RoomCreated)
	assert.Equal(t, "p1", joinResp.JoinedParticipant.Id)
	assert.Equal(t, "alice", joinResp.JoinedParticipant.DisplayName)
	require.Len(t, joinResp.Roster, 1)

	// a fresh room starts paused at zero with the buffer loading
	snapshot, err := service.Snapshot(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, timeline.NewModel("ep-1"), snapshot.Timeline)
	assert.Equal(t, 0.0, snapshot.Timeline.Position(timeline.Seconds(time.Now())))
	assert.Empty(t, snapshot.Chat)

	// second join does not recreate the room
	joinResp2, err := service.Join(ctx, &JoinParams{
		ParticipantId: "p2",
		DisplayName:   "bob",
		RoomId:        "room-1",
	})
	require.NoError(t, err)
	assert.False(t, joinResp2.RoomCreated)
	require.Len(t, joinResp2.Roster, 2)
	// join order preserved
	assert.Equal(t, "p1", joinResp2.Roster[0].Id)
	assert.Equal(t, "p2", joinResp2.Roster[1].Id)
}

func TestAcceptPlayerIntentUsesServiceClock(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	base := time.Unix(1_700_000_000, 0)
	now, tick := fixedClock(base)
	service.SetClock(now)

	_, err := service.Join(ctx, &JoinParams{
		ParticipantId: "p1",
		DisplayName:   "alice",
		EpisodeRef:    "ep-1",
		RoomId:        "room-1",
	})
	require.NoError(t, err)

	// play 5s in
	tick(5 * time.Second)
	playResp, err := service.AcceptPlayerIntent(ctx, &AcceptPlayerIntentParams{
		Intent:   timeline.Intent{Kind: timeline.IntentPlay},
		SenderId: "p1",
		RoomId:   "room-1",
	})
	require.NoError(t, err)
	assert.Equal(t, timeline.PlaybackPlaying, playResp.Timeline.Playback)
	assert.Equal(t, 0.0, playResp.Timeline.SeekTime)
	assert.Equal(t, timeline.Seconds(base.Add(5*time.Second)), playResp.Timeline.Timestamp)

	// ten seconds of playback elapse
	tick(10 * time.Second)
	assert.InDelta(t, 10.0, playResp.Timeline.Position(timeline.Seconds(now())), 1e-9)

	// seek to 50
	tick(5 * time.Second)
	seekResp, err := service.AcceptPlayerIntent(ctx, &AcceptPlayerIntentParams{
		Intent:   timeline.Intent{Kind: timeline.IntentSeek, SeekTo: 50},
		SenderId: "p1",
		RoomId:   "room-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, seekResp.Timeline.SeekTime)
	assert.Equal(t, timeline.PlaybackPlaying, seekResp.Timeline.Playback)

	tick(5 * time.Second)
	assert.InDelta(t, 55.0, seekResp.Timeline.Position(timeline.Seconds(now())), 1e-9)

	// the stored timeline matches the last accepted model
	snapshot, err := service.Snapshot(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, seekResp.Timeline, snapshot.Timeline)
}

func TestAcceptPlayerIntentUnknownRoom(t *testing.T) {
	service := newTestService(t)

	_, err := service.AcceptPlayerIntent(context.Background(), &AcceptPlayerIntentParams{
		Intent:   timeline.Intent{Kind: timeline.IntentPlay},
		SenderId: "p1",
		RoomId:   "no-such-room",
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestAcceptPlayerIntentRejectsInvalidIntent(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.Join(ctx, &JoinParams{
		ParticipantId: "p1",
		DisplayName:   "alice",
		EpisodeRef:    "ep-1",
		RoomId:        "room-1",
	})
	require.NoError(t, err)

	_, err = service.AcceptPlayerIntent(ctx, &AcceptPlayerIntentParams{
		Intent:   timeline.Intent{Kind: timeline.IntentSetRate, Rate: -1},
		SenderId: "p1",
		RoomId:   "room-1",
	})
	assert.ErrorIs(t, err, timeline.ErrInvalidIntent)
}

func TestChatTail(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	service.chatTailLen = 3

	_, err := service.Join(ctx, &JoinParams{
		ParticipantId: "p1",
		DisplayName:   "alice",
		EpisodeRef:    "ep-1",
		RoomId:        "room-1",
	})
	require.NoError(t, err)

	texts := []string{"one", "two", "three", "four", "five"}
	for _, text := range texts {
		resp, err := service.AppendChatMessage(ctx, &AppendChatMessageParams{
			Text:     text,
			SenderId: "p1",
			RoomId:   "room-1",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Message.Id)
		assert.Equal(t, text, resp.Message.Text)
	}

	// snapshot carries only the trailing messages, oldest first
	snapshot, err := service.Snapshot(ctx, "room-1")
	require.NoError(t, err)
	require.Len(t, snapshot.Chat, 3)
	assert.Equal(t, "three", snapshot.Chat[0].Text)
	assert.Equal(t, "four", snapshot.Chat[1].Text)
	assert.Equal(t, "five", snapshot.Chat[2].Text)
}

func TestChatUnknownRoom(t *testing.T) {
	service := newTestService(t)

	_, err := service.AppendChatMessage(context.Background(), &AppendChatMessageParams{
		Text:     "hello",
		SenderId: "p1",
		RoomId:   "no-such-room",
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestToggleAudioVideo(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.Join(ctx, &JoinParams{
		ParticipantId: "p1",
		DisplayName:   "alice",
		EpisodeRef:    "ep-1",
		RoomId:        "room-1",
	})
	require.NoError(t, err)

	audioResp, err := service.ToggleAudio(ctx, &ToggleMediaParams{
		ParticipantId: "p1",
		RoomId:        "room-1",
		Enabled:       true,
	})
	require.NoError(t, err)
	assert.True(t, audioResp.Participant.AudioEnabled)
	assert.False(t, audioResp.Participant.VideoEnabled)

	videoResp, err := service.ToggleVideo(ctx, &ToggleMediaParams{
		ParticipantId: "p1",
		RoomId:        "room-1",
		Enabled:       true,
	})
	require.NoError(t, err)
	assert.True(t, videoResp.Participant.AudioEnabled)
	assert.True(t, videoResp.Participant.VideoEnabled)

	audioResp, err = service.ToggleAudio(ctx, &ToggleMediaParams{
		ParticipantId: "p1",
		RoomId:        "room-1",
		Enabled:       false,
	})
	require.NoError(t, err)
	assert.False(t, audioResp.Participant.AudioEnabled)
	assert.True(t, audioResp.Participant.VideoEnabled)
}

func TestLeaveDeletesEmptyRoom(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	for _, p := range []struct{ id, name string }{
		{"p1", "alice"},
		{"p2", "bob"},
	} {
		_, err := service.Join(ctx, &JoinParams{
			ParticipantId: p.id,
			DisplayName:   p.name,
			EpisodeRef:    "ep-1",
			RoomId:        "room-1",
		})
		require.NoError(t, err)
	}

	leaveResp, err := service.Leave(ctx, &LeaveParams{
		ParticipantId: "p1",
		RoomId:        "room-1",
	})
	require.NoError(t, err)
	assert.False(t, leaveResp.RoomDeleted)
	require.Len(t, leaveResp.Roster, 1)
	assert.Equal(t, "p2", leaveResp.Roster[0].Id)

	leaveResp, err = service.Leave(ctx, &LeaveParams{
		ParticipantId: "p2",
		RoomId:        "room-1",
	})
	require.NoError(t, err)
	assert.True(t, leaveResp.RoomDeleted)

	_, err = service.Snapshot(ctx, "room-1")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestLeaveUnknownRoom(t *testing.T) {
	service := newTestService(t)

	_, err := service.Leave(context.Background(), &LeaveParams{
		ParticipantId: "p1",
		RoomId:        "no-such-room",
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestConnectTokenRoundTrip(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	createResp, err := service.CreateRoomSession(ctx, &CreateRoomSessionParams{
		DisplayName: "alice",
		EpisodeRef:  "ep-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, createResp.ConnectToken)
	assert.NotEmpty(t, createResp.RoomId)

	consumeResp, err := service.ConsumeConnectToken(ctx, &ConsumeConnectTokenParams{
		ConnectToken: createResp.ConnectToken,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", consumeResp.DisplayName)
	assert.Equal(t, "ep-1", consumeResp.EpisodeRef)
	assert.Equal(t, createResp.RoomId, consumeResp.RoomId)

	// tokens are one-shot
	_, err = service.ConsumeConnectToken(ctx, &ConsumeConnectTokenParams{
		ConnectToken: createResp.ConnectToken,
	})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestConsumeConnectTokenRejectsForgery(t *testing.T) {
	service := newTestService(t)

	_, err := service.ConsumeConnectToken(context.Background(), &ConsumeConnectTokenParams{
		ConnectToken: "not-a-token",
	})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
