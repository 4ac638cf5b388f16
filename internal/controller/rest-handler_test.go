package controller

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shba007/ntertainer/internal/relay"
	"github.com/shba007/ntertainer/internal/repository/connection/inmemory"
	roomRedis "github.com/shba007/ntertainer/internal/repository/room/redis"
	roomservice "github.com/shba007/ntertainer/internal/service/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMux(t *testing.T) http.Handler {
	t.Helper()
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

	return NewController(service, eventRelay, slog.Default(), nil).GetMux()
}

func postJSON(t *testing.T, mux http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestValidateCreateRoom(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(t, mux, "/api/v1/room/validate/create", map[string]string{
		"display_name": "alice",
		"episode_ref":  "ep-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			ConnectToken string `json:"connect_token"`
			RoomId       string `json:"room_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.ConnectToken)
	assert.NotEmpty(t, resp.Data.RoomId)
}

func TestValidateCreateRoomRejectsBadInput(t *testing.T) {
	mux := newTestMux(t)

	// missing episode_ref
	rec := postJSON(t, mux, "/api/v1/room/validate/create", map[string]string{
		"display_name": "alice",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// display name over the limit
	rec = postJSON(t, mux, "/api/v1/room/validate/create", map[string]string{
		"display_name": strings.Repeat("a", 33),
		"episode_ref":  "ep-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// unknown field
	rec = postJSON(t, mux, "/api/v1/room/validate/create", map[string]string{
		"display_name": "alice",
		"episode_ref":  "ep-1",
		"color":        "fff",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestValidateJoinRoom(t *testing.T) {
	mux := newTestMux(t)

	rec := postJSON(t, mux, "/api/v1/room/some-room/validate/join", map[string]string{
		"display_name": "bob",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			ConnectToken string `json:"connect_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.ConnectToken)
}
