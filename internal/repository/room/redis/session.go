package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/shba007/ntertainer/internal/repository/room"
)

// Connect sessions live only long enough to bridge the REST validation
// request and the websocket upgrade that follows it.
const connectSessionExpire = 2 * time.Minute

func (r repo) getConnectSessionKey(token string) string {
	return "session:" + token
}

func (r repo) SetConnectSession(ctx context.Context, params *room.SetConnectSessionParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	session := room.ConnectSession{
		DisplayName: params.DisplayName,
		EpisodeRef:  params.EpisodeRef,
		RoomId:      params.RoomId,
	}

	sessionKey := r.getConnectSessionKey(params.Token)

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, sessionKey, session)
	pipe.Expire(ctx, sessionKey, connectSessionExpire)

	if err := r.executePipe(ctx, pipe); err != nil {
		return fmt.Errorf("failed to set connect session: %w", err)
	}

	return nil
}

// GetConnectSession consumes the session: a token authorizes exactly one
// websocket upgrade. Read and delete run in one transaction, so concurrent
// consumers of the same token cannot both succeed.
func (r repo) GetConnectSession(ctx context.Context, token string) (room.ConnectSession, error) {
	sessionKey := r.getConnectSessionKey(token)

	pipe := r.rc.TxPipeline()
	getCmd := pipe.HGetAll(ctx, sessionKey)
	pipe.Del(ctx, sessionKey)

	if err := r.executePipe(ctx, pipe); err != nil {
		return room.ConnectSession{}, fmt.Errorf("failed to get connect session: %w", err)
	}

	if len(getCmd.Val()) == 0 {
		return room.ConnectSession{}, room.ErrSessionNotFound
	}

	var session room.ConnectSession
	if err := getCmd.Scan(&session); err != nil {
		return room.ConnectSession{}, fmt.Errorf("failed to get connect session: %w", err)
	}

	return session, nil
}
