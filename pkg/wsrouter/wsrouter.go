// Package wsrouter routes typed JSON messages on a websocket connection,
// with a small middleware chain around every handler.
package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

// ErrUnknownMessageType is handed to the OnError handler when a message
// names no registered route.
var ErrUnknownMessageType = errors.New("unknown message type")

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc[T any] func(ctx context.Context, conn *websocket.Conn, payload T) error

type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

type WSRouter struct {
	routes      map[string]HandlerFunc[json.RawMessage]
	middlewares []Middleware
	onError     func(ctx context.Context, conn *websocket.Conn, err error)
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc[json.RawMessage])}
}

func (r *WSRouter) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

// OnError installs the handler invoked when a route returns an error.
func (r *WSRouter) OnError(f func(ctx context.Context, conn *websocket.Conn, err error)) {
	r.onError = f
}

// Handle registers a handler for one message type. The payload is decoded
// into T before the middleware chain runs.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	chain := func(ctx context.Context, conn *websocket.Conn, payload any) error {
		typed, ok := payload.(T)
		if !ok {
			return fmt.Errorf("unexpected payload type for %q", messageType)
		}
		return handler(ctx, conn, typed)
	}
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		chain = r.middlewares[i](chain)
	}

	r.routes[messageType] = func(ctx context.Context, conn *websocket.Conn, raw json.RawMessage) error {
		var payload T
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("failed to decode %q payload: %w", messageType, err)
			}
		}
		return chain(ctx, conn, payload)
	}
}

// ServeConn reads messages until the connection errors and dispatches each
// to its route. Route errors and unknown message types go to the OnError
// handler; the router never writes to the connection itself, so the caller
// keeps a single serialized writer. Read errors end the loop and are
// returned.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)

		route, exists := r.routes[msg.Type]
		if !exists {
			if r.onError != nil {
				r.onError(msgCtx, conn, ErrUnknownMessageType)
			}
			continue
		}

		if err := route(msgCtx, conn, msg.Payload); err != nil && r.onError != nil {
			r.onError(msgCtx, conn, err)
		}
	}
}
