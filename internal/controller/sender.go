package controller

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/shba007/ntertainer/internal/relay"
)

// Output is a server-to-client message outside the relay event stream
// (acks and errors addressed to one connection).
type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// connWriter serializes writes to one websocket connection; gorilla allows
// a single concurrent writer and we have one pump per topic plus acks.
type connWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newConnWriter(conn *websocket.Conn) *connWriter {
	return &connWriter{conn: conn}
}

func (w *connWriter) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

// forward pumps one subscription into the connection. A closed stream
// (room destroyed, or this subscriber dropped for falling behind) closes
// the connection, which unwinds the read loop.
func (c controller) forward(sub *relay.Subscription, writer *connWriter, conn *websocket.Conn) {
	for ev := range sub.Events() {
		if err := writer.WriteJSON(ev); err != nil {
			conn.Close()
			return
		}
	}

	conn.Close()
}
