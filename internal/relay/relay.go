// Package relay multiplexes the player, chat, and call topics of every
// room over one addressable channel. Each state-changing event is first
// handed to the room store for acceptance, then fanned out to all other
// subscribers; a new subscriber receives one synthetic snapshot event
// before any live event.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	roomservice "github.com/shba007/ntertainer/internal/service/room"
	"golang.org/x/exp/maps"
)

var ErrRoomNotFound = errors.New("room not found")

type iRoomStore interface {
	AcceptPlayerIntent(context.Context, *roomservice.AcceptPlayerIntentParams) (roomservice.AcceptPlayerIntentResponse, error)
	AppendChatMessage(context.Context, *roomservice.AppendChatMessageParams) (roomservice.AppendChatMessageResponse, error)
	Join(context.Context, *roomservice.JoinParams) (roomservice.JoinResponse, error)
	Leave(context.Context, *roomservice.LeaveParams) (roomservice.LeaveResponse, error)
	ToggleAudio(context.Context, *roomservice.ToggleMediaParams) (roomservice.ToggleMediaResponse, error)
	ToggleVideo(context.Context, *roomservice.ToggleMediaParams) (roomservice.ToggleMediaResponse, error)
	Snapshot(ctx context.Context, roomId string) (roomservice.Snapshot, error)
}

type Config struct {
	// QueueSize bounds each subscriber's delivery queue. A subscriber that
	// falls this far behind is dropped instead of back-pressuring the room.
	QueueSize int
	// SyncInterval is the period of the drift-net full-state broadcast on
	// the player topic. Zero disables it.
	SyncInterval time.Duration
}

type Relay struct {
	store        iRoomStore
	logger       *slog.Logger
	queueSize    int
	syncInterval time.Duration

	mu      sync.Mutex
	rooms   map[string]*roomState
	nextSub uint64
}

type roomState struct {
	// mu serializes acceptance and fan-out for the room, so delivery order
	// matches acceptance order, and snapshot delivery on subscribe cannot
	// race a concurrent publish.
	mu sync.Mutex
	// closed marks a state removed from the relay map; holders that locked
	// a stale pointer must look the room up again.
	closed     bool
	seq        map[Topic]uint64
	subs       map[Topic]map[uint64]*Subscription
	stopSync   context.CancelFunc
	lastActive time.Time
}

func New(store iRoomStore, logger *slog.Logger, cfg *Config) *Relay {
	return &Relay{
		store:        store,
		logger:       logger,
		queueSize:    cfg.QueueSize,
		syncInterval: cfg.SyncInterval,
		rooms:        make(map[string]*roomState),
	}
}

// Subscription is one subscriber's lazy event stream for a single room
// topic. The channel is closed on Close, on room destruction, and when the
// subscriber is dropped for falling behind.
type Subscription struct {
	Topic         Topic
	RoomId        string
	participantId string
	id            uint64
	events        chan Event

	relay     *Relay
	closeOnce sync.Once
}

// Events yields events in acceptance order until the subscription closes.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Close() {
	s.relay.unsubscribe(s)
}

func (r *Relay) room(roomId string) *roomState {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.rooms[roomId]
	if !ok {
		state = &roomState{
			seq:  make(map[Topic]uint64),
			subs: make(map[Topic]map[uint64]*Subscription),
		}
		r.rooms[roomId] = state

		if r.syncInterval > 0 {
			syncCtx, cancel := context.WithCancel(context.Background())
			state.stopSync = cancel
			go r.syncLoop(syncCtx, roomId, state)
		}
	}

	return state
}

// lockRoom returns the room state with its mutex held, looking up again
// past a state torn down between lookup and lock.
func (r *Relay) lockRoom(roomId string) *roomState {
	for {
		state := r.room(roomId)
		state.mu.Lock()
		if !state.closed {
			return state
		}
		state.mu.Unlock()
	}
}

// releaseIfUnused drops a room state that never carried a subscriber or an
// accepted event, so lookups against unknown room ids cannot accumulate
// map entries and sync goroutines. Caller holds state.mu.
func (r *Relay) releaseIfUnused(roomId string, state *roomState) {
	if len(state.seq) > 0 {
		return
	}
	for _, subs := range state.subs {
		if len(subs) > 0 {
			return
		}
	}

	state.closed = true
	if state.stopSync != nil {
		state.stopSync()
	}

	r.mu.Lock()
	if r.rooms[roomId] == state {
		delete(r.rooms, roomId)
	}
	r.mu.Unlock()
}

// Subscribe registers a participant on one topic of a room. The snapshot
// event is queued before the subscription is exposed to publishers, so the
// subscriber never misses the state current at subscribe time.
func (r *Relay) Subscribe(ctx context.Context, roomId string, topic Topic, participantId string) (*Subscription, error) {
	state := r.lockRoom(roomId)
	defer state.mu.Unlock()

	snapshot, err := r.store.Snapshot(ctx, roomId)
	if err != nil {
		r.releaseIfUnused(roomId, state)
		if errors.Is(err, roomservice.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	r.mu.Lock()
	r.nextSub++
	id := r.nextSub
	r.mu.Unlock()

	sub := &Subscription{
		Topic:         topic,
		RoomId:        roomId,
		participantId: participantId,
		id:            id,
		events:        make(chan Event, r.queueSize),
		relay:         r,
	}

	sub.events <- Event{
		RoomId:  roomId,
		Topic:   topic,
		Type:    EventSnapshot,
		Seq:     state.seq[topic],
		Payload: snapshot,
	}

	if state.subs[topic] == nil {
		state.subs[topic] = make(map[uint64]*Subscription)
	}
	state.subs[topic][id] = sub

	return sub, nil
}

func (r *Relay) unsubscribe(sub *Subscription) {
	r.mu.Lock()
	state, ok := r.rooms[sub.RoomId]
	r.mu.Unlock()
	if !ok {
		sub.closeOnce.Do(func() { close(sub.events) })
		return
	}

	state.mu.Lock()
	if subs, ok := state.subs[sub.Topic]; ok {
		delete(subs, sub.id)
	}
	state.mu.Unlock()

	sub.closeOnce.Do(func() { close(sub.events) })
}

// fanOut delivers to every subscriber of the topic except the sender.
// Delivery is non-blocking: a full queue drops the subscriber and closes
// its stream, which the transport layer treats as a dead connection.
// Callers hold state.mu.
func (r *Relay) fanOut(state *roomState, ev Event, senderId string) {
	state.seq[ev.Topic]++
	ev.Seq = state.seq[ev.Topic]

	for id, sub := range state.subs[ev.Topic] {
		if senderId != "" && sub.participantId == senderId {
			continue
		}

		select {
		case sub.events <- ev:
		default:
			delete(state.subs[ev.Topic], id)
			sub.closeOnce.Do(func() { close(sub.events) })
			r.logger.Warn("subscriber dropped: delivery queue full",
				"room_id", ev.RoomId,
				"topic", ev.Topic,
				"participant_id", sub.participantId,
			)
		}
	}
}

// closeRoom tears down every subscription of a destroyed room.
func (r *Relay) closeRoom(roomId string) {
	r.mu.Lock()
	state, ok := r.rooms[roomId]
	if ok {
		delete(r.rooms, roomId)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	state.mu.Lock()
	state.closed = true
	if state.stopSync != nil {
		state.stopSync()
	}
	for _, subs := range state.subs {
		for _, sub := range subs {
			sub.closeOnce.Do(func() { close(sub.events) })
		}
		maps.Clear(subs)
	}
	state.mu.Unlock()
}

// syncLoop periodically rebroadcasts the full snapshot on the player topic
// so any client that drifted (or dropped an event) converges again.
func (r *Relay) syncLoop(ctx context.Context, roomId string, state *roomState) {
	ticker := time.NewTicker(r.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state.mu.Lock()
			if len(state.subs[TopicPlayer]) == 0 {
				state.mu.Unlock()
				continue
			}

			snapshot, err := r.store.Snapshot(ctx, roomId)
			if err != nil {
				state.mu.Unlock()
				if errors.Is(err, roomservice.ErrRoomNotFound) {
					// Idle grace expired underneath us.
					r.closeRoom(roomId)
					return
				}
				r.logger.Warn("sync snapshot failed", "room_id", roomId, "error", err)
				continue
			}

			r.fanOut(state, Event{
				RoomId:  roomId,
				Topic:   TopicPlayer,
				Type:    EventSync,
				Payload: snapshot,
			}, "")
			state.mu.Unlock()
		}
	}
}
