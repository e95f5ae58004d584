package gateway

import (
	"context"
	"cube-race/contract"
	"cube-race/domain"
	"cube-race/domain/event"
	"cube-race/errors"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

const (
	messageCommand   = "command"
	messageSubscribe = "subscribe"
	messageEvent     = "event"
)

// ClientMessage is read from a websocket. A subscribe message starts
// streaming a room's events, a command message acts on it.
type ClientMessage struct {
	Type string `json:"type"`
	CommandRequest
}

type ServerMessage struct {
	Type  string           `json:"type"`
	Event *event.RoomEvent `json:"event,omitempty"`
}

var _ contract.EventSink = (*session)(nil)

// session is one websocket connection. Everything written to the socket
// goes through out, drained by a single writer.
type session struct {
	id      string
	who     Identity
	conn    *websocket.Conn
	out     chan []byte
	done    chan struct{}
	limiter *rate.Limiter
	gateway *Gateway
	log     *slog.Logger

	// mu orders subscriptions against closing, a late JOIN result must not
	// register a session that is already gone.
	mu     sync.Mutex
	closed bool
}

func (g *Gateway) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("Websocket upgrade failed", "error", err)
		return
	}
	s := &session{
		id:      uuid.NewString(),
		who:     identityOf(r),
		conn:    conn,
		out:     make(chan []byte, g.cfg.OutputBufferSize),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(rate.Limit(g.cfg.CommandsPerSecond), g.cfg.CommandBurst),
		gateway: g,
	}
	s.log = g.log.With("session_id", s.id, "user_id", s.who.UserID)
	s.log.Debug("Websocket connected")

	ctx, cancel := context.WithCancel(context.Background())
	go s.writeLoop(ctx)
	if roomID := r.URL.Query().Get("roomId"); roomID != "" {
		if err = s.checkSubscribe(roomID, ""); err != nil {
			s.ack(ackOf("", event.CommandResultPayload{}, err))
		} else {
			s.subscribe(roomID)
		}
	}
	s.readLoop(ctx)
	cancel()
}

// Consume queues an event for the socket. A full buffer drops it rather
// than stall the fanout of the whole node.
func (s *session) Consume(ctx context.Context, e event.RoomEvent) error {
	data, err := json.Marshal(ServerMessage{Type: messageEvent, Event: &e})
	if err != nil {
		return err
	}
	if e.Name == event.RoomDeleted || (e.Target == s.who.UserID &&
		(e.Name == event.UserKicked || e.Name == event.UserBanned)) {
		defer s.gateway.deps.Registry.Unsubscribe(s.id)
	}
	select {
	case s.out <- data:
		return nil
	case <-s.done:
		return fmt.Errorf("session %s closed", s.id)
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("session %s output buffer full", s.id)
	}
}

func (s *session) readLoop(ctx context.Context) {
	defer func() {
		s.shutdown()
		_ = s.conn.Close()
		s.log.Debug("Websocket disconnected")
	}()
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("Websocket read failed", "error", err)
			}
			return
		}
		var msg ClientMessage
		if err = json.Unmarshal(raw, &msg); err != nil {
			s.ack(Ack{Type: ackType, Error: fmt.Sprintf("%v: %v", errors.ErrInvalidArgs, err)})
			continue
		}
		switch msg.Type {
		case messageSubscribe:
			if err = s.checkSubscribe(msg.RoomID, msg.Password); err != nil {
				s.ack(ackOf(msg.CorrelationID, event.CommandResultPayload{}, err))
				continue
			}
			s.subscribe(msg.RoomID)
			s.ack(Ack{Type: ackType, CorrelationID: msg.CorrelationID, OK: true})
		case messageCommand:
			s.command(ctx, msg.CommandRequest)
		default:
			s.ack(Ack{Type: ackType, CorrelationID: msg.CorrelationID,
				Error: fmt.Sprintf("%v: message type %q", errors.ErrInvalidArgs, msg.Type)})
		}
	}
}

// command enqueues in the read loop, which keeps the order of one client's
// commands, and waits for the result aside.
func (s *session) command(ctx context.Context, req CommandRequest) {
	if !s.limiter.Allow() {
		s.ack(ackOf(req.CorrelationID, event.CommandResultPayload{}, s.gateway.count(errors.ErrRateLimited)))
		return
	}
	wait, err := s.gateway.Enqueue(ctx, s.who, req)
	if err != nil {
		s.ack(ackOf(req.CorrelationID, event.CommandResultPayload{}, err))
		return
	}
	go func() {
		res, err := wait(ctx)
		if err == nil && res.OK && req.Event == domain.JoinRoom {
			s.subscribe(req.RoomID)
		}
		s.ack(ackOf(req.CorrelationID, res, err))
	}()
}

// checkSubscribe refuses banned users, and private rooms the user neither
// joined nor knows the password of.
func (s *session) checkSubscribe(roomID, password string) error {
	exists, err := s.gateway.deps.Store.RoomExists(roomID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", errors.ErrRoomNotFound, roomID)
	}
	banned, err := s.gateway.roomBool(roomID, "banned."+escape(s.who.UserID))
	if err != nil {
		return err
	}
	if banned {
		return errors.ErrBanned
	}
	return s.gateway.checkVisible(roomID, s.who.UserID, password)
}

// subscribe reports false once the session is closed.
func (s *session) subscribe(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.gateway.deps.Registry.Subscribe(s.id, s.who.UserID, roomID, s)
	return true
}

// shutdown drops the session's subscriptions for good.
func (s *session) shutdown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.gateway.deps.Registry.Unsubscribe(s.id)
	close(s.done)
}

func (s *session) ack(a Ack) {
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	select {
	case s.out <- data:
	case <-s.done:
	}
}

func (s *session) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()
	for {
		select {
		case data := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.log.Debug("Websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
