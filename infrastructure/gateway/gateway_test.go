package gateway_test

import (
	"bytes"
	"context"
	"cube-race/auth"
	"cube-race/contract"
	"cube-race/domain"
	"cube-race/domain/event"
	"cube-race/infrastructure/broadcast"
	"cube-race/infrastructure/gateway"
	"cube-race/infrastructure/scramble"
	"cube-race/infrastructure/storage"
	"cube-race/observability"
	"cube-race/runtime"
	"cube-race/runtime/workers"
	"cube-race/services"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// readySubscriber tells when the fanout is listening, events published
// before that would be lost.
type readySubscriber struct {
	contract.EventSubscriber
	ready chan struct{}
}

func (s readySubscriber) Subscribe(ctx context.Context) (<-chan event.RoomEvent, error) {
	events, err := s.EventSubscriber.Subscribe(ctx)
	close(s.ready)
	return events, err
}

type node struct {
	srv     *httptest.Server
	tokens  *auth.TokenIssuer
	metrics *observability.Metrics
}

func newNode(t *testing.T, cfg gateway.Config) *node {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelWarn)
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	queue, err := storage.NewEventQueue(db, log)
	require.NoError(t, err)
	store := storage.NewRoomStore(db, log, 5*time.Second)
	metrics := observability.NewMetrics()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	hasher := auth.NewArgon2Hasher(auth.PasswordParams{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	publisher, subscriber := broadcast.NewGoChannel(log, broadcast.DefaultTopic, metrics, 64)

	ctx, cancel := context.WithCancel(context.Background())
	rooms := services.NewRoomService(log, store, queue, publisher, scramble.NewRandomMoves(1), hasher, nil)
	worker := runtime.NewRoomWorker(ctx, log, "node-a", workers.NewSupervisor(log, 10*time.Millisecond),
		workers.ProcessorDeps{
			Store:       store,
			Queue:       queue,
			Leases:      storage.NewLeaseStore(db),
			Handler:     rooms,
			Broadcaster: publisher,
			Metrics:     metrics,
			Tracer:      noop.NewTracerProvider().Tracer("test"),
		},
		workers.ProcessorConfig{PopTimeout: 100 * time.Millisecond, LeaseTTL: time.Minute})
	registry := runtime.NewRegistry()
	gw := gateway.NewGateway(log, gateway.Deps{
		Store:      store,
		Queue:      queue,
		Rooms:      rooms,
		Processors: worker,
		Registry:   registry,
		Tokens:     tokens,
		Passwords:  hasher,
		Metrics:    metrics,
	}, cfg)

	ready := readySubscriber{EventSubscriber: subscriber, ready: make(chan struct{})}
	fanoutDone := make(chan struct{})
	go func() {
		defer close(fanoutDone)
		_ = workers.NewEventFanout(log, ready, registry, time.Second, gw.Correlator()).Run(ctx)
	}()
	<-ready.ready

	srv := httptest.NewServer(gw.Handler())
	t.Cleanup(func() {
		srv.Close()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
		defer stop()
		_ = worker.Shutdown(shutdownCtx)
		cancel()
		<-fanoutDone
		_ = publisher.Close()
		_ = queue.Close()
		_ = db.Close()
	})
	return &node{srv: srv, tokens: tokens, metrics: metrics}
}

func (n *node) token(t *testing.T, userID string) string {
	token, err := n.tokens.GenerateToken(userID, strings.ToUpper(userID[:1])+userID[1:])
	require.NoError(t, err)
	return token
}

func (n *node) do(t *testing.T, method, path, userID string, body any) (int, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	r, err := http.NewRequest(method, n.srv.URL+path, reader)
	require.NoError(t, err)
	if userID != "" {
		r.Header.Set("Authorization", "Bearer "+n.token(t, userID))
	}
	res, err := http.DefaultClient.Do(r)
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(res.Body)
	require.NoError(t, err)
	return res.StatusCode, buf.Bytes()
}

func (n *node) createRoom(t *testing.T, hostID string, settings domain.RoomSettings, password *string) string {
	t.Helper()
	code, body := n.do(t, http.MethodPost, "/rooms", hostID, gateway.CreateRoomRequest{Settings: settings, Password: password})
	require.Equal(t, http.StatusCreated, code, string(body))
	var room domain.Room
	require.NoError(t, json.Unmarshal(body, &room))
	return room.ID
}

func (n *node) command(t *testing.T, roomID, userID string, req gateway.CommandRequest) (int, gateway.Ack) {
	t.Helper()
	code, body := n.do(t, http.MethodPost, "/rooms/"+roomID+"/commands", userID, req)
	var ack gateway.Ack
	if code == http.StatusOK {
		require.NoError(t, json.Unmarshal(body, &ack))
	}
	return code, ack
}

func racing() domain.RoomSettings {
	settings := domain.DefaultSettings("friday race")
	settings.RoomFormat = domain.Racing
	return settings
}

func submit(centis int64) json.RawMessage {
	raw, _ := json.Marshal(domain.SubmitResultCommand{Result: domain.Result{Time: centis, Penalty: domain.PenaltyOK}})
	return raw
}

func TestGateway_PublicAndProtectedRoutes(t *testing.T) {
	req := require.New(t)
	n := newNode(t, gateway.Config{})

	code, _ := n.do(t, http.MethodGet, "/health", "", nil)
	req.Equal(http.StatusOK, code)
	code, body := n.do(t, http.MethodGet, "/metrics", "", nil)
	req.Equal(http.StatusOK, code)
	req.Contains(string(body), "cube_race_active_processors")
	code, _ = n.do(t, http.MethodPost, "/rooms", "", gateway.CreateRoomRequest{Settings: racing()})
	req.Equal(http.StatusUnauthorized, code)
}

func TestGateway_RaceOverHTTP(t *testing.T) {
	req := require.New(t)
	n := newNode(t, gateway.Config{AckTimeout: 2 * time.Second})
	roomID := n.createRoom(t, "alice", racing(), nil)

	// Given both players joined, the name coming from their token
	code, ack := n.command(t, roomID, "alice", gateway.CommandRequest{Event: domain.JoinRoom, CorrelationID: "c1"})
	req.Equal(http.StatusOK, code)
	req.True(ack.OK, ack.Error)
	req.Equal("c1", ack.CorrelationID)
	code, ack = n.command(t, roomID, "bob", gateway.CommandRequest{Event: domain.JoinRoom})
	req.Equal(http.StatusOK, code)
	req.True(ack.OK, ack.Error)

	// When a player acts before the start, the processor rejects it
	code, ack = n.command(t, roomID, "bob", gateway.CommandRequest{Event: domain.SubmitResult, Args: submit(900)})
	req.Equal(http.StatusOK, code)
	req.False(ack.OK)
	req.Contains(ack.Error, "not started")

	// And only the host may start
	code, _ = n.command(t, roomID, "bob", gateway.CommandRequest{Event: domain.StartRoom})
	req.Equal(http.StatusForbidden, code)
	code, ack = n.command(t, roomID, "alice", gateway.CommandRequest{Event: domain.StartRoom})
	req.Equal(http.StatusOK, code)
	req.True(ack.OK, ack.Error)

	// Then both results finish the race
	_, ack = n.command(t, roomID, "alice", gateway.CommandRequest{Event: domain.SubmitResult, Args: submit(1100)})
	req.True(ack.OK, ack.Error)
	_, ack = n.command(t, roomID, "bob", gateway.CommandRequest{Event: domain.SubmitResult, Args: submit(900)})
	req.True(ack.OK, ack.Error)

	code, body := n.do(t, http.MethodGet, "/rooms/"+roomID, "", nil)
	req.Equal(http.StatusOK, code)
	var room domain.Room
	req.NoError(json.Unmarshal(body, &room))
	req.Equal(domain.Finished, room.State)
	req.Equal([]string{"bob"}, room.Match.Winners)
	req.Equal("Alice", room.Users["alice"].Name)

	req.Equal(float64(1), testutil.ToFloat64(n.metrics.GatewayRequests.WithLabelValues("forbidden")))
	req.Equal(float64(1), testutil.ToFloat64(n.metrics.GatewayRequests.WithLabelValues("rejected")))
}

func TestGateway_PasswordProtectedJoin(t *testing.T) {
	req := require.New(t)
	n := newNode(t, gateway.Config{})
	password := "letmein"
	roomID := n.createRoom(t, "alice", racing(), &password)

	code, _ := n.command(t, roomID, "bob", gateway.CommandRequest{Event: domain.JoinRoom, Password: "guess"})
	req.Equal(http.StatusForbidden, code)

	code, ack := n.command(t, roomID, "bob", gateway.CommandRequest{Event: domain.JoinRoom, Password: password})
	req.Equal(http.StatusOK, code)
	req.True(ack.OK, ack.Error)

	// The hash never leaves the node
	_, body := n.do(t, http.MethodGet, "/rooms/"+roomID, "", nil)
	req.NotContains(string(body), "passwordHash")
}

func TestGateway_RejectsBeforeEnqueue(t *testing.T) {
	req := require.New(t)
	n := newNode(t, gateway.Config{})
	roomID := n.createRoom(t, "alice", racing(), nil)

	code, _ := n.command(t, "ghost", "alice", gateway.CommandRequest{Event: domain.JoinRoom})
	req.Equal(http.StatusNotFound, code)
	code, _ = n.command(t, roomID, "alice", gateway.CommandRequest{Event: "FLY_TO_MOON"})
	req.Equal(http.StatusBadRequest, code)
	code, _ = n.command(t, roomID, "alice", gateway.CommandRequest{Event: domain.LeaveRoom})
	req.Equal(http.StatusForbidden, code)

	settings := racing()
	settings.RoomEvent = "megaminx"
	code, _ = n.do(t, http.MethodPost, "/rooms", "alice", gateway.CreateRoomRequest{Settings: settings})
	req.Equal(http.StatusBadRequest, code)
}

func TestGateway_ListRooms(t *testing.T) {
	req := require.New(t)
	n := newNode(t, gateway.Config{})
	password := "letmein"
	for range 3 {
		n.createRoom(t, "alice", racing(), &password)
	}

	code, body := n.do(t, http.MethodGet, "/rooms?page=1&size=2", "", nil)

	req.Equal(http.StatusOK, code)
	var page domain.RoomsPage
	req.NoError(json.Unmarshal(body, &page))
	req.Equal(3, page.Total)
	req.Len(page.Rooms, 2)
	req.NotContains(string(body), "passwordHash")
}

type wsMessage struct {
	Type          string           `json:"type"`
	CorrelationID string           `json:"correlationId"`
	OK            bool             `json:"ok"`
	Error         string           `json:"error"`
	Event         *event.RoomEvent `json:"event"`
}

func dial(t *testing.T, n *node, userID string) *websocket.Conn {
	t.Helper()
	return dialQuery(t, n, userID, "")
}

// dialQuery opens a socket with extra query parameters, such as roomId.
func dialQuery(t *testing.T, n *node, userID, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(n.srv.URL, "http") + "/ws?token=" + n.token(t, userID) + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads messages until one matches, failing after a second.
func readUntil(t *testing.T, conn *websocket.Conn, match func(wsMessage) bool) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func TestGateway_WebsocketStreamsRoomEvents(t *testing.T) {
	req := require.New(t)
	n := newNode(t, gateway.Config{})
	roomID := n.createRoom(t, "alice", racing(), nil)
	conn := dial(t, n, "alice")

	// Given alice joined through her socket
	req.NoError(conn.WriteJSON(gateway.ClientMessage{Type: "command", CommandRequest: gateway.CommandRequest{
		CorrelationID: "join-1", RoomID: roomID, Event: domain.JoinRoom,
	}}))
	ack := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "ack" })
	req.Equal("join-1", ack.CorrelationID)
	req.True(ack.OK, ack.Error)

	// When bob joins over HTTP
	_, httpAck := n.command(t, roomID, "bob", gateway.CommandRequest{Event: domain.JoinRoom})
	req.True(httpAck.OK)

	// Then alice's socket sees it
	joined := readUntil(t, conn, func(m wsMessage) bool {
		return m.Type == "event" && m.Event.Name == event.UserJoined && strings.Contains(string(m.Event.Payload), "bob")
	})
	req.Equal(roomID, joined.Event.RoomID)
}

func TestGateway_WebsocketRateLimit(t *testing.T) {
	req := require.New(t)
	n := newNode(t, gateway.Config{CommandsPerSecond: 0.1, CommandBurst: 1})
	roomID := n.createRoom(t, "alice", racing(), nil)
	conn := dial(t, n, "alice")

	for _, id := range []string{"first", "second"} {
		req.NoError(conn.WriteJSON(gateway.ClientMessage{Type: "command", CommandRequest: gateway.CommandRequest{
			CorrelationID: id, RoomID: roomID, Event: domain.JoinRoom,
		}}))
	}

	// Acks come back in any order
	acks := map[string]wsMessage{}
	for len(acks) < 2 {
		ack := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "ack" })
		acks[ack.CorrelationID] = ack
	}
	req.True(acks["first"].OK, acks["first"].Error)
	req.False(acks["second"].OK)
	req.Contains(acks["second"].Error, "too many commands")
}

func TestGateway_WebsocketSubscribeUnknownRoom(t *testing.T) {
	req := require.New(t)
	n := newNode(t, gateway.Config{})
	conn := dial(t, n, "alice")

	req.NoError(conn.WriteJSON(gateway.ClientMessage{Type: "subscribe", CommandRequest: gateway.CommandRequest{
		CorrelationID: "s1", RoomID: "ghost",
	}}))

	ack := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "ack" })
	req.False(ack.OK)
	req.Contains(ack.Error, "room not found")
}

// expectSilence fails if any room event reaches the socket for a while.
func expectSilence(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(wait)))
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			var netErr interface{ Timeout() bool }
			require.ErrorAs(t, err, &netErr)
			require.True(t, netErr.Timeout(), err)
			return
		}
		require.NotEqual(t, "event", msg.Type, "unexpected event %+v", msg.Event)
	}
}

func TestGateway_BannedUserCannotSubscribeFromDialURL(t *testing.T) {
	req := require.New(t)
	n := newNode(t, gateway.Config{})
	roomID := n.createRoom(t, "alice", racing(), nil)
	_, ack := n.command(t, roomID, "alice", gateway.CommandRequest{Event: domain.JoinRoom})
	req.True(ack.OK, ack.Error)
	_, ack = n.command(t, roomID, "bob", gateway.CommandRequest{Event: domain.JoinRoom})
	req.True(ack.OK, ack.Error)
	banArgs, err := json.Marshal(domain.BanUserCommand{UserID: "bob"})
	req.NoError(err)
	_, ack = n.command(t, roomID, "alice", gateway.CommandRequest{Event: domain.BanUser, Args: banArgs})
	req.True(ack.OK, ack.Error)
	host := dialQuery(t, n, "alice", "&roomId="+roomID)

	// Given bob asks for the room's events when connecting
	banned := dialQuery(t, n, "bob", "&roomId="+roomID)
	refused := readUntil(t, banned, func(m wsMessage) bool { return m.Type == "ack" })
	req.False(refused.OK)
	req.Contains(refused.Error, "banned")

	// When the host starts the race
	_, ack = n.command(t, roomID, "alice", gateway.CommandRequest{Event: domain.StartRoom})
	req.True(ack.OK, ack.Error)

	// Then only the host's socket streams it
	readUntil(t, host, func(m wsMessage) bool { return m.Type == "event" && m.Event.Name == event.RoomUpdate })
	expectSilence(t, banned, 300*time.Millisecond)
}

func private() domain.RoomSettings {
	settings := racing()
	settings.Access.Visibility = domain.Private
	return settings
}

func (n *node) getRoom(t *testing.T, roomID, userID, password string) int {
	t.Helper()
	r, err := http.NewRequest(http.MethodGet, n.srv.URL+"/rooms/"+roomID, nil)
	require.NoError(t, err)
	if userID != "" {
		r.Header.Set("Authorization", "Bearer "+n.token(t, userID))
	}
	if password != "" {
		r.Header.Set("X-Room-Password", password)
	}
	res, err := http.DefaultClient.Do(r)
	require.NoError(t, err)
	_ = res.Body.Close()
	return res.StatusCode
}

func TestGateway_PrivateRoomsAreHiddenFromStrangers(t *testing.T) {
	req := require.New(t)
	n := newNode(t, gateway.Config{})
	password := "letmein"
	open := n.createRoom(t, "alice", racing(), nil)
	secret := n.createRoom(t, "alice", private(), nil)
	locked := n.createRoom(t, "alice", private(), &password)

	// Listing only shows the public room
	code, body := n.do(t, http.MethodGet, "/rooms", "", nil)
	req.Equal(http.StatusOK, code)
	var page domain.RoomsPage
	req.NoError(json.Unmarshal(body, &page))
	req.Equal(1, page.Total)
	req.Equal(open, page.Rooms[0].ID)

	// Strangers cannot read a private room, the host can
	req.Equal(http.StatusOK, n.getRoom(t, open, "", ""))
	req.Equal(http.StatusNotFound, n.getRoom(t, secret, "", ""))
	req.Equal(http.StatusNotFound, n.getRoom(t, secret, "bob", ""))
	req.Equal(http.StatusOK, n.getRoom(t, secret, "alice", ""))

	// The password opens a protected private room, a wrong one does not
	req.Equal(http.StatusNotFound, n.getRoom(t, locked, "", "guess"))
	req.Equal(http.StatusOK, n.getRoom(t, locked, "", password))

	// Joining with the room id makes it readable
	_, ack := n.command(t, secret, "bob", gateway.CommandRequest{Event: domain.JoinRoom})
	req.True(ack.OK, ack.Error)
	req.Equal(http.StatusOK, n.getRoom(t, secret, "bob", ""))
}

func TestGateway_PrivateRoomSubscriptionNeedsMembership(t *testing.T) {
	req := require.New(t)
	n := newNode(t, gateway.Config{})
	roomID := n.createRoom(t, "alice", private(), nil)
	conn := dial(t, n, "bob")

	// Given bob is not in the private room
	req.NoError(conn.WriteJSON(gateway.ClientMessage{Type: "subscribe", CommandRequest: gateway.CommandRequest{
		CorrelationID: "s1", RoomID: roomID,
	}}))
	ack := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "ack" && m.CorrelationID == "s1" })
	req.False(ack.OK)
	req.Contains(ack.Error, "room not found")

	// When bob joins it
	_, httpAck := n.command(t, roomID, "bob", gateway.CommandRequest{Event: domain.JoinRoom})
	req.True(httpAck.OK, httpAck.Error)

	// Then bob may subscribe
	req.NoError(conn.WriteJSON(gateway.ClientMessage{Type: "subscribe", CommandRequest: gateway.CommandRequest{
		CorrelationID: "s2", RoomID: roomID,
	}}))
	ack = readUntil(t, conn, func(m wsMessage) bool { return m.Type == "ack" && m.CorrelationID == "s2" })
	req.True(ack.OK, ack.Error)
}
