package gateway

import (
	"context"
	"cube-race/auth"
	"cube-race/contract"
	"cube-race/domain"
	"cube-race/errors"
	"cube-race/infrastructure/scramble"
	"cube-race/observability"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	DefaultAckTimeout       = 5 * time.Second
	DefaultPageSize         = 20
	MaxPageSize             = 100
	DefaultOutputBufferSize = 64
)

const roomPasswordHeader = "X-Room-Password"

const (
	statusAccepted     = "accepted"
	statusRejected     = "rejected"
	statusInvalid      = "invalid"
	statusForbidden    = "forbidden"
	statusTimeout      = "timeout"
	statusRateLimited  = "rate_limited"
	statusInternalFail = "error"
)

type Deps struct {
	Store      contract.RoomStore
	Queue      contract.EventQueue
	Rooms      contract.RoomCreator
	Processors contract.ProcessorRegistry
	Registry   contract.IRegistry
	Tokens     *auth.TokenIssuer
	Passwords  auth.PasswordHasher
	Metrics    *observability.Metrics
}

type Config struct {
	AckTimeout        time.Duration
	CommandsPerSecond float64
	CommandBurst      int
	OutputBufferSize  int
}

// Gateway is the client facing edge of a node: it authenticates, checks
// and enqueues commands, and streams room events back over websockets.
// It never writes a room document itself.
type Gateway struct {
	log        *slog.Logger
	deps       Deps
	cfg        Config
	correlator *Correlator
	upgrader   websocket.Upgrader
}

func NewGateway(log *slog.Logger, deps Deps, cfg Config) *Gateway {
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = DefaultAckTimeout
	}
	if cfg.OutputBufferSize <= 0 {
		cfg.OutputBufferSize = DefaultOutputBufferSize
	}
	if cfg.CommandsPerSecond <= 0 {
		cfg.CommandsPerSecond = 10
	}
	if cfg.CommandBurst <= 0 {
		cfg.CommandBurst = 20
	}
	return &Gateway{
		log:        log,
		deps:       deps,
		cfg:        cfg,
		correlator: NewCorrelator(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Correlator resolves command results, it must be fed every room event.
func (g *Gateway) Correlator() *Correlator {
	return g.correlator
}

func (g *Gateway) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", g.health).Methods(http.MethodGet)
	r.Handle("/metrics", g.deps.Metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/rooms", g.listRooms).Methods(http.MethodGet)
	r.Handle("/rooms/{id}", auth.OptionalMiddleware(g.deps.Tokens)(http.HandlerFunc(g.getRoom))).Methods(http.MethodGet)

	protected := r.NewRoute().Subrouter()
	protected.Use(auth.Middleware(g.deps.Tokens))
	protected.HandleFunc("/rooms", g.createRoom).Methods(http.MethodPost)
	protected.HandleFunc("/rooms/{id}/commands", g.postCommand).Methods(http.MethodPost)
	protected.HandleFunc("/ws", g.serveWS).Methods(http.MethodGet)
	return r
}

func (g *Gateway) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "processors": len(g.deps.Processors.Owned())})
}

func (g *Gateway) listRooms(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	size := min(queryInt(r, "size", DefaultPageSize), MaxPageSize)
	res, err := g.deps.Store.GetRoomsPage(page, size, false)
	if err != nil {
		g.writeError(w, err)
		return
	}
	for i, room := range res.Rooms {
		sanitized := room.Sanitized()
		res.Rooms[i] = &sanitized
	}
	writeJSON(w, http.StatusOK, res)
}

// getRoom answers 404 for a private room unless the caller is a member or
// sends its password in the X-Room-Password header.
func (g *Gateway) getRoom(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]
	if err := g.checkVisible(roomID, identityOf(r).UserID, r.Header.Get(roomPasswordHeader)); err != nil {
		g.writeError(w, err)
		return
	}
	room, err := g.deps.Store.GetRoom(roomID)
	if err != nil {
		g.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room.Sanitized())
}

type CreateRoomRequest struct {
	Settings domain.RoomSettings `json:"settings"`
	Password *string             `json:"password,omitempty"`
}

// createRoom writes the room and starts its processor on this node.
func (g *Gateway) createRoom(w http.ResponseWriter, r *http.Request) {
	who := identityOf(r)
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeError(w, fmt.Errorf("%w: %v", errors.ErrInvalidArgs, err))
		return
	}
	if !scramble.Supported(req.Settings.RoomEvent) {
		g.writeError(w, fmt.Errorf("%w: %s", errors.ErrUnknownPuzzle, req.Settings.RoomEvent))
		return
	}
	room, err := g.deps.Rooms.CreateRoom(r.Context(), who.UserID, req.Settings, req.Password)
	if err != nil {
		g.writeError(w, err)
		return
	}
	g.deps.Processors.StartRoomProcessor(room.ID)
	writeJSON(w, http.StatusCreated, room.Sanitized())
}

func (g *Gateway) postCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeError(w, fmt.Errorf("%w: %v", errors.ErrInvalidArgs, err))
		return
	}
	req.RoomID = mux.Vars(r)["id"]
	res, err := g.Submit(r.Context(), identityOf(r), req)
	if err != nil {
		g.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackOf(req.CorrelationID, res, nil))
}

func identityOf(r *http.Request) Identity {
	userID, _ := auth.UserIDFromContext(r.Context())
	return Identity{UserID: userID, Name: auth.UserNameFromContext(r.Context())}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// httpStatus maps an error to its HTTP status and request metric label.
func httpStatus(err error) (int, string) {
	switch {
	case stderrors.Is(err, errors.ErrInvalidArgs),
		stderrors.Is(err, errors.ErrUnknownCommand),
		stderrors.Is(err, errors.ErrUnknownPuzzle):
		return http.StatusBadRequest, statusInvalid
	case stderrors.Is(err, errors.ErrUnauthorized):
		return http.StatusUnauthorized, statusForbidden
	case stderrors.Is(err, errors.ErrForbidden),
		stderrors.Is(err, errors.ErrBanned),
		stderrors.Is(err, errors.ErrInvalidPassword),
		stderrors.Is(err, errors.ErrUserNotInRoom):
		return http.StatusForbidden, statusForbidden
	case stderrors.Is(err, errors.ErrRoomNotFound):
		return http.StatusNotFound, statusInvalid
	case stderrors.Is(err, errors.ErrRateLimited):
		return http.StatusTooManyRequests, statusRateLimited
	case stderrors.Is(err, errors.ErrAckTimeout):
		return http.StatusGatewayTimeout, statusTimeout
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, statusTimeout
	default:
		return http.StatusInternalServerError, statusInternalFail
	}
}

// count records a refused request and returns err unchanged.
func (g *Gateway) count(err error) error {
	_, status := httpStatus(err)
	g.countStatus(status)
	return err
}

func (g *Gateway) countStatus(status string) {
	if g.deps.Metrics != nil {
		g.deps.Metrics.GatewayRequests.WithLabelValues(status).Inc()
	}
}

func (g *Gateway) writeError(w http.ResponseWriter, err error) {
	code, _ := httpStatus(err)
	if code == http.StatusInternalServerError {
		g.log.Error("Request failed", "error", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
