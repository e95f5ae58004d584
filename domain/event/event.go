package event

import (
	"cube-race/domain"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Name identifies a broadcast sent to the clients of a room.
type Name string

const (
	SolveFinished     Name = "SOLVE_FINISHED_EVENT"
	SetFinished       Name = "SET_FINISHED_EVENT"
	MatchFinished     Name = "MATCH_FINISHED_EVENT"
	NewSolve          Name = "NEW_SOLVE"
	NewSet            Name = "NEW_SET"
	TeamsUpdate       Name = "TEAMS_UPDATE"
	RoomUpdate        Name = "ROOM_UPDATE"
	UserJoined        Name = "USER_JOINED"
	UserLeft          Name = "USER_LEFT"
	UserUpdate        Name = "USER_UPDATE"
	UserKicked        Name = "USER_KICKED"
	UserBanned        Name = "USER_BANNED"
	UserUnbanned      Name = "USER_UNBANNED"
	SolveStatusUpdate Name = "SOLVE_STATUS_UPDATE"
	RoomDeleted       Name = "ROOM_DELETED"
	CommandResult     Name = "COMMAND_RESULT"
)

// RoomEvent is what a room processor publishes. An empty Target means
// every client of the room, otherwise only that user.
type RoomEvent struct {
	ID            string          `json:"id"`
	RoomID        string          `json:"roomId"`
	Name          Name            `json:"name"`
	Target        string          `json:"target,omitempty"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	At            time.Time       `json:"at"`
}

// New marshals the payload right away, so later changes to the document
// don't leak into an event built earlier.
func New(roomID string, name Name, payload any) (RoomEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return RoomEvent{}, err
	}
	return RoomEvent{
		ID:      uuid.NewString(),
		RoomID:  roomID,
		Name:    name,
		Payload: raw,
		At:      time.Now().UTC(),
	}, nil
}

// To restricts delivery to a single user.
func (e RoomEvent) To(userID string) RoomEvent {
	e.Target = userID
	return e
}

// VisibleTo reports whether a client connected as userID should receive it.
func (e RoomEvent) VisibleTo(userID string) bool {
	return e.Target == "" || e.Target == userID
}

type RoomPayload struct {
	Room domain.Room `json:"room"`
}

type UserPayload struct {
	User *domain.User `json:"user"`
}

type UserIDPayload struct {
	UserID string `json:"userId"`
}

type TeamsPayload struct {
	Teams map[string]*domain.Team `json:"teams"`
}

type SolveStatusPayload struct {
	ParticipantID string             `json:"participantId"`
	UserID        string             `json:"userId"`
	Status        domain.SolveStatus `json:"status"`
	Result        *domain.Result     `json:"result,omitempty"`
}

type SolvePayload struct {
	Set   int           `json:"set"`
	Solve *domain.Solve `json:"solve"`
}

type WinnersPayload struct {
	Set     int      `json:"set,omitempty"`
	Solve   int      `json:"solve,omitempty"`
	Winners []string `json:"winners"`
}

type NewSetPayload struct {
	Set int `json:"set"`
}

type CommandResultPayload struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// CommandResult reads a COMMAND_RESULT payload.
func (e RoomEvent) CommandResult() (CommandResultPayload, error) {
	var res CommandResultPayload
	err := json.Unmarshal(e.Payload, &res)
	return res, err
}
