package domain

import (
	"bytes"
	"context"
	"cube-race/errors"
	"encoding/json"
	"fmt"
	"time"
)

type CommandName string

const (
	JoinRoom        CommandName = "JOIN_ROOM"
	UpdateRoom      CommandName = "UPDATE_ROOM"
	ToggleCompeting CommandName = "TOGGLE_COMPETING"
	SubmitResult    CommandName = "SUBMIT_RESULT"
	CreateTeams     CommandName = "CREATE_TEAMS"
	DeleteTeam      CommandName = "DELETE_TEAM"
	JoinTeam        CommandName = "JOIN_TEAM"
	LeaveTeam       CommandName = "LEAVE_TEAM"
	StartRoom       CommandName = "START_ROOM"
	RematchRoom     CommandName = "REMATCH_ROOM"
	ResetRoom       CommandName = "RESET_ROOM"
	NewScramble     CommandName = "NEW_SCRAMBLE"
	ForceNextSolve  CommandName = "FORCE_NEXT_SOLVE"
	KickUser        CommandName = "KICK_USER"
	BanUser         CommandName = "BAN_USER"
	UnbanUser       CommandName = "UNBAN_USER"
	LeaveRoom       CommandName = "LEAVE_ROOM"
	DeleteRoom      CommandName = "DELETE_ROOM"
)

// AllCommands lists every command a room processor accepts.
var AllCommands = []CommandName{
	JoinRoom, UpdateRoom, ToggleCompeting, SubmitResult,
	CreateTeams, DeleteTeam, JoinTeam, LeaveTeam,
	StartRoom, RematchRoom, ResetRoom, NewScramble, ForceNextSolve,
	KickUser, BanUser, UnbanUser, LeaveRoom, DeleteRoom,
}

// HostOnly reports whether only the room host may send the command.
func (n CommandName) HostOnly() bool {
	switch n {
	case UpdateRoom, CreateTeams, DeleteTeam, StartRoom, RematchRoom, ResetRoom,
		NewScramble, ForceNextSolve, KickUser, BanUser, UnbanUser, DeleteRoom:
		return true
	default:
		return false
	}
}

// QueuedCommand is the shape pushed onto a room's event queue.
type QueuedCommand struct {
	RoomID        string          `json:"roomId" validate:"required"`
	UserID        string          `json:"userId" validate:"required"`
	Event         CommandName     `json:"event" validate:"required"`
	Args          json.RawMessage `json:"args,omitempty"`
	CorrelationID string          `json:"correlationId,omitempty"`
	EnqueuedAt    time.Time       `json:"enqueuedAt"`
}

// CommandMeta is what a handler knows about who sent a command.
type CommandMeta struct {
	RoomID        string
	UserID        string
	CorrelationID string
}

func (q QueuedCommand) Meta() CommandMeta {
	return CommandMeta{RoomID: q.RoomID, UserID: q.UserID, CorrelationID: q.CorrelationID}
}

// Command is a decoded queue entry. The set of implementations is closed:
// only this package can add one, and each must have a CommandVisitor method.
type Command interface {
	Name() CommandName
	Accept(ctx context.Context, meta CommandMeta, v CommandVisitor) error
	sealed()
}

// CommandVisitor has one method per command, so a handler that implements
// it handles every command there is.
type CommandVisitor interface {
	JoinRoom(ctx context.Context, meta CommandMeta, cmd JoinRoomCommand) error
	UpdateRoom(ctx context.Context, meta CommandMeta, cmd UpdateRoomCommand) error
	ToggleCompeting(ctx context.Context, meta CommandMeta, cmd ToggleCompetingCommand) error
	SubmitResult(ctx context.Context, meta CommandMeta, cmd SubmitResultCommand) error
	CreateTeams(ctx context.Context, meta CommandMeta, cmd CreateTeamsCommand) error
	DeleteTeam(ctx context.Context, meta CommandMeta, cmd DeleteTeamCommand) error
	JoinTeam(ctx context.Context, meta CommandMeta, cmd JoinTeamCommand) error
	LeaveTeam(ctx context.Context, meta CommandMeta, cmd LeaveTeamCommand) error
	StartRoom(ctx context.Context, meta CommandMeta, cmd StartRoomCommand) error
	RematchRoom(ctx context.Context, meta CommandMeta, cmd RematchRoomCommand) error
	ResetRoom(ctx context.Context, meta CommandMeta, cmd ResetRoomCommand) error
	NewScramble(ctx context.Context, meta CommandMeta, cmd NewScrambleCommand) error
	ForceNextSolve(ctx context.Context, meta CommandMeta, cmd ForceNextSolveCommand) error
	KickUser(ctx context.Context, meta CommandMeta, cmd KickUserCommand) error
	BanUser(ctx context.Context, meta CommandMeta, cmd BanUserCommand) error
	UnbanUser(ctx context.Context, meta CommandMeta, cmd UnbanUserCommand) error
	LeaveRoom(ctx context.Context, meta CommandMeta, cmd LeaveRoomCommand) error
	DeleteRoom(ctx context.Context, meta CommandMeta, cmd DeleteRoomCommand) error
}

type JoinRoomCommand struct {
	UserName string `json:"userName" validate:"max=32"`
}

// UpdateRoomCommand carries the new settings. Password is plain text: nil
// keeps the current one, an empty string removes it.
type UpdateRoomCommand struct {
	Settings RoomSettings `json:"settings"`
	Password *string      `json:"password,omitempty" validate:"omitempty,max=64"`
}

type ToggleCompetingCommand struct {
	Competing bool `json:"competing"`
}

type SubmitResultCommand struct {
	Result Result `json:"result"`
}

type CreateTeamsCommand struct {
	Names []string `json:"names" validate:"required,min=1,max=16,dive,required,max=32"`
}

type DeleteTeamCommand struct {
	TeamID string `json:"teamId" validate:"required"`
}

type JoinTeamCommand struct {
	TeamID string `json:"teamId" validate:"required"`
}

type LeaveTeamCommand struct{}

type StartRoomCommand struct{}

type RematchRoomCommand struct{}

type ResetRoomCommand struct{}

type NewScrambleCommand struct{}

type ForceNextSolveCommand struct{}

type KickUserCommand struct {
	UserID string `json:"userId" validate:"required"`
}

type BanUserCommand struct {
	UserID string `json:"userId" validate:"required"`
}

type UnbanUserCommand struct {
	UserID string `json:"userId" validate:"required"`
}

type LeaveRoomCommand struct{}

type DeleteRoomCommand struct{}

func (JoinRoomCommand) Name() CommandName        { return JoinRoom }
func (UpdateRoomCommand) Name() CommandName      { return UpdateRoom }
func (ToggleCompetingCommand) Name() CommandName { return ToggleCompeting }
func (SubmitResultCommand) Name() CommandName    { return SubmitResult }
func (CreateTeamsCommand) Name() CommandName     { return CreateTeams }
func (DeleteTeamCommand) Name() CommandName      { return DeleteTeam }
func (JoinTeamCommand) Name() CommandName        { return JoinTeam }
func (LeaveTeamCommand) Name() CommandName       { return LeaveTeam }
func (StartRoomCommand) Name() CommandName       { return StartRoom }
func (RematchRoomCommand) Name() CommandName     { return RematchRoom }
func (ResetRoomCommand) Name() CommandName       { return ResetRoom }
func (NewScrambleCommand) Name() CommandName     { return NewScramble }
func (ForceNextSolveCommand) Name() CommandName  { return ForceNextSolve }
func (KickUserCommand) Name() CommandName        { return KickUser }
func (BanUserCommand) Name() CommandName         { return BanUser }
func (UnbanUserCommand) Name() CommandName       { return UnbanUser }
func (LeaveRoomCommand) Name() CommandName       { return LeaveRoom }
func (DeleteRoomCommand) Name() CommandName      { return DeleteRoom }

func (c JoinRoomCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.JoinRoom(ctx, m, c)
}

func (c UpdateRoomCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.UpdateRoom(ctx, m, c)
}

func (c ToggleCompetingCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.ToggleCompeting(ctx, m, c)
}

func (c SubmitResultCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.SubmitResult(ctx, m, c)
}

func (c CreateTeamsCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.CreateTeams(ctx, m, c)
}

func (c DeleteTeamCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.DeleteTeam(ctx, m, c)
}

func (c JoinTeamCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.JoinTeam(ctx, m, c)
}

func (c LeaveTeamCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.LeaveTeam(ctx, m, c)
}

func (c StartRoomCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.StartRoom(ctx, m, c)
}

func (c RematchRoomCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.RematchRoom(ctx, m, c)
}

func (c ResetRoomCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.ResetRoom(ctx, m, c)
}

func (c NewScrambleCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.NewScramble(ctx, m, c)
}

func (c ForceNextSolveCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.ForceNextSolve(ctx, m, c)
}

func (c KickUserCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.KickUser(ctx, m, c)
}

func (c BanUserCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.BanUser(ctx, m, c)
}

func (c UnbanUserCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.UnbanUser(ctx, m, c)
}

func (c LeaveRoomCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.LeaveRoom(ctx, m, c)
}

func (c DeleteRoomCommand) Accept(ctx context.Context, m CommandMeta, v CommandVisitor) error {
	return v.DeleteRoom(ctx, m, c)
}

func (JoinRoomCommand) sealed()        {}
func (UpdateRoomCommand) sealed()      {}
func (ToggleCompetingCommand) sealed() {}
func (SubmitResultCommand) sealed()    {}
func (CreateTeamsCommand) sealed()     {}
func (DeleteTeamCommand) sealed()      {}
func (JoinTeamCommand) sealed()        {}
func (LeaveTeamCommand) sealed()       {}
func (StartRoomCommand) sealed()       {}
func (RematchRoomCommand) sealed()     {}
func (ResetRoomCommand) sealed()       {}
func (NewScrambleCommand) sealed()     {}
func (ForceNextSolveCommand) sealed()  {}
func (KickUserCommand) sealed()        {}
func (BanUserCommand) sealed()         {}
func (UnbanUserCommand) sealed()       {}
func (LeaveRoomCommand) sealed()       {}
func (DeleteRoomCommand) sealed()      {}

// Decode turns the queued name and raw args into a typed, validated command.
func (q QueuedCommand) Decode() (Command, error) {
	switch q.Event {
	case JoinRoom:
		return decodeArgs[JoinRoomCommand](q.Args)
	case UpdateRoom:
		return decodeArgs[UpdateRoomCommand](q.Args)
	case ToggleCompeting:
		return decodeArgs[ToggleCompetingCommand](q.Args)
	case SubmitResult:
		return decodeArgs[SubmitResultCommand](q.Args)
	case CreateTeams:
		return decodeArgs[CreateTeamsCommand](q.Args)
	case DeleteTeam:
		return decodeArgs[DeleteTeamCommand](q.Args)
	case JoinTeam:
		return decodeArgs[JoinTeamCommand](q.Args)
	case LeaveTeam:
		return decodeArgs[LeaveTeamCommand](q.Args)
	case StartRoom:
		return decodeArgs[StartRoomCommand](q.Args)
	case RematchRoom:
		return decodeArgs[RematchRoomCommand](q.Args)
	case ResetRoom:
		return decodeArgs[ResetRoomCommand](q.Args)
	case NewScramble:
		return decodeArgs[NewScrambleCommand](q.Args)
	case ForceNextSolve:
		return decodeArgs[ForceNextSolveCommand](q.Args)
	case KickUser:
		return decodeArgs[KickUserCommand](q.Args)
	case BanUser:
		return decodeArgs[BanUserCommand](q.Args)
	case UnbanUser:
		return decodeArgs[UnbanUserCommand](q.Args)
	case LeaveRoom:
		return decodeArgs[LeaveRoomCommand](q.Args)
	case DeleteRoom:
		return decodeArgs[DeleteRoomCommand](q.Args)
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownCommand, q.Event)
	}
}

var nullArgs = []byte("null")

func decodeArgs[C Command](raw json.RawMessage) (Command, error) {
	var cmd C
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, nullArgs) {
		if err := json.Unmarshal(trimmed, &cmd); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errors.ErrInvalidArgs, cmd.Name(), err)
		}
	}
	if err := Validator().Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrInvalidArgs, cmd.Name(), err)
	}
	return cmd, nil
}
