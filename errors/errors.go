package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrRoomNotFound         = fmt.Errorf("room not found")
	ErrPropNotFound         = fmt.Errorf("room property not found")
	ErrUnknownCommand       = fmt.Errorf("unknown command")
	ErrInvalidArgs          = fmt.Errorf("invalid command arguments")
	ErrUnsupportedFormat    = fmt.Errorf("unsupported format combination")
	ErrSolveAlreadyFinished = fmt.Errorf("solve already finished")
	ErrSetAlreadyFinished   = fmt.Errorf("set already finished")
	ErrNoCurrentSolve       = fmt.Errorf("room has no current solve")
	ErrRoomNotStarted       = fmt.Errorf("room is not started")
	ErrRoomAlreadyStarted   = fmt.Errorf("room is already started")
	ErrNotCompeting         = fmt.Errorf("user is not competing")
	ErrUserNotInRoom        = fmt.Errorf("user is not in room")
	ErrTeamsDisabled        = fmt.Errorf("teams are disabled for this room")
	ErrTeamNotFound         = fmt.Errorf("team not found")
	ErrTeamFull             = fmt.Errorf("team is full")
	ErrUnknownPuzzle        = fmt.Errorf("no scramble moves for puzzle event")
	ErrEmptyWords           = fmt.Errorf("no censored words found")

	ErrUnauthorized    = fmt.Errorf("unauthorized")
	ErrForbidden       = fmt.Errorf("forbidden")
	ErrBanned          = fmt.Errorf("user is banned from room")
	ErrInvalidPassword = fmt.Errorf("invalid room password")
	ErrRateLimited     = fmt.Errorf("too many commands")
	ErrAckTimeout      = fmt.Errorf("command acknowledgement timed out")
)
