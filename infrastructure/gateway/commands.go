package gateway

import (
	"context"
	"cube-race/domain"
	"cube-race/domain/event"
	"cube-race/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// CommandRequest is what a client sends to act on a room.
type CommandRequest struct {
	CorrelationID string             `json:"correlationId,omitempty" validate:"max=64"`
	RoomID        string             `json:"roomId" validate:"required,max=64"`
	Event         domain.CommandName `json:"event" validate:"required"`
	Args          json.RawMessage    `json:"args,omitempty"`
	Password      string             `json:"password,omitempty" validate:"max=72"`
}

// Ack answers one CommandRequest.
type Ack struct {
	Type          string `json:"type"`
	CorrelationID string `json:"correlationId,omitempty"`
	OK            bool   `json:"ok"`
	Error         string `json:"error,omitempty"`
}

const ackType = "ack"

func ackOf(correlationID string, res event.CommandResultPayload, err error) Ack {
	if err != nil {
		return Ack{Type: ackType, CorrelationID: correlationID, Error: err.Error()}
	}
	return Ack{Type: ackType, CorrelationID: correlationID, OK: res.OK, Error: res.Error}
}

// Identity is the authenticated sender.
type Identity struct {
	UserID string
	Name   string
}

// Enqueue checks the request and pushes it to the room queue. The returned
// function waits for the processor's result, at most the ack timeout.
func (g *Gateway) Enqueue(ctx context.Context, who Identity, req CommandRequest) (func(ctx context.Context) (event.CommandResultPayload, error), error) {
	if err := domain.Validator().Struct(req); err != nil {
		return nil, g.count(fmt.Errorf("%w: %v", errors.ErrInvalidArgs, err))
	}
	if req.Event == domain.JoinRoom && len(req.Args) == 0 {
		req.Args, _ = json.Marshal(domain.JoinRoomCommand{UserName: who.Name})
	}
	cmd := domain.QueuedCommand{
		RoomID:        req.RoomID,
		UserID:        who.UserID,
		Event:         req.Event,
		Args:          req.Args,
		CorrelationID: uuid.NewString(),
	}
	if _, err := cmd.Decode(); err != nil {
		return nil, g.count(err)
	}
	if err := g.authorize(who.UserID, cmd.Event, req); err != nil {
		return nil, g.count(err)
	}

	result, forget := g.correlator.Register(cmd.CorrelationID)
	if err := g.deps.Queue.EnqueueRoomEvent(cmd); err != nil {
		forget()
		return nil, g.count(err)
	}
	g.log.Debug("Command enqueued", "room_id", cmd.RoomID, "user_id", cmd.UserID, "command", cmd.Event)

	return func(ctx context.Context) (event.CommandResultPayload, error) {
		defer forget()
		timer := time.NewTimer(g.cfg.AckTimeout)
		defer timer.Stop()
		select {
		case res := <-result:
			if res.OK {
				g.countStatus(statusAccepted)
			} else {
				g.countStatus(statusRejected)
			}
			return res, nil
		case <-timer.C:
			return event.CommandResultPayload{}, g.count(errors.ErrAckTimeout)
		case <-ctx.Done():
			return event.CommandResultPayload{}, ctx.Err()
		}
	}, nil
}

// Submit enqueues and waits for the result.
func (g *Gateway) Submit(ctx context.Context, who Identity, req CommandRequest) (event.CommandResultPayload, error) {
	wait, err := g.Enqueue(ctx, who, req)
	if err != nil {
		return event.CommandResultPayload{}, err
	}
	return wait(ctx)
}

// authorize runs the checks that need no ownership of the room: it
// exists, the sender may act in it, and holds the host role when needed.
func (g *Gateway) authorize(userID string, name domain.CommandName, req CommandRequest) error {
	exists, err := g.deps.Store.RoomExists(req.RoomID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", errors.ErrRoomNotFound, req.RoomID)
	}
	banned, err := g.roomBool(req.RoomID, "banned."+escape(userID))
	if err != nil {
		return err
	}
	if banned {
		return errors.ErrBanned
	}

	member, err := g.roomBool(req.RoomID, "users."+escape(userID)+".active")
	if err != nil {
		return err
	}
	if name == domain.JoinRoom {
		if member {
			return nil
		}
		return g.checkPassword(req.RoomID, req.Password)
	}
	if !member {
		return errors.ErrUserNotInRoom
	}
	if !name.HostOnly() {
		return nil
	}
	host, err := g.deps.Store.GetRoomProp(req.RoomID, "host")
	if err != nil {
		return err
	}
	if gjson.ParseBytes(host).String() != userID {
		return fmt.Errorf("%w: %s is reserved to the host", errors.ErrForbidden, name)
	}
	return nil
}

func (g *Gateway) checkPassword(roomID, password string) error {
	raw, err := g.deps.Store.GetRoomProp(roomID, "settings.access.passwordHash")
	if stderrors.Is(err, errors.ErrPropNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	hash := gjson.ParseBytes(raw).String()
	if hash == "" {
		return nil
	}
	ok, err := g.deps.Passwords.Compare(password, hash)
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrInvalidPassword
	}
	return nil
}

// checkVisible lets anyone see a public room. A private one is shown to
// its host and members, or to callers knowing its password. Everyone else
// is told it does not exist.
func (g *Gateway) checkVisible(roomID, userID, password string) error {
	raw, err := g.deps.Store.GetRoomProp(roomID, "settings.access.visibility")
	if stderrors.Is(err, errors.ErrPropNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if domain.Visibility(gjson.ParseBytes(raw).String()) != domain.Private {
		return nil
	}
	hidden := fmt.Errorf("%w: %s", errors.ErrRoomNotFound, roomID)
	if userID != "" {
		member, err := g.roomBool(roomID, "users."+escape(userID)+".active")
		if err != nil {
			return err
		}
		host, err := g.deps.Store.GetRoomProp(roomID, "host")
		if err != nil && !stderrors.Is(err, errors.ErrPropNotFound) {
			return err
		}
		if member || gjson.ParseBytes(host).String() == userID {
			return nil
		}
	}
	if password == "" {
		return hidden
	}
	hash, err := g.deps.Store.GetRoomProp(roomID, "settings.access.passwordHash")
	if err != nil && !stderrors.Is(err, errors.ErrPropNotFound) {
		return err
	}
	if gjson.ParseBytes(hash).String() == "" {
		return hidden
	}
	if err = g.checkPassword(roomID, password); stderrors.Is(err, errors.ErrInvalidPassword) {
		return hidden
	}
	return err
}

// escape makes an id usable as one component of a property path.
func escape(id string) string {
	return gjson.Escape(id)
}

// roomBool reads a boolean property, false when it is missing.
func (g *Gateway) roomBool(roomID, path string) (bool, error) {
	raw, err := g.deps.Store.GetRoomProp(roomID, path)
	if stderrors.Is(err, errors.ErrPropNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return gjson.ParseBytes(raw).Bool(), nil
}
