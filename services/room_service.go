package services

import (
	"context"
	"cube-race/auth"
	"cube-race/contract"
	"cube-race/domain"
	"cube-race/domain/event"
	"cube-race/errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

var (
	_ domain.CommandVisitor   = (*RoomService)(nil)
	_ contract.CommandHandler = (*RoomService)(nil)
	_ contract.RoomCreator    = (*RoomService)(nil)
)

// RoomService applies room commands. It runs inside the room's processor,
// so it is the only writer of the document while it handles a command.
type RoomService struct {
	log         *slog.Logger
	store       contract.RoomStore
	queue       contract.EventQueue
	broadcaster contract.Broadcaster
	scrambler   domain.ScrambleGenerator
	passwords   auth.PasswordHasher
	names       contract.NameFilter
	now         func() time.Time
	newID       func() string
}

func NewRoomService(
	log *slog.Logger,
	store contract.RoomStore,
	queue contract.EventQueue,
	broadcaster contract.Broadcaster,
	scrambler domain.ScrambleGenerator,
	passwords auth.PasswordHasher,
	names contract.NameFilter,
) *RoomService {
	return &RoomService{
		log:         log,
		store:       store,
		queue:       queue,
		broadcaster: broadcaster,
		scrambler:   scrambler,
		passwords:   passwords,
		names:       names,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Handle decodes the command and dispatches it to its handler.
func (s *RoomService) Handle(ctx context.Context, cmd domain.QueuedCommand) error {
	decoded, err := cmd.Decode()
	if err != nil {
		return err
	}
	return decoded.Accept(ctx, cmd.Meta(), s)
}

// censor is a no-op without a name filter.
func (s *RoomService) censor(name string) string {
	if s.names == nil {
		return name
	}
	return s.names.Censor(name)
}

// CreateRoom writes a new waiting room. It expires after the deletion grace
// unless someone joins it.
func (s *RoomService) CreateRoom(_ context.Context, hostID string, settings domain.RoomSettings, password *string) (*domain.Room, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidArgs, err)
	}
	hash, err := s.hashPassword(nil, password)
	if err != nil {
		return nil, err
	}
	settings.Access.PasswordHash = hash
	settings.RoomName = s.censor(settings.RoomName)
	room := domain.NewRoom(s.newID(), settings, s.now())
	room.Host = hostID
	if err = s.store.SetRoom(room); err != nil {
		return nil, err
	}
	if err = s.store.ScheduleRoomForDeletion(room.ID); err != nil {
		return nil, err
	}
	s.log.Info("Room created", "room_id", room.ID, "user_id", hostID)
	return room, nil
}

// hashPassword resolves the stored hash: nil keeps current, empty clears it.
func (s *RoomService) hashPassword(current *string, password *string) (*string, error) {
	if password == nil {
		return current, nil
	}
	if *password == "" {
		return nil, nil
	}
	if err := auth.ValidateRoomPassword(*password); err != nil {
		return nil, err
	}
	hash, err := s.passwords.Hash(*password)
	if err != nil {
		return nil, fmt.Errorf("hash room password: %w", err)
	}
	return &hash, nil
}

func (s *RoomService) JoinRoom(ctx context.Context, meta domain.CommandMeta, cmd domain.JoinRoomCommand) error {
	return s.mutate(ctx, meta.RoomID, func(room *domain.Room, out *outbox) error {
		if room.IsBanned(meta.UserID) {
			return errors.ErrBanned
		}
		user := room.Join(meta.UserID, s.censor(cmd.UserName))
		out.keep = true
		out.add(event.UserJoined, event.UserPayload{User: user})
		out.addRoom(room)
		return nil
	})
}

func (s *RoomService) UpdateRoom(ctx context.Context, meta domain.CommandMeta, cmd domain.UpdateRoomCommand) error {
	return s.mutate(ctx, meta.RoomID, func(room *domain.Room, out *outbox) error {
		settings := cmd.Settings
		hash, err := s.hashPassword(room.Settings.Access.PasswordHash, cmd.Password)
		if err != nil {
			return err
		}
		settings.Access.PasswordHash = hash
		settings.RoomName = s.censor(settings.RoomName)
		reset, err := room.UpdateSettings(settings)
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrInvalidArgs, err)
		}
		if reset {
			s.log.Info("Scoring changed, room reset", "room_id", room.ID)
		}
		out.addRoom(room)
		return nil
	})
}

func (s *RoomService) ToggleCompeting(ctx context.Context, meta domain.CommandMeta, cmd domain.ToggleCompetingCommand) error {
	return s.mutate(ctx, meta.RoomID, func(room *domain.Room, out *outbox) error {
		user, err := room.SetCompeting(meta.UserID, cmd.Competing)
		if err != nil {
			return err
		}
		out.add(event.UserUpdate, event.UserPayload{User: user})
		return s.advanceIfComplete(ctx, room, out)
	})
}

func (s *RoomService) SubmitResult(ctx context.Context, meta domain.CommandMeta, cmd domain.SubmitResultCommand) error {
	return s.mutate(ctx, meta.RoomID, func(room *domain.Room, out *outbox) error {
		participant, err := room.SubmitResult(meta.UserID, cmd.Result)
		if err != nil {
			return err
		}
		out.add(event.SolveStatusUpdate, event.SolveStatusPayload{
			ParticipantID: participant.ParticipantID(),
			UserID:        meta.UserID,
			Status:        participant.SolveStatus(),
			Result:        participant.CurrentResult(),
		})
		return s.advanceIfComplete(ctx, room, out)
	})
}

func (s *RoomService) CreateTeams(ctx context.Context, meta domain.CommandMeta, cmd domain.CreateTeamsCommand) error {
	return s.mutate(ctx, meta.RoomID, func(room *domain.Room, out *outbox) error {
		names := make([]string, len(cmd.Names))
		for i, name := range cmd.Names {
			names[i] = s.censor(name)
		}
		if _, err := room.CreateTeams(names); err != nil {
			return err
		}
		out.addTeams(room)
		return nil
	})
}

func (s *RoomService) DeleteTeam(ctx context.Context, meta domain.CommandMeta, cmd domain.DeleteTeamCommand) error {
	return s.mutate(ctx, meta.RoomID, func(room *domain.Room, out *outbox) error {
		if err := room.DeleteTeam(cmd.TeamID); err != nil {
			return err
		}
		out.addTeams(room)
		return nil
	})
}

func (s *RoomService) JoinTeam(ctx context.Context, meta domain.CommandMeta, cmd domain.JoinTeamCommand) error {
	return s.mutate(ctx, meta.RoomID, func(room *domain.Room, out *outbox) error {
		if err := room.JoinTeam(meta.UserID, cmd.TeamID); err != nil {
			return err
		}
		out.addTeams(room)
		return nil
	})
}

func (s *RoomService) LeaveTeam(ctx context.Context, meta domain.CommandMeta, _ domain.LeaveTeamCommand) error {
	return s.mutate(ctx, meta.RoomID, func(room *domain.Room, out *outbox) error {
		if err := room.LeaveTeam(meta.UserID); err != nil {
			return err
		}
		out.addTeams(room)
		return nil
	})
}

func (s *RoomService) StartRoom(ctx context.Context, meta domain.CommandMeta, _ domain.StartRoomCommand) error {
	return s.mutate(ctx, meta.RoomID, func(room *domain.Room, out *outbox) error {
		transitions, err := room.Start(ctx, s.scrambler)
		if err != nil {
			return err
		}
		out.addRoom(room)
		out.addTransitions(room, transitions)
		return nil
	})
}

func (s *RoomService) RematchRoom(ctx context.Context, meta domain.CommandMeta, _ domain.RematchRoomCommand) error {
	return s.mutate(ctx, meta.RoomID, func(room *domain.Room, out *outbox) error {
		transitions, err := room.Rematch(ctx, s.scrambler)
		if err != nil {
			return err
		}
		out.addRoom(room)
		out.addTransitions(room, transitions)
		return nil
	})
}

func (s *RoomService) ResetRoom(ctx context.Context, meta domain.CommandMeta, _ domain.ResetRoomCommand) error {
	return s.mutate(ctx, meta.RoomID, func(room *domain.Room, out *outbox) error {
		room.Reset()
		out.addRoom(room)
		return nil
	})
}

func (s *RoomService) NewScramble(ctx context.Context, meta domain.CommandMeta, _ domain.NewScrambleCommand) error {
	return s.mutate(ctx, meta.RoomID, func(room *domain.Room, out *outbox) error {
		transition, err := room.RefreshScramble(ctx, s.scrambler)
		if err != nil {
			return err
		}
		out.addTransitions(room, []domain.Transition{transition})
		return nil
	})
}

func (s *RoomService) ForceNextSolve(ctx context.Context, meta domain.CommandMeta, _ domain.ForceNextSolveCommand) error {
	return s.mutate(ctx, meta.RoomID, func(room *domain.Room, out *outbox) error {
		transitions, err := room.Advance(ctx, s.scrambler)
		if err != nil {
			return err
		}
		out.addTransitions(room, transitions)
		return nil
	})
}

func (s *RoomService) KickUser(ctx context.Context, meta domain.CommandMeta, cmd domain.KickUserCommand) error {
	return s.mutate(ctx, meta.RoomID, func(room *domain.Room, out *outbox) error {
		if err := room.Kick(cmd.UserID); err != nil {
			return err
		}
		out.addTo(cmd.UserID, event.UserKicked, event.UserIDPayload{UserID: cmd.UserID})
		return s.afterDeparture(ctx, room, out)
	})
}

func (s *RoomService) BanUser(ctx context.Context, meta domain.CommandMeta, cmd domain.BanUserCommand) error {
	return s.mutate(ctx, meta.RoomID, func(room *domain.Room, out *outbox) error {
		if err := room.Ban(cmd.UserID); err != nil {
			return err
		}
		out.addTo(cmd.UserID, event.UserBanned, event.UserIDPayload{UserID: cmd.UserID})
		return s.afterDeparture(ctx, room, out)
	})
}

func (s *RoomService) UnbanUser(ctx context.Context, meta domain.CommandMeta, cmd domain.UnbanUserCommand) error {
	return s.mutate(ctx, meta.RoomID, func(room *domain.Room, out *outbox) error {
		room.Unban(cmd.UserID)
		out.addTo(cmd.UserID, event.UserUnbanned, event.UserIDPayload{UserID: cmd.UserID})
		out.addRoom(room)
		return nil
	})
}

func (s *RoomService) LeaveRoom(ctx context.Context, meta domain.CommandMeta, _ domain.LeaveRoomCommand) error {
	return s.mutate(ctx, meta.RoomID, func(room *domain.Room, out *outbox) error {
		if err := room.Leave(meta.UserID); err != nil {
			return err
		}
		out.add(event.UserLeft, event.UserIDPayload{UserID: meta.UserID})
		return s.afterDeparture(ctx, room, out)
	})
}

// DeleteRoom removes the room for good. Its processor notices on the next
// iteration and stops.
func (s *RoomService) DeleteRoom(ctx context.Context, meta domain.CommandMeta, _ domain.DeleteRoomCommand) error {
	if err := s.store.DeleteRoom(meta.RoomID); err != nil {
		return err
	}
	if err := s.queue.PurgeRoomEvents(meta.RoomID); err != nil {
		s.log.Warn("Failed to purge deleted room queue", "room_id", meta.RoomID, "error", err)
	}
	out := &outbox{roomID: meta.RoomID}
	out.add(event.RoomDeleted, event.UserIDPayload{UserID: meta.UserID})
	s.log.Info("Room deleted", "room_id", meta.RoomID, "user_id", meta.UserID)
	s.publish(ctx, out.events)
	return nil
}

// afterDeparture runs once a user stopped playing: the solve may now be
// complete, and an empty room starts its deletion grace.
func (s *RoomService) afterDeparture(ctx context.Context, room *domain.Room, out *outbox) error {
	out.addRoom(room)
	if room.ActiveUserCount() == 0 {
		out.expire = true
	}
	return s.advanceIfComplete(ctx, room, out)
}

func (s *RoomService) advanceIfComplete(ctx context.Context, room *domain.Room, out *outbox) error {
	transitions, err := room.AdvanceIfComplete(ctx, s.scrambler)
	if err != nil {
		return err
	}
	out.addTransitions(room, transitions)
	return nil
}

// mutate runs fn on the stored room and writes the result. Events are only
// published once the document is written; a failing fn writes and
// publishes nothing.
func (s *RoomService) mutate(ctx context.Context, roomID string, fn func(room *domain.Room, out *outbox) error) error {
	out := &outbox{roomID: roomID}
	_, err := s.store.UpdateRoomFunction(roomID, func(room *domain.Room) error {
		if err := fn(room, out); err != nil {
			return err
		}
		return out.err
	})
	if err != nil {
		return err
	}
	switch {
	case out.keep:
		err = s.store.PersistRoom(roomID)
	case out.expire:
		s.log.Info("Room is empty, scheduling deletion", "room_id", roomID)
		err = s.store.ScheduleRoomForDeletion(roomID)
	}
	if err != nil {
		return err
	}
	s.publish(ctx, out.events)
	return nil
}

func (s *RoomService) publish(ctx context.Context, events []event.RoomEvent) {
	for _, e := range events {
		if err := s.broadcaster.Broadcast(ctx, e); err != nil {
			s.log.Warn("Failed to broadcast room event", "room_id", e.RoomID, "event", e.Name, "error", err)
		}
	}
}
