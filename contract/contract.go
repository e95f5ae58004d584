//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"cube-race/domain"
	"cube-race/domain/event"
	"encoding/json"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
	Wait()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// Retirable workers are asked, after a crash, whether running them again
// can still achieve anything.
type Retirable interface {
	Worker
	ShouldRestart() bool
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// RoomStore is the authoritative room document store.
// Writers must own the room: there is no locking.
type RoomStore interface {
	SetRoom(room *domain.Room) error
	GetRoom(roomID string) (*domain.Room, error)
	GetRoomProp(roomID, path string) (json.RawMessage, error)
	RoomExists(roomID string) (bool, error)
	UpdateRoomFunction(roomID string, fn func(room *domain.Room) error) (*domain.Room, error)
	ScheduleRoomForDeletion(roomID string) error
	PersistRoom(roomID string) error
	DeleteRoom(roomID string) error
	ListRoomIDs() ([]string, error)
	GetRoomsPage(page, size int, includePrivate bool) (domain.RoomsPage, error)
}

// EventQueue holds one FIFO of commands per room.
type EventQueue interface {
	EnqueueRoomEvent(cmd domain.QueuedCommand) error
	PopRoomEvent(ctx context.Context, roomID string, timeout time.Duration) (*domain.QueuedCommand, error)
	PurgeRoomEvents(roomID string) error
}

// LeaseStore decides which node processes a room.
type LeaseStore interface {
	AcquireLease(roomID, owner string, ttl time.Duration) (bool, error)
	ReleaseLease(roomID, owner string) error
	LeaseOwner(roomID string) (string, bool, error)
}

// Broadcaster delivers room events to every node's connected clients.
type Broadcaster interface {
	Broadcast(ctx context.Context, e event.RoomEvent) error
}

// CommandHandler applies one queued command to its room.
type CommandHandler interface {
	Handle(ctx context.Context, cmd domain.QueuedCommand) error
}

// ProcessorRegistry starts and stops the room processors of this node.
type ProcessorRegistry interface {
	StartRoomProcessor(roomID string) bool
	StopRoomProcessor(roomID string)
	Owned() []string
}

// QueueInspector reports how many commands wait in a room's queue.
type QueueInspector interface {
	Len(roomID string) (int, error)
}

// NameFilter cleans a name before other players see it.
type NameFilter interface {
	Censor(name string) string
}

// RoomCreator writes brand new rooms.
type RoomCreator interface {
	CreateRoom(ctx context.Context, hostID string, settings domain.RoomSettings, password *string) (*domain.Room, error)
}

// EventSink receives the room events one client is allowed to see.
type EventSink interface {
	Consume(ctx context.Context, e event.RoomEvent) error
}

// IRegistry tracks which local sessions listen to which room.
// It never holds room state.
type IRegistry interface {
	Subscribe(sessionID, userID, roomID string, sink EventSink)
	Unsubscribe(sessionID string)
	GetSinksForEvent(e event.RoomEvent) []EventSink
}

// EventSubscriber streams the room events published by every node.
type EventSubscriber interface {
	Subscribe(ctx context.Context) (<-chan event.RoomEvent, error)
}
