package domain

import (
	"context"
	"slices"
	"time"

	"github.com/samber/lo"
)

//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_scramble.go -package=mocks

// ScrambleGenerator produces a scramble for a puzzle event. It is called
// once per allocated solve and is not retried.
type ScrambleGenerator interface {
	Generate(ctx context.Context, event PuzzleEvent) (string, error)
}

// Room is the authoritative document of one competition session.
// CurrentSet and CurrentSolve are 1-based positions, 0 before the room starts.
type Room struct {
	ID           string           `json:"id"`
	Settings     RoomSettings     `json:"settings"`
	Host         string           `json:"host"`
	Users        map[string]*User `json:"users"`
	Teams        map[string]*Team `json:"teams"`
	Banned       map[string]bool  `json:"banned"`
	Match        Match            `json:"match"`
	CurrentSet   int              `json:"currentSet"`
	CurrentSolve int              `json:"currentSolve"`
	State        RoomState        `json:"state"`
	CreatedAt    time.Time        `json:"createdAt"`
	TeamSeq      int              `json:"teamSeq"`
}

func NewRoom(id string, settings RoomSettings, createdAt time.Time) *Room {
	return &Room{
		ID:        id,
		Settings:  settings,
		Users:     make(map[string]*User),
		Teams:     make(map[string]*Team),
		Banned:    make(map[string]bool),
		Match:     NewMatch(),
		State:     Waiting,
		CreatedAt: createdAt.UTC(),
	}
}

// Sanitized returns a shallow copy safe to send to clients.
func (r *Room) Sanitized() Room {
	c := *r
	c.Settings.Access.PasswordHash = nil
	return c
}

func (r *Room) TeamsEnabled() bool {
	return r.Settings.TeamSettings.TeamsEnabled
}

// Participants returns the scored entities: teams in team mode, users otherwise.
func (r *Room) Participants() map[string]Participant {
	participants := make(map[string]Participant)
	if r.TeamsEnabled() {
		for id, t := range r.Teams {
			participants[id] = t
		}
		return participants
	}
	for id, u := range r.Users {
		participants[id] = u
	}
	return participants
}

// CompetingParticipants returns participants both active and competing.
func (r *Room) CompetingParticipants() map[string]Participant {
	return lo.PickBy(r.Participants(), func(_ string, p Participant) bool {
		return p.IsActive() && p.IsCompeting()
	})
}

func (r *Room) participant(id string) Participant {
	return r.Participants()[id]
}

// participantOf resolves the participant a user scores for.
func (r *Room) participantOf(user *User) Participant {
	if !r.TeamsEnabled() {
		return user
	}
	if team, ok := r.Teams[user.TeamID]; ok {
		return team
	}
	return nil
}

// standings covers users and teams so that resets never miss one side.
func (r *Room) standings() []*Standing {
	res := make([]*Standing, 0, len(r.Users)+len(r.Teams))
	for _, u := range r.Users {
		res = append(res, &u.Standing)
	}
	for _, t := range r.Teams {
		res = append(res, &t.Standing)
	}
	return res
}

func (r *Room) CurrentSetRef() *Set {
	if r.CurrentSet < 1 || r.CurrentSet > len(r.Match.Sets) {
		return nil
	}
	return r.Match.Sets[r.CurrentSet-1]
}

func (r *Room) CurrentSolveRef() *Solve {
	set := r.CurrentSetRef()
	if set == nil || r.CurrentSolve < 1 || r.CurrentSolve > len(set.Solves) {
		return nil
	}
	return set.Solves[r.CurrentSolve-1]
}

// ActiveUserCount counts users currently in the room.
func (r *Room) ActiveUserCount() int {
	return lo.CountBy(lo.Values(r.Users), func(u *User) bool { return u.Active })
}

func (r *Room) IsMember(userID string) bool {
	u, ok := r.Users[userID]
	return ok && u.Active
}

func sortedIDs(ids []string) []string {
	slices.Sort(ids)
	return ids
}

// RoomsPage is one page of the room listing, newest rooms first.
type RoomsPage struct {
	Rooms []*Room `json:"rooms"`
	Page  int     `json:"page"`
	Size  int     `json:"size"`
	Total int     `json:"total"`
}
