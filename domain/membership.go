package domain

import (
	"cube-race/errors"
	"reflect"

	"github.com/samber/lo"
)

// Join adds the user or reactivates a returning one. Users joining a
// started room spectate until they toggle competing.
func (r *Room) Join(userID, name string) *User {
	user, ok := r.Users[userID]
	if !ok {
		user = &User{ID: userID, Standing: Standing{Status: StatusIdle}}
		user.Competing = r.State == Waiting
		r.Users[userID] = user
	}
	if name != "" {
		user.Name = name
	}
	user.Active = true
	if r.Host == "" || !r.IsMember(r.Host) {
		r.Host = userID
	}
	r.syncTeams()
	return user
}

// Leave deactivates the user and hands the host role to the next active user.
func (r *Room) Leave(userID string) error {
	user, ok := r.Users[userID]
	if !ok {
		return errors.ErrUserNotInRoom
	}
	user.Active = false
	if r.Host == userID {
		r.reassignHost()
	}
	r.syncTeams()
	return nil
}

func (r *Room) reassignHost() {
	active := lo.Filter(lo.Keys(r.Users), func(id string, _ int) bool { return r.Users[id].Active })
	if len(active) == 0 {
		return
	}
	r.Host = sortedIDs(active)[0]
}

func (r *Room) SetCompeting(userID string, competing bool) (*User, error) {
	user, ok := r.Users[userID]
	if !ok || !user.Active {
		return nil, errors.ErrUserNotInRoom
	}
	user.Competing = competing
	r.syncTeams()
	return user, nil
}

// Kick removes the user from play and from their team.
func (r *Room) Kick(userID string) error {
	user, ok := r.Users[userID]
	if !ok {
		return errors.ErrUserNotInRoom
	}
	user.Active = false
	user.Competing = false
	r.removeFromTeam(user)
	if r.Host == userID {
		r.reassignHost()
	}
	r.syncTeams()
	return nil
}

func (r *Room) Ban(userID string) error {
	if _, ok := r.Users[userID]; ok {
		if err := r.Kick(userID); err != nil {
			return err
		}
	}
	r.Banned[userID] = true
	return nil
}

func (r *Room) Unban(userID string) {
	delete(r.Banned, userID)
}

func (r *Room) IsBanned(userID string) bool {
	return r.Banned[userID]
}

// UpdateSettings replaces the settings. Changing how a started room is
// scored resets it. It reports whether a reset happened.
func (r *Room) UpdateSettings(settings RoomSettings) (bool, error) {
	if err := settings.Validate(); err != nil {
		return false, err
	}
	scoringChanged := settings.RoomFormat != r.Settings.RoomFormat ||
		settings.RoomEvent != r.Settings.RoomEvent ||
		!reflect.DeepEqual(settings.RaceSettings, r.Settings.RaceSettings) ||
		settings.TeamSettings.TeamsEnabled != r.Settings.TeamSettings.TeamsEnabled
	if !settings.TeamSettings.TeamsEnabled && r.TeamsEnabled() {
		r.clearTeams()
	}
	r.Settings = settings
	if scoringChanged && r.State != Waiting {
		r.Reset()
		return true, nil
	}
	return false, nil
}
