package domain

import (
	"cube-race/errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// CreateTeams adds one empty team per name. Team ids come from a
// per-room sequence so replays produce the same document.
func (r *Room) CreateTeams(names []string) ([]*Team, error) {
	if !r.TeamsEnabled() {
		return nil, errors.ErrTeamsDisabled
	}
	created := make([]*Team, 0, len(names))
	for _, name := range names {
		r.TeamSeq++
		team := &Team{
			ID:       fmt.Sprintf("team-%d", r.TeamSeq),
			Name:     name,
			Members:  []string{},
			Standing: Standing{Status: StatusIdle},
		}
		r.Teams[team.ID] = team
		created = append(created, team)
	}
	return created, nil
}

func (r *Room) DeleteTeam(teamID string) error {
	team, ok := r.Teams[teamID]
	if !ok {
		return errors.ErrTeamNotFound
	}
	for _, member := range team.Members {
		if u, ok := r.Users[member]; ok {
			u.TeamID = ""
		}
	}
	delete(r.Teams, teamID)
	return nil
}

func (r *Room) JoinTeam(userID, teamID string) error {
	if !r.TeamsEnabled() {
		return errors.ErrTeamsDisabled
	}
	user, ok := r.Users[userID]
	if !ok || !user.Active {
		return errors.ErrUserNotInRoom
	}
	team, ok := r.Teams[teamID]
	if !ok {
		return errors.ErrTeamNotFound
	}
	if user.TeamID == teamID {
		return nil
	}
	maxSize := r.Settings.TeamSettings.MaxTeamSize
	if maxSize > 0 && len(team.Members) >= maxSize {
		return errors.ErrTeamFull
	}
	r.removeFromTeam(user)
	team.Members = append(team.Members, userID)
	slices.Sort(team.Members)
	user.TeamID = teamID
	r.syncTeams()
	return nil
}

func (r *Room) LeaveTeam(userID string) error {
	user, ok := r.Users[userID]
	if !ok {
		return errors.ErrUserNotInRoom
	}
	r.removeFromTeam(user)
	r.syncTeams()
	return nil
}

func (r *Room) removeFromTeam(user *User) {
	if team, ok := r.Teams[user.TeamID]; ok {
		team.Members = lo.Without(team.Members, user.ID)
	}
	user.TeamID = ""
}

func (r *Room) clearTeams() {
	for _, u := range r.Users {
		u.TeamID = ""
	}
	r.Teams = make(map[string]*Team)
}

// syncTeams recomputes team flags from their members.
func (r *Room) syncTeams() {
	for _, team := range r.Teams {
		team.Active, team.Competing = false, false
		for _, member := range team.Members {
			u, ok := r.Users[member]
			if !ok {
				continue
			}
			team.Active = team.Active || u.Active
			team.Competing = team.Competing || (u.Active && u.Competing)
		}
	}
}
