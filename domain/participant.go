// Package domain contains the room document and the competition rules.
// This file defines participants: users, and teams of users.
// No runtime, network, or storage logic should be added here.
package domain

// Participant is anything that competes in a room and gets scored.
type Participant interface {
	ParticipantID() string
	Points() Score
	SetPoints(points Score)
	SetWins() int
	AddSetWin()
	ResetScore()
	SolveStatus() SolveStatus
	SetSolveStatus(status SolveStatus)
	CurrentResult() *Result
	SetCurrentResult(result *Result)
	IsActive() bool
	IsCompeting() bool
}

// Standing is the scoring state shared by users and teams.
// Score is the within-set score, Sets the number of sets won in the match.
type Standing struct {
	Score   Score       `json:"points"`
	Sets    int         `json:"setWins"`
	Status  SolveStatus `json:"solveStatus"`
	Current *Result     `json:"currentResult,omitempty"`
}

func (s *Standing) Points() Score                     { return s.Score }
func (s *Standing) SetPoints(points Score)            { s.Score = points }
func (s *Standing) SetWins() int                      { return s.Sets }
func (s *Standing) AddSetWin()                        { s.Sets++ }
func (s *Standing) SolveStatus() SolveStatus          { return s.Status }
func (s *Standing) SetSolveStatus(status SolveStatus) { s.Status = status }
func (s *Standing) CurrentResult() *Result            { return s.Current }
func (s *Standing) SetCurrentResult(result *Result)   { s.Current = result }

func (s *Standing) ResetScore() {
	s.Score = 0
	s.Sets = 0
	s.Status = StatusIdle
	s.Current = nil
}

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	Competing bool   `json:"competing"`
	TeamID    string `json:"teamId,omitempty"`
	Standing
}

func (u *User) ParticipantID() string { return u.ID }
func (u *User) IsActive() bool        { return u.Active }
func (u *User) IsCompeting() bool     { return u.Competing }

// Team flags mirror its members: active or competing when any member is.
type Team struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	Active    bool     `json:"active"`
	Competing bool     `json:"competing"`
	Standing
}

func (t *Team) ParticipantID() string { return t.ID }
func (t *Team) IsActive() bool        { return t.Active }
func (t *Team) IsCompeting() bool     { return t.Competing }

var (
	_ Participant = (*User)(nil)
	_ Participant = (*Team)(nil)
)
