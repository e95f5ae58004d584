package domain

type RoomFormat string

const (
	Casual RoomFormat = "CASUAL"
	Racing RoomFormat = "RACING"
)

type MatchFormat string

const (
	MatchBestOf  MatchFormat = "BEST_OF"
	MatchFirstTo MatchFormat = "FIRST_TO"
)

type SetFormat string

const (
	SetBestOf    SetFormat = "BEST_OF"
	SetFirstTo   SetFormat = "FIRST_TO"
	SetAverageOf SetFormat = "AVERAGE_OF"
	SetMeanOf    SetFormat = "MEAN_OF"
	SetFastestOf SetFormat = "FASTEST_OF"
)

// IsAggregate reports whether the set is decided by a time aggregate
// rather than by counting solve wins.
func (f SetFormat) IsAggregate() bool {
	switch f {
	case SetAverageOf, SetMeanOf, SetFastestOf:
		return true
	default:
		return false
	}
}

type RoomState string

const (
	Waiting  RoomState = "WAITING"
	Started  RoomState = "STARTED"
	Finished RoomState = "FINISHED"
)

type Visibility string

const (
	Public  Visibility = "PUBLIC"
	Private Visibility = "PRIVATE"
)

type SolveStatus string

const (
	StatusIdle      SolveStatus = "IDLE"
	StatusScramble  SolveStatus = "SCRAMBLING"
	StatusSolving   SolveStatus = "SOLVING"
	StatusSubmitted SolveStatus = "SUBMITTED"
)

// PuzzleEvent is a WCA-style event code such as "333" or "pyram".
type PuzzleEvent string
