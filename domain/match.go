package domain

// Attempt is what one user submitted for a solve. In team mode several
// members may attempt the same solve for one team.
type Attempt struct {
	UserID string `json:"userId"`
	Result Result `json:"result"`
}

// Solve is one timed attempt at shared scrambles by all competing participants.
// SetWinners and MatchWinners are only filled on the terminal solve of their scope.
type Solve struct {
	ID           int                `json:"id"`
	Scrambles    []string           `json:"scrambles"`
	Attempts     map[string]Attempt `json:"attempts"`
	Results      map[string]Result  `json:"results"`
	SolveWinners []string           `json:"solveWinners"`
	SetWinners   []string           `json:"setWinners,omitempty"`
	MatchWinners []string           `json:"matchWinners,omitempty"`
	Finished     bool               `json:"finished"`
}

// ResultOf returns the participant's result, DNF when missing.
func (s *Solve) ResultOf(participantID string) Result {
	if r, ok := s.Results[participantID]; ok {
		return r
	}
	return DNFResult
}

type Set struct {
	ID       int      `json:"id"`
	Solves   []*Solve `json:"solves"`
	Winners  []string `json:"winners"`
	Finished bool     `json:"finished"`
}

// ResultsOf lists the participant's results over the set, missing counting as DNF.
func (s *Set) ResultsOf(participantID string) []Result {
	results := make([]Result, 0, len(s.Solves))
	for _, solve := range s.Solves {
		results = append(results, solve.ResultOf(participantID))
	}
	return results
}

type Match struct {
	Sets     []*Set   `json:"sets"`
	Winners  []string `json:"winners"`
	Finished bool     `json:"finished"`
}

func NewMatch() Match {
	return Match{Sets: []*Set{}, Winners: []string{}}
}
