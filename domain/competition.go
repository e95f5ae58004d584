package domain

import (
	"context"
	"cube-race/errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

type TransitionKind string

const (
	SolveFinished TransitionKind = "SOLVE_FINISHED"
	SetFinished   TransitionKind = "SET_FINISHED"
	MatchFinished TransitionKind = "MATCH_FINISHED"
	SetStarted    TransitionKind = "SET_STARTED"
	SolveStarted  TransitionKind = "SOLVE_STARTED"
)

// Transition records one step of the solve/set/match cascade so that the
// caller can broadcast it after the document is persisted.
type Transition struct {
	Kind    TransitionKind `json:"kind"`
	Set     int            `json:"set"`
	Solve   int            `json:"solve"`
	Winners []string       `json:"winners,omitempty"`
}

func (r *Room) isRacing() bool {
	return r.Settings.RoomFormat == Racing
}

func (r *Room) race() RaceSettings {
	return r.Settings.RaceSettings
}

// Start moves a waiting room into play with its first set and solve.
func (r *Room) Start(ctx context.Context, generator ScrambleGenerator) ([]Transition, error) {
	if r.State != Waiting {
		return nil, errors.ErrRoomAlreadyStarted
	}
	r.State = Started
	transitions := []Transition{r.NewSet()}
	t, err := r.NewSolve(ctx, generator)
	if err != nil {
		return nil, err
	}
	return append(transitions, t), nil
}

// Rematch starts the same competition again from zero.
func (r *Room) Rematch(ctx context.Context, generator ScrambleGenerator) ([]Transition, error) {
	r.Reset()
	return r.Start(ctx, generator)
}

// Reset zeroes every score and drops the match. Settings, users and teams stay.
func (r *Room) Reset() {
	for _, s := range r.standings() {
		s.ResetScore()
	}
	r.Match = NewMatch()
	r.CurrentSet = 0
	r.CurrentSolve = 0
	r.State = Waiting
}

// NewSet allocates the next set. Points are a within-set score and start over.
func (r *Room) NewSet() Transition {
	set := &Set{ID: len(r.Match.Sets) + 1, Solves: []*Solve{}, Winners: []string{}}
	r.Match.Sets = append(r.Match.Sets, set)
	r.CurrentSet = len(r.Match.Sets)
	r.CurrentSolve = 0
	for _, s := range r.standings() {
		s.Score = 0
	}
	return Transition{Kind: SetStarted, Set: r.CurrentSet}
}

// NewSolve allocates the next solve of the current set with fresh scrambles.
// Nothing is changed when the generator fails.
func (r *Room) NewSolve(ctx context.Context, generator ScrambleGenerator) (Transition, error) {
	set := r.CurrentSetRef()
	if set == nil {
		return Transition{}, errors.ErrRoomNotStarted
	}
	scrambles, err := r.generateScrambles(ctx, generator)
	if err != nil {
		return Transition{}, err
	}
	solve := &Solve{
		ID:           r.solveCount() + 1,
		Scrambles:    scrambles,
		Attempts:     make(map[string]Attempt),
		Results:      make(map[string]Result),
		SolveWinners: []string{},
	}
	set.Solves = append(set.Solves, solve)
	r.CurrentSolve = len(set.Solves)
	r.clearCurrentResults()
	return Transition{Kind: SolveStarted, Set: r.CurrentSet, Solve: r.CurrentSolve}, nil
}

// RefreshScramble replaces the scrambles of the unfinished current solve
// and discards what was submitted against the old ones.
func (r *Room) RefreshScramble(ctx context.Context, generator ScrambleGenerator) (Transition, error) {
	solve := r.CurrentSolveRef()
	if solve == nil {
		return Transition{}, errors.ErrNoCurrentSolve
	}
	if solve.Finished {
		return Transition{}, errors.ErrSolveAlreadyFinished
	}
	scrambles, err := r.generateScrambles(ctx, generator)
	if err != nil {
		return Transition{}, err
	}
	solve.Scrambles = scrambles
	solve.Attempts = make(map[string]Attempt)
	solve.Results = make(map[string]Result)
	r.clearCurrentResults()
	return Transition{Kind: SolveStarted, Set: r.CurrentSet, Solve: r.CurrentSolve}, nil
}

// generateScrambles asks for one scramble, or one per team slot in team mode.
func (r *Room) generateScrambles(ctx context.Context, generator ScrambleGenerator) ([]string, error) {
	count := 1
	if r.TeamsEnabled() {
		for _, team := range r.Teams {
			count = max(count, len(team.Members))
		}
	}
	scrambles := make([]string, 0, count)
	for range count {
		scramble, err := generator.Generate(ctx, r.Settings.RoomEvent)
		if err != nil {
			return nil, fmt.Errorf("generate %s scramble: %w", r.Settings.RoomEvent, err)
		}
		scrambles = append(scrambles, scramble)
	}
	return scrambles, nil
}

func (r *Room) solveCount() int {
	return lo.SumBy(r.Match.Sets, func(s *Set) int { return len(s.Solves) })
}

func (r *Room) clearCurrentResults() {
	for _, s := range r.standings() {
		s.Current = nil
		s.Status = StatusIdle
	}
}

// SubmitResult records the user's result for the current solve and returns
// the participant it counts for.
func (r *Room) SubmitResult(userID string, result Result) (Participant, error) {
	if r.State != Started {
		return nil, errors.ErrRoomNotStarted
	}
	user, ok := r.Users[userID]
	if !ok || !user.Active {
		return nil, errors.ErrUserNotInRoom
	}
	if !user.Competing {
		return nil, errors.ErrNotCompeting
	}
	solve := r.CurrentSolveRef()
	if solve == nil {
		return nil, errors.ErrNoCurrentSolve
	}
	if solve.Finished {
		return nil, errors.ErrSolveAlreadyFinished
	}
	participant := r.participantOf(user)
	if participant == nil {
		return nil, errors.ErrTeamNotFound
	}
	id := participant.ParticipantID()
	solve.Attempts[id] = Attempt{UserID: userID, Result: result}
	solve.Results[id] = result
	participant.SetCurrentResult(&result)
	participant.SetSolveStatus(StatusSubmitted)
	if participant != Participant(user) {
		user.SetCurrentResult(&result)
		user.SetSolveStatus(StatusSubmitted)
	}
	return participant, nil
}

// CheckSolveFinished reports whether every active competing participant has
// a result for the current solve. Team solves never complete on their own
// and must be forced.
func (r *Room) CheckSolveFinished() bool {
	solve := r.CurrentSolveRef()
	if solve == nil || solve.Finished || r.TeamsEnabled() {
		return false
	}
	competing := r.CompetingParticipants()
	if len(competing) == 0 {
		return false
	}
	for id := range competing {
		if _, ok := solve.Results[id]; !ok {
			return false
		}
	}
	return true
}

// FinishSolve closes the current solve, picks its winners and scores it.
// It refuses to run twice on the same solve.
func (r *Room) FinishSolve() error {
	solve := r.CurrentSolveRef()
	if solve == nil {
		return errors.ErrNoCurrentSolve
	}
	if solve.Finished {
		return errors.ErrSolveAlreadyFinished
	}
	solve.SolveWinners = fastest(solve.Results)
	solve.Finished = true
	if r.isRacing() && r.race().SetFormat.IsAggregate() {
		for id, points := range r.aggregatePoints() {
			r.participant(id).SetPoints(points)
		}
	} else {
		for _, id := range solve.SolveWinners {
			if p := r.participant(id); p != nil {
				p.SetPoints(p.Points() + 1)
			}
		}
	}
	return nil
}

// fastest returns every participant sharing the best non-DNF time.
func fastest(results map[string]Result) []string {
	best := ScoreDNF
	var winners []string
	for id, res := range results {
		t := res.Effective()
		switch {
		case t.IsDNF():
		case t < best:
			best = t
			winners = []string{id}
		case t == best:
			winners = append(winners, id)
		}
	}
	if winners == nil {
		return []string{}
	}
	return sortedIDs(winners)
}

// setContenders are the participants an aggregate is computed for: anyone
// with a result in the set, plus everyone currently competing.
func (r *Room) setContenders(set *Set) []string {
	ids := lo.Keys(r.CompetingParticipants())
	for _, solve := range set.Solves {
		ids = append(ids, lo.Keys(solve.Results)...)
	}
	participants := r.Participants()
	return sortedIDs(lo.Filter(lo.Uniq(ids), func(id string, _ int) bool {
		_, ok := participants[id]
		return ok
	}))
}

// aggregatePoints computes each contender's aggregate over the finished
// solves of the current set.
func (r *Room) aggregatePoints() map[string]Score {
	set := r.CurrentSetRef()
	points := make(map[string]Score)
	if set == nil {
		return points
	}
	finished := &Set{Solves: lo.Filter(set.Solves, func(s *Solve, _ int) bool { return s.Finished })}
	for _, id := range r.setContenders(set) {
		agg, _ := Aggregate(r.race().SetFormat, finished.ResultsOf(id))
		if agg.IsUnavailable() {
			agg = 0
		}
		points[id] = agg
	}
	return points
}

// DerivedPoints recomputes within-set points from the recorded results alone.
func (r *Room) DerivedPoints() map[string]Score {
	if r.isRacing() && r.race().SetFormat.IsAggregate() {
		return r.aggregatePoints()
	}
	points := make(map[string]Score)
	for id := range r.Participants() {
		points[id] = 0
	}
	set := r.CurrentSetRef()
	if set == nil {
		return points
	}
	for _, solve := range set.Solves {
		if !solve.Finished {
			continue
		}
		for _, id := range solve.SolveWinners {
			if _, ok := points[id]; ok {
				points[id]++
			}
		}
	}
	return points
}

// CheckSetFinished reports whether the current set is decided.
// Casual rooms never finish sets.
func (r *Room) CheckSetFinished() bool {
	set := r.CurrentSetRef()
	solve := r.CurrentSolveRef()
	if !r.isRacing() || set == nil || set.Finished || solve == nil {
		return false
	}
	race := r.race()
	participants := lo.Values(r.Participants())
	switch race.SetFormat {
	case SetAverageOf, SetMeanOf, SetFastestOf:
		return r.CurrentSolve == race.NSolves && solve.Finished
	case SetBestOf:
		clinched := lo.SomeBy(participants, func(p Participant) bool {
			return float64(p.Points())*2 > float64(race.NSolves)
		})
		return clinched || (len(set.Solves) >= race.NSolves && solve.Finished)
	case SetFirstTo:
		return lo.SomeBy(participants, func(p Participant) bool {
			return p.Points() >= Score(race.NSolves)
		})
	default:
		return false
	}
}

// FindSetWinners returns the winners of the current set, several on a tie
// and none when every contender only has DNFs.
func (r *Room) FindSetWinners() ([]string, error) {
	set := r.CurrentSetRef()
	if set == nil {
		return nil, errors.ErrRoomNotStarted
	}
	race := r.race()
	participants := r.Participants()
	switch race.SetFormat {
	case SetBestOf:
		winners := idsWhere(participants, func(p Participant) bool {
			return float64(p.Points())*2 > float64(race.NSolves)
		})
		if len(winners) > 0 {
			return winners, nil
		}
		return mostPoints(participants), nil
	case SetFirstTo:
		return idsWhere(participants, func(p Participant) bool {
			return p.Points() >= Score(race.NSolves)
		}), nil
	case SetAverageOf, SetMeanOf, SetFastestOf:
		aggregates := make(map[string]Score)
		for _, id := range r.setContenders(set) {
			agg, _ := Aggregate(race.SetFormat, set.ResultsOf(id))
			if agg.IsUnavailable() {
				agg = ScoreDNF
			}
			aggregates[id] = agg
		}
		return lowest(aggregates), nil
	default:
		return nil, fmt.Errorf("%w: set format %q", errors.ErrUnsupportedFormat, race.SetFormat)
	}
}

// mostPoints breaks an exhausted best-of set by the highest non-zero points.
func mostPoints(participants map[string]Participant) []string {
	var top Score
	for _, p := range participants {
		top = max(top, p.Points())
	}
	if top <= 0 {
		return []string{}
	}
	return idsWhere(participants, func(p Participant) bool { return p.Points() == top })
}

func lowest(aggregates map[string]Score) []string {
	if len(aggregates) == 0 {
		return []string{}
	}
	best := slices.Min(lo.Values(aggregates))
	if best.IsDNF() {
		return []string{}
	}
	return sortedIDs(lo.Keys(lo.PickBy(aggregates, func(_ string, s Score) bool { return s == best })))
}

func idsWhere(participants map[string]Participant, keep func(Participant) bool) []string {
	return sortedIDs(lo.Keys(lo.PickBy(participants, func(_ string, p Participant) bool { return keep(p) })))
}

// FinishSet closes the current set and credits a set win to each winner.
func (r *Room) FinishSet() ([]string, error) {
	set := r.CurrentSetRef()
	if set == nil {
		return nil, errors.ErrRoomNotStarted
	}
	if set.Finished {
		return nil, errors.ErrSetAlreadyFinished
	}
	winners, err := r.FindSetWinners()
	if err != nil {
		return nil, err
	}
	for _, id := range winners {
		r.participant(id).AddSetWin()
	}
	set.Winners = winners
	set.Finished = true
	if solve := r.CurrentSolveRef(); solve != nil {
		solve.SetWinners = winners
	}
	return winners, nil
}

// CheckMatchFinished reports whether the match is decided. It needs the
// current set to be finished first.
func (r *Room) CheckMatchFinished() bool {
	set := r.CurrentSetRef()
	if !r.isRacing() || set == nil || !set.Finished || r.Match.Finished {
		return false
	}
	race := r.race()
	competing := lo.Values(r.CompetingParticipants())
	switch race.MatchFormat {
	case MatchBestOf:
		clinched := lo.SomeBy(competing, func(p Participant) bool {
			return p.SetWins()*2 > race.NSets
		})
		return clinched || len(r.Match.Sets) >= race.NSets
	case MatchFirstTo:
		return lo.SomeBy(competing, func(p Participant) bool {
			return p.SetWins() >= race.NSets
		})
	default:
		return false
	}
}

// FindMatchWinners returns the match winners. A best-of match that ran out
// of sets without a clinch goes to whoever won the most sets, including
// participants that are no longer in the room.
func (r *Room) FindMatchWinners() ([]string, error) {
	race := r.race()
	competing := r.CompetingParticipants()
	switch race.MatchFormat {
	case MatchBestOf:
		winners := idsWhere(competing, func(p Participant) bool { return p.SetWins()*2 > race.NSets })
		if len(winners) > 0 {
			return winners, nil
		}
		return mostSetWins(r.Participants()), nil
	case MatchFirstTo:
		return idsWhere(competing, func(p Participant) bool { return p.SetWins() >= race.NSets }), nil
	default:
		return nil, fmt.Errorf("%w: match format %q", errors.ErrUnsupportedFormat, race.MatchFormat)
	}
}

func mostSetWins(participants map[string]Participant) []string {
	top := 0
	for _, p := range participants {
		top = max(top, p.SetWins())
	}
	if top == 0 {
		return []string{}
	}
	return idsWhere(participants, func(p Participant) bool { return p.SetWins() == top })
}

// FinishMatch closes the match and the room.
func (r *Room) FinishMatch() ([]string, error) {
	winners, err := r.FindMatchWinners()
	if err != nil {
		return nil, err
	}
	r.Match.Winners = winners
	r.Match.Finished = true
	r.State = Finished
	if solve := r.CurrentSolveRef(); solve != nil {
		solve.MatchWinners = winners
	}
	return winners, nil
}

// Advance finishes the current solve and cascades: the set, the match,
// then allocates whatever comes next. Forcing skips the completeness check.
func (r *Room) Advance(ctx context.Context, generator ScrambleGenerator) ([]Transition, error) {
	if r.State != Started {
		return nil, errors.ErrRoomNotStarted
	}
	solve := r.CurrentSolveRef()
	if solve == nil {
		return nil, errors.ErrNoCurrentSolve
	}
	var transitions []Transition
	if !solve.Finished {
		if err := r.FinishSolve(); err != nil {
			return nil, err
		}
		transitions = append(transitions, Transition{
			Kind: SolveFinished, Set: r.CurrentSet, Solve: r.CurrentSolve, Winners: solve.SolveWinners,
		})
	}
	if r.CheckSetFinished() {
		winners, err := r.FinishSet()
		if err != nil {
			return nil, err
		}
		transitions = append(transitions, Transition{Kind: SetFinished, Set: r.CurrentSet, Winners: winners})
		if r.CheckMatchFinished() {
			winners, err = r.FinishMatch()
			if err != nil {
				return nil, err
			}
			return append(transitions, Transition{Kind: MatchFinished, Set: r.CurrentSet, Winners: winners}), nil
		}
		transitions = append(transitions, r.NewSet())
	}
	next, err := r.NewSolve(ctx, generator)
	if err != nil {
		return nil, err
	}
	return append(transitions, next), nil
}

// AdvanceIfComplete advances only when the current solve has every result.
func (r *Room) AdvanceIfComplete(ctx context.Context, generator ScrambleGenerator) ([]Transition, error) {
	if r.State != Started || !r.CheckSolveFinished() {
		return nil, nil
	}
	return r.Advance(ctx, generator)
}
