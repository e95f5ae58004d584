package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"slices"
	"strconv"
)

type Penalty string

const (
	PenaltyOK      Penalty = "OK"
	PenaltyPlusTwo Penalty = "+2"
	PenaltyDNF     Penalty = "DNF"
)

// plusTwoCentis is the cost of a +2 penalty.
const plusTwoCentis = 200

// Result is a recorded solve time in centiseconds.
type Result struct {
	Time    int64   `json:"time" validate:"gte=0"`
	Penalty Penalty `json:"penalty" validate:"oneof=OK +2 DNF"`
}

// Effective returns the time used for ranking. DNF is +Inf.
func (r Result) Effective() Score {
	switch r.Penalty {
	case PenaltyDNF:
		return ScoreDNF
	case PenaltyPlusTwo:
		return Score(r.Time + plusTwoCentis)
	default:
		return Score(r.Time)
	}
}

func (r Result) IsDNF() bool {
	return r.Penalty == PenaltyDNF
}

// DNFResult is what a missing result counts as in aggregates.
var DNFResult = Result{Penalty: PenaltyDNF}

// Score holds either a win count or an aggregate time in centiseconds.
type Score float64

var ScoreDNF = Score(math.Inf(1))

// ScoreUnavailable is returned by AverageOf when fewer than three results exist.
const ScoreUnavailable Score = -1

func (s Score) IsDNF() bool {
	return math.IsInf(float64(s), 1)
}

func (s Score) IsUnavailable() bool {
	return s == ScoreUnavailable
}

var dnfJSON = []byte(`"DNF"`)

// MarshalJSON writes +Inf as "DNF" because JSON has no infinity.
func (s Score) MarshalJSON() ([]byte, error) {
	if s.IsDNF() {
		return dnfJSON, nil
	}
	return strconv.AppendFloat(nil, float64(s), 'f', -1, 64), nil
}

func (s *Score) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, dnfJSON) {
		*s = ScoreDNF
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Score(f)
	return nil
}

func effectiveTimes(results []Result) []Score {
	times := make([]Score, len(results))
	for i, r := range results {
		times[i] = r.Effective()
	}
	return times
}

// AverageOf drops the single best and single worst effective time and
// averages the rest. Two or more DNFs make the average DNF.
func AverageOf(results []Result) Score {
	if len(results) < 3 {
		return ScoreUnavailable
	}
	times := effectiveTimes(results)
	slices.Sort(times)
	trimmed := times[1 : len(times)-1]
	var sum Score
	for _, t := range trimmed {
		if t.IsDNF() {
			return ScoreDNF
		}
		sum += t
	}
	return sum / Score(len(trimmed))
}

// MeanOf is the arithmetic mean of effective times. One DNF poisons it.
func MeanOf(results []Result) Score {
	if len(results) == 0 {
		return ScoreUnavailable
	}
	var sum Score
	for _, t := range effectiveTimes(results) {
		if t.IsDNF() {
			return ScoreDNF
		}
		sum += t
	}
	return sum / Score(len(results))
}

// FastestOf is the best effective time, DNF when every result is DNF.
func FastestOf(results []Result) Score {
	if len(results) == 0 {
		return ScoreUnavailable
	}
	return slices.Min(effectiveTimes(results))
}

// Aggregate applies the aggregate of an aggregate set format.
func Aggregate(format SetFormat, results []Result) (Score, bool) {
	switch format {
	case SetAverageOf:
		return AverageOf(results), true
	case SetMeanOf:
		return MeanOf(results), true
	case SetFastestOf:
		return FastestOf(results), true
	default:
		return 0, false
	}
}
