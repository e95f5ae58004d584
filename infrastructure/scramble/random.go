package scramble

import (
	"context"
	"cube-race/domain"
	"cube-race/errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
)

var _ domain.ScrambleGenerator = (*RandomMoves)(nil)

// face is a turnable layer. Faces sharing an axis commute, so two of them
// in a row followed by a third is a wasted move.
type face struct {
	name string
	axis int
}

type puzzle struct {
	faces     []face
	modifiers []string
	length    int
}

var cubeFaces = []face{{"U", 0}, {"D", 0}, {"R", 1}, {"L", 1}, {"F", 2}, {"B", 2}}

var bigCubeFaces = append(append([]face{}, cubeFaces...),
	face{"Uw", 0}, face{"Dw", 0}, face{"Rw", 1}, face{"Lw", 1}, face{"Fw", 2}, face{"Bw", 2})

var turns = []string{"", "'", "2"}

var puzzles = map[domain.PuzzleEvent]puzzle{
	"222":   {faces: []face{{"U", 0}, {"R", 1}, {"F", 2}}, modifiers: turns, length: 9},
	"333":   {faces: cubeFaces, modifiers: turns, length: 20},
	"333oh": {faces: cubeFaces, modifiers: turns, length: 20},
	"333bf": {faces: cubeFaces, modifiers: turns, length: 20},
	"444":   {faces: bigCubeFaces, modifiers: turns, length: 40},
	"555":   {faces: bigCubeFaces, modifiers: turns, length: 60},
	"pyram": {faces: []face{{"U", 0}, {"L", 1}, {"R", 2}, {"B", 3}}, modifiers: []string{"", "'"}, length: 11},
	"skewb": {faces: []face{{"U", 0}, {"L", 1}, {"R", 2}, {"B", 3}}, modifiers: []string{"", "'"}, length: 9},
}

// RandomMoves draws random face turns. It is not a random-state scrambler,
// which is fine for casual races.
type RandomMoves struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomMoves(seed uint64) *RandomMoves {
	return &RandomMoves{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func Supported(event domain.PuzzleEvent) bool {
	_, ok := puzzles[event]
	return ok
}

func (g *RandomMoves) Generate(ctx context.Context, event domain.PuzzleEvent) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, ok := puzzles[event]
	if !ok {
		return "", fmt.Errorf("%w: %s", errors.ErrUnknownPuzzle, event)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	moves := make([]string, 0, p.length)
	var previous, beforePrevious *face
	for len(moves) < p.length {
		f := p.faces[g.rnd.IntN(len(p.faces))]
		if previous != nil && previous.name == f.name {
			continue
		}
		if previous != nil && beforePrevious != nil &&
			previous.axis == f.axis && beforePrevious.axis == f.axis {
			continue
		}
		moves = append(moves, f.name+p.modifiers[g.rnd.IntN(len(p.modifiers))])
		beforePrevious, previous = previous, &f
	}
	return strings.Join(moves, " "), nil
}
