package services

import (
	"cube-race/domain"
	"cube-race/domain/event"
)

// outbox collects the events of one command. Payloads are encoded when
// added, so they describe the document as it was at that point.
type outbox struct {
	roomID string
	events []event.RoomEvent
	err    error
	keep   bool
	expire bool
}

func (o *outbox) add(name event.Name, payload any) {
	o.addTo("", name, payload)
}

func (o *outbox) addTo(userID string, name event.Name, payload any) {
	if o.err != nil {
		return
	}
	e, err := event.New(o.roomID, name, payload)
	if err != nil {
		o.err = err
		return
	}
	o.events = append(o.events, e.To(userID))
}

func (o *outbox) addRoom(room *domain.Room) {
	o.add(event.RoomUpdate, event.RoomPayload{Room: room.Sanitized()})
}

func (o *outbox) addTeams(room *domain.Room) {
	o.add(event.TeamsUpdate, event.TeamsPayload{Teams: room.Teams})
}

func (o *outbox) addTransitions(room *domain.Room, transitions []domain.Transition) {
	for _, t := range transitions {
		switch t.Kind {
		case domain.SolveFinished:
			o.add(event.SolveFinished, event.WinnersPayload{Set: t.Set, Solve: t.Solve, Winners: t.Winners})
		case domain.SetFinished:
			o.add(event.SetFinished, event.WinnersPayload{Set: t.Set, Winners: t.Winners})
		case domain.MatchFinished:
			o.add(event.MatchFinished, event.WinnersPayload{Winners: t.Winners})
			o.addRoom(room)
		case domain.SetStarted:
			o.add(event.NewSet, event.NewSetPayload{Set: t.Set})
		case domain.SolveStarted:
			o.add(event.NewSolve, event.SolvePayload{Set: t.Set, Solve: solveAt(room, t.Set, t.Solve)})
		}
	}
}

func solveAt(room *domain.Room, set, solve int) *domain.Solve {
	if set < 1 || set > len(room.Match.Sets) {
		return nil
	}
	solves := room.Match.Sets[set-1].Solves
	if solve < 1 || solve > len(solves) {
		return nil
	}
	return solves[solve-1]
}
