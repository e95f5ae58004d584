package gateway

import (
	"context"
	"cube-race/contract"
	"cube-race/domain/event"
	"sync"
)

var _ contract.EventSink = (*Correlator)(nil)

// Correlator pairs the COMMAND_RESULT events coming back from processors
// with the requests waiting on this node. Results for requests of other
// nodes are ignored.
type Correlator struct {
	mu      sync.Mutex
	pending map[string]chan event.CommandResultPayload
}

func NewCorrelator() *Correlator {
	return &Correlator{pending: make(map[string]chan event.CommandResultPayload)}
}

// Register must happen before the command is enqueued. The returned
// function forgets the request and is safe to call after the result arrived.
func (c *Correlator) Register(correlationID string) (<-chan event.CommandResultPayload, func()) {
	ch := make(chan event.CommandResultPayload, 1)
	c.mu.Lock()
	c.pending[correlationID] = ch
	c.mu.Unlock()
	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.pending[correlationID] == ch {
			delete(c.pending, correlationID)
		}
	}
}

func (c *Correlator) Consume(_ context.Context, e event.RoomEvent) error {
	if e.Name != event.CommandResult || e.CorrelationID == "" {
		return nil
	}
	c.mu.Lock()
	ch, ok := c.pending[e.CorrelationID]
	delete(c.pending, e.CorrelationID)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	res, err := e.CommandResult()
	if err != nil {
		return err
	}
	ch <- res
	return nil
}

func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
