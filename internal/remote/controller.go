package remote

import (
	"errors"
	"sync"
)

// ErrNoState is returned when no state has been recorded yet.
var ErrNoState = errors.New("no air-control state set")

// Controller holds the last-known desired state.
type Controller struct {
	mu    sync.RWMutex
	state *State
}

// NewController creates an empty Controller.
func NewController() *Controller {
	return &Controller{}
}

// State returns the recorded state, or ErrNoState.
func (c *Controller) State() (State, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state == nil {
		return State{}, ErrNoState
	}
	return *c.state, nil
}

// SetState replaces the recorded state.
func (c *Controller) SetState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = &s
}
