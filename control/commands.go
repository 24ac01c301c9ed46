package control

import (
	"sync"

	"github.com/pthm-cable/stablefluid/config"
	"github.com/pthm-cable/stablefluid/fluid"
)

// Command is an external request applied to the simulation between ticks.
type Command interface {
	command()
}

// ForceCommand replaces the force event for the next tick.
type ForceCommand struct {
	Event fluid.ForceEvent
}

// ResetCommand reinitializes the fields from a preset.
type ResetCommand struct {
	Preset string
}

// ConfigureCommand applies a new solver configuration.
type ConfigureCommand struct {
	Solver config.SolverConfig
}

// PatchSolverCommand overlays a partial YAML or JSON solver section onto the
// configuration active when the command is applied.
type PatchSolverCommand struct {
	Data []byte
}

// PauseCommand stops the frame clock.
type PauseCommand struct{}

// PlayCommand resumes the frame clock.
type PlayCommand struct{}

func (ForceCommand) command()       {}
func (ResetCommand) command()       {}
func (ConfigureCommand) command()   {}
func (PatchSolverCommand) command() {}
func (PauseCommand) command()       {}
func (PlayCommand) command()        {}

// Queue collects commands from any goroutine for the simulation goroutine
// to drain between ticks.
type Queue struct {
	mu      sync.Mutex
	pending []Command
}

// Push appends a command.
func (q *Queue) Push(c Command) {
	q.mu.Lock()
	q.pending = append(q.pending, c)
	q.mu.Unlock()
}

// Drain returns every pending command in arrival order and empties the queue.
func (q *Queue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	out := q.pending
	q.pending = nil
	return out
}

// Len returns the number of pending commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
