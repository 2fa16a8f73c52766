package pipeline

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/fluencykaizen/backend/internal/procrun"
)

// ErrAborted is the distinct terminal outcome of a cancelled run. It
// is never reported to the caller as a failure event.
var ErrAborted = errors.New("caption generation aborted")

// Run is the ephemeral state of one generation invocation: its abort
// flag and the child processes it owns. The token is passed explicitly
// through the run so one caller's abort can never cancel another
// caller's generation.
type Run struct {
	ID string

	mu      sync.Mutex
	aborted bool
	procs   []*procrun.Command
}

func NewRun() *Run {
	return &Run{ID: uuid.New().String()}
}

// Abort flags the run as cancelled and kills every tracked process.
// Safe to call multiple times and from any goroutine.
func (r *Run) Abort() {
	r.mu.Lock()
	r.aborted = true
	procs := append([]*procrun.Command(nil), r.procs...)
	r.mu.Unlock()

	for _, p := range procs {
		p.Kill()
	}
}

func (r *Run) Aborted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.aborted
}

// track registers a child process so Abort and KillProcesses reach it.
// If the run was already aborted the process is killed immediately.
func (r *Run) track(cmd *procrun.Command) {
	r.mu.Lock()
	r.procs = append(r.procs, cmd)
	aborted := r.aborted
	r.mu.Unlock()

	if aborted {
		cmd.Kill()
	}
}

// KillProcesses terminates every tracked child process without marking
// the run aborted. Used on the failure path so no process outlives the
// run state.
func (r *Run) KillProcesses() {
	r.mu.Lock()
	procs := append([]*procrun.Command(nil), r.procs...)
	r.mu.Unlock()

	for _, p := range procs {
		p.Kill()
	}
}

// Registry tracks in-flight runs by ID so an out-of-band abort request
// can reach the right one.
type Registry struct {
	mu   sync.Mutex
	runs map[string]*Run
}

func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*Run)}
}

func (reg *Registry) Add(r *Run) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.runs[r.ID] = r
}

func (reg *Registry) Remove(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.runs, id)
}

// Abort cancels the run with the given ID. It reports whether a run
// with that ID was in flight.
func (reg *Registry) Abort(id string) bool {
	reg.mu.Lock()
	r, ok := reg.runs[id]
	reg.mu.Unlock()
	if ok {
		r.Abort()
	}
	return ok
}
