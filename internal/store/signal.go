package store

import "sync"

// signal is a process-local, one-shot synchronization primitive bound to an
// Approval id. At most one waiter and any number of signalers; the
// signaler closes the channel exactly once (guarded by sync.Once) so a
// duplicate resolve is a no-op, and a signal set without a waiter is still
// observed immediately by a later waiter.
type signal struct {
	ch   chan struct{}
	once sync.Once
}

func newSignal() *signal {
	return &signal{ch: make(chan struct{})}
}

// Fire closes the channel if it has not already been closed. Safe to call
// more than once and from multiple goroutines.
func (s *signal) Fire() {
	s.once.Do(func() { close(s.ch) })
}

// Done returns the channel that is closed when Fire is first called.
func (s *signal) Done() <-chan struct{} {
	return s.ch
}

// signalRegistry holds one signal per pending Approval id, scoped to the
// lifetime of the process. Restart discards all signals; tasks left
// paused_for_approval across a restart cannot be resumed automatically.
type signalRegistry struct {
	mu      sync.Mutex
	signals map[string]*signal
}

func newSignalRegistry() *signalRegistry {
	return &signalRegistry{signals: make(map[string]*signal)}
}

// ensure returns the signal for id, creating it if this is the first time
// the id has been seen in this process.
func (r *signalRegistry) ensure(id string) *signal {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.signals[id]; ok {
		return s
	}
	s := newSignal()
	r.signals[id] = s
	return s
}

// get returns the signal for id and whether it is known to this process.
func (r *signalRegistry) get(id string) (*signal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.signals[id]
	return s, ok
}

// fire fires the signal for id if known, returning whether it fired one
// that existed. It does not create a signal for an unknown id.
func (r *signalRegistry) fire(id string) bool {
	r.mu.Lock()
	s, ok := r.signals[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	s.Fire()
	return true
}
