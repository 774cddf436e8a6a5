package timeline

import "sync"

// Runner serializes generation passes per profile. The UI resume hook can
// fire again before a prior pass finishes; re-entering the generator would
// race duplicate-chapter creation. Requests arriving while a pass is in
// flight are coalesced into exactly one deferred follow-up pass: run now if
// idle; if busy, mark dirty; on completion, if dirty, clear the flag and run
// once more.
type Runner struct {
	mu      sync.Mutex
	flights map[string]*flight
}

type flight struct {
	dirty bool
}

func NewRunner() *Runner {
	return &Runner{
		flights: make(map[string]*flight),
	}
}

// Do runs fn for the given key, or records a rerun request when a run for the
// key is already in flight. Coalesced callers return nil immediately; the
// deferred pass executes on the in-flight caller's goroutine and its error is
// reported to that caller.
func (r *Runner) Do(key string, fn func() error) error {
	r.mu.Lock()
	if f, ok := r.flights[key]; ok {
		f.dirty = true
		r.mu.Unlock()
		return nil
	}
	f := &flight{}
	r.flights[key] = f
	r.mu.Unlock()

	var err error
	for {
		err = fn()

		r.mu.Lock()
		if f.dirty {
			f.dirty = false
			r.mu.Unlock()
			continue
		}
		delete(r.flights, key)
		r.mu.Unlock()
		return err
	}
}

// Busy reports whether a run for the key is currently in flight.
func (r *Runner) Busy(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.flights[key]
	return ok
}
