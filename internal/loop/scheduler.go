package loop

import (
	"sync"
	"time"
)

// FrameID identifies a pending frame request so it can be canceled.
type FrameID uint64

// Callback runs once on the frame it was requested for.
type Callback func(now time.Time)

// request is a single pending frame callback.
type request struct {
	id       FrameID
	cb       Callback
	canceled bool
}

// Scheduler is a display refresh signal: callbacks requested with
// RequestFrame run once on the next Tick. Callbacks requested while a tick
// is running are deferred to the following tick, so a callback that
// re-requests itself runs exactly once per frame.
//
// Safe for concurrent use. Callbacks run without the scheduler lock held, so
// they may request or cancel frames themselves.
type Scheduler struct {
	mu       sync.Mutex
	nextID   FrameID
	queue    []*request
	inflight []*request
}

// NewScheduler creates an idle scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// RequestFrame schedules cb for the next tick and returns its handle.
func (s *Scheduler) RequestFrame(cb Callback) FrameID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.queue = append(s.queue, &request{id: s.nextID, cb: cb})
	return s.nextID
}

// CancelFrame drops a pending request. Unknown or already-run handles are
// ignored. It never waits for a running callback.
func (s *Scheduler) CancelFrame(id FrameID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.queue {
		if r.id == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
	for _, r := range s.inflight {
		if r.id == id {
			r.canceled = true
			return
		}
	}
}

// Pending returns the number of callbacks waiting for the next tick.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Tick runs every callback requested before the tick started and returns
// how many ran.
func (s *Scheduler) Tick(now time.Time) int {
	s.mu.Lock()
	batch := s.queue
	s.queue = nil
	s.inflight = batch
	s.mu.Unlock()

	ran := 0
	for _, r := range batch {
		s.mu.Lock()
		canceled := r.canceled
		s.mu.Unlock()
		if canceled {
			continue
		}
		r.cb(now)
		ran++
	}

	s.mu.Lock()
	s.inflight = nil
	s.mu.Unlock()
	return ran
}
