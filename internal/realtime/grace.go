package realtime

import (
	"sync"
	"time"
)

type graceTimer struct {
	timer *time.Timer
	gen   uint64
}

// Grace holds at most one pending offline timer per user.
type Grace struct {
	mu      sync.Mutex
	timers  map[string]*graceTimer
	gen     uint64
	stopped bool
}

// NewGrace returns a scheduler with no pending timers.
func NewGrace() *Grace {
	return &Grace{timers: make(map[string]*graceTimer)}
}

// Arm schedules onExpire for userID after delay, replacing any timer already
// pending for that user. A replaced timer never runs its callback.
func (g *Grace) Arm(userID string, delay time.Duration, onExpire func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stopped {
		return
	}
	if old, ok := g.timers[userID]; ok {
		old.timer.Stop()
	}

	g.gen++
	gen := g.gen
	g.timers[userID] = &graceTimer{
		gen:   gen,
		timer: time.AfterFunc(delay, func() { g.fire(userID, gen, onExpire) }),
	}
}

func (g *Grace) fire(userID string, gen uint64, onExpire func()) {
	g.mu.Lock()
	cur, ok := g.timers[userID]
	if !ok || cur.gen != gen {
		// cancelled or replaced after the runtime already started this callback
		g.mu.Unlock()
		return
	}
	delete(g.timers, userID)
	g.mu.Unlock()

	onExpire()
}

// Cancel drops the pending timer for userID and reports whether there was one.
func (g *Grace) Cancel(userID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	t, ok := g.timers[userID]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(g.timers, userID)
	return true
}

// Pending reports whether userID has a timer that has not fired yet.
func (g *Grace) Pending(userID string) bool {
	g.mu.Lock()
	_, ok := g.timers[userID]
	g.mu.Unlock()
	return ok
}

// Stop drops every pending timer. Arm is a no-op afterwards.
func (g *Grace) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for id, t := range g.timers {
		t.timer.Stop()
		delete(g.timers, id)
	}
	g.stopped = true
}
