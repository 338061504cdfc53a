package game

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrRunnerStopped is returned when talking to a runner whose loop has exited.
var ErrRunnerStopped = errors.New("session runner stopped")

// DefaultTickRate is the session clock step, 60 Hz.
const DefaultTickRate = time.Second / 60

// Runner drives one Session on its own goroutine. Inputs and queries are
// funnelled through channels so the session is only touched by the loop.
type Runner struct {
	ID       string
	PlayerID string

	session  *Session
	tickRate time.Duration
	inputs   chan Input
	queries  chan func(*Session)
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	lastActivity atomic.Int64

	subMu sync.Mutex
	subs  map[int]chan Event
	subID int
	hook  Hook
}

// Hook sees every event on the loop goroutine before subscribers do. The
// session may be read during the call but must not be retained.
type Hook func(r *Runner, e Event, s *Session)

// NewRunner wires a session for id. hook may be nil.
func NewRunner(id, playerID string, settings Settings, engine PhysicsEngine, tickRate time.Duration, hook Hook) *Runner {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	r := &Runner{
		ID:       id,
		PlayerID: playerID,
		tickRate: tickRate,
		inputs:   make(chan Input, 64),
		queries:  make(chan func(*Session)),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		subs:     make(map[int]chan Event),
		hook:     hook,
	}
	r.session = NewSession(settings, engine, NotifierFunc(r.publish))
	r.touch()
	return r
}

// Run ticks the session until ctx is cancelled or Stop is called.
func (r *Runner) Run(ctx context.Context) {
	defer r.closeSubscribers()
	defer close(r.done)

	ticker := time.NewTicker(r.tickRate)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case in := <-r.inputs:
			r.session.Post(in)
		case q := <-r.queries:
			q(r.session)
		case now := <-ticker.C:
			r.session.Tick(now.Sub(last))
			last = now
		}
	}
}

// Start launches Run on a new goroutine.
func (r *Runner) Start(ctx context.Context) {
	go r.Run(ctx)
}

// Stop ends the loop and waits for it to exit. The loop must have been started.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

// Done is closed when the loop exits.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Send queues an input for the next tick.
func (r *Runner) Send(ctx context.Context, in Input) error {
	r.touch()
	select {
	case r.inputs <- in:
		return nil
	case <-r.done:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot reads the session state on the loop goroutine.
func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	q := func(s *Session) { reply <- s.Snapshot() }
	select {
	case r.queries <- q:
	case <-r.done:
		return Snapshot{}, ErrRunnerStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	return <-reply, nil
}

// Subscribe returns a buffered event stream. Slow subscribers miss events
// rather than stall the loop. The returned func unsubscribes.
func (r *Runner) Subscribe(buffer int) (<-chan Event, func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	ch := make(chan Event, buffer)
	if r.subs == nil {
		close(ch)
		return ch, func() {}
	}
	r.subID++
	id := r.subID
	r.subs[id] = ch
	return ch, func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		if c, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(c)
		}
	}
}

// LastActivity is the time of the last input.
func (r *Runner) LastActivity() time.Time {
	return time.Unix(0, r.lastActivity.Load())
}

func (r *Runner) touch() {
	r.lastActivity.Store(time.Now().UnixNano())
}

func (r *Runner) publish(e Event) {
	if r.hook != nil {
		r.hook(r, e, r.session)
	}
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (r *Runner) closeSubscribers() {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for id, ch := range r.subs {
		close(ch)
		delete(r.subs, id)
	}
	r.subs = nil
}
