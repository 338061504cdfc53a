package game

import "time"

// fakeBody is a body in fakeEngine.
type fakeBody struct {
	shape   Shape
	pos     Vec2
	vel     Vec2
	opts    BodyOptions
	inWorld bool
}

// fakeEngine records calls and lets tests place bodies by hand.
type fakeEngine struct {
	nextID  BodyID
	bodies  map[BodyID]*fakeBody
	removed int
	steps   int
	pending [][]CollisionPair // batches handed out by Step, one per call
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{bodies: make(map[BodyID]*fakeBody)}
}

func (f *fakeEngine) CreateBody(shape Shape, pos Vec2, opts BodyOptions) BodyID {
	f.nextID++
	f.bodies[f.nextID] = &fakeBody{shape: shape, pos: pos, opts: opts}
	return f.nextID
}

func (f *fakeEngine) AddToWorld(id BodyID) {
	if b, ok := f.bodies[id]; ok {
		b.inWorld = true
	}
}

func (f *fakeEngine) RemoveFromWorld(id BodyID) {
	if b, ok := f.bodies[id]; ok && b.inWorld {
		b.inWorld = false
		f.removed++
	}
}

func (f *fakeEngine) SetVelocity(id BodyID, v Vec2) {
	if b, ok := f.bodies[id]; ok {
		b.vel = v
	}
}

func (f *fakeEngine) SetPosition(id BodyID, p Vec2) {
	if b, ok := f.bodies[id]; ok {
		b.pos = p
	}
}

func (f *fakeEngine) Position(id BodyID) (Vec2, bool) {
	b, ok := f.bodies[id]
	if !ok || !b.inWorld {
		return Vec2{}, false
	}
	return b.pos, true
}

func (f *fakeEngine) Step(dt time.Duration, onCollisionStart func([]CollisionPair)) {
	f.steps++
	if len(f.pending) == 0 {
		return
	}
	batch := f.pending[0]
	f.pending = f.pending[1:]
	onCollisionStart(batch)
}

// inWorld counts bodies currently in the world.
func (f *fakeEngine) inWorld() int {
	n := 0
	for _, b := range f.bodies {
		if b.inWorld {
			n++
		}
	}
	return n
}

// eventLog collects notifications.
type eventLog struct {
	events []Event
}

func (l *eventLog) Notify(e Event) {
	l.events = append(l.events, e)
}

func (l *eventLog) count(kind EventKind) int {
	n := 0
	for _, e := range l.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (l *eventLog) last(kind EventKind) (Event, bool) {
	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Kind == kind {
			return l.events[i], true
		}
	}
	return Event{}, false
}
