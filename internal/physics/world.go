// Package physics is a small rigid-body world for circles falling into a box.
// It implements game.PhysicsEngine and game.Stepper.
package physics

import (
	"math"
	"time"

	"github.com/pokestack/backend/internal/game"
)

const (
	// DefaultGravity is the downward acceleration in px/s².
	DefaultGravity = 1000.0
	// MaxSubstep bounds a single integration step.
	MaxSubstep = time.Second / 120
	// positionSlop is the penetration left uncorrected to keep stacks calm.
	positionSlop = 0.05
	// positionCorrection is the share of penetration removed per substep.
	positionCorrection = 0.8
	// restingSpeed is the normal speed below which contacts do not bounce.
	restingSpeed = 20.0
)

// Body is a body in the world.
type Body struct {
	ID       game.BodyID
	Shape    game.Shape
	Position game.Vec2
	Velocity game.Vec2
	Options  game.BodyOptions
	InWorld  bool
	invMass  float64
}

// BodyState is a read-only view of a body for rendering.
type BodyState struct {
	ID       game.BodyID `json:"id"`
	Position game.Vec2   `json:"position"`
	Radius   float64     `json:"radius,omitempty"`
	Static   bool        `json:"static,omitempty"`
	Label    string      `json:"label,omitempty"`
}

// World steps dynamic circles under gravity against each other and static boxes.
type World struct {
	Gravity  game.Vec2
	bodies   map[game.BodyID]*Body
	order    []game.BodyID
	nextID   game.BodyID
	contacts contactSet
}

// NewWorld creates an empty world with default gravity.
func NewWorld() *World {
	return &World{
		Gravity:  game.NewVec2(0, DefaultGravity),
		bodies:   make(map[game.BodyID]*Body),
		contacts: newContactSet(),
	}
}

func (w *World) CreateBody(shape game.Shape, pos game.Vec2, opts game.BodyOptions) game.BodyID {
	w.nextID++
	b := &Body{ID: w.nextID, Shape: shape, Position: pos, Options: opts}
	if !opts.Static {
		if area := shapeArea(shape); area > 0 {
			b.invMass = 1 / area
		}
	}
	w.bodies[b.ID] = b
	w.order = append(w.order, b.ID)
	return b.ID
}

func (w *World) AddToWorld(id game.BodyID) {
	if b, ok := w.bodies[id]; ok {
		b.InWorld = true
	}
}

// RemoveFromWorld drops the body for good. Unknown ids are ignored.
func (w *World) RemoveFromWorld(id game.BodyID) {
	if _, ok := w.bodies[id]; !ok {
		return
	}
	delete(w.bodies, id)
	w.contacts.forget(id)
	for i, o := range w.order {
		if o == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

func (w *World) SetVelocity(id game.BodyID, v game.Vec2) {
	if b, ok := w.bodies[id]; ok && !b.Options.Static {
		b.Velocity = v
	}
}

func (w *World) SetPosition(id game.BodyID, p game.Vec2) {
	if b, ok := w.bodies[id]; ok {
		b.Position = p
	}
}

func (w *World) Position(id game.BodyID) (game.Vec2, bool) {
	b, ok := w.bodies[id]
	if !ok || !b.InWorld {
		return game.Vec2{}, false
	}
	return b.Position, true
}

// Body returns the body with id, if any.
func (w *World) Body(id game.BodyID) (*Body, bool) {
	b, ok := w.bodies[id]
	return b, ok
}

// Bodies lists every body in the world in creation order.
func (w *World) Bodies() []BodyState {
	out := make([]BodyState, 0, len(w.order))
	for _, id := range w.order {
		b := w.bodies[id]
		if !b.InWorld {
			continue
		}
		out = append(out, BodyState{
			ID:       b.ID,
			Position: b.Position,
			Radius:   b.Shape.Radius,
			Static:   b.Options.Static,
			Label:    b.Options.Label,
		})
	}
	return out
}

// Step advances the world by dt in substeps of at most MaxSubstep. Pairs that
// started touching during the step are reported once, in detection order.
func (w *World) Step(dt time.Duration, onCollisionStart func([]game.CollisionPair)) {
	var started []game.CollisionPair
	for dt > 0 {
		h := min(dt, MaxSubstep)
		dt -= h
		started = append(started, w.substep(h.Seconds())...)
	}
	if len(started) > 0 && onCollisionStart != nil {
		onCollisionStart(started)
	}
}

func (w *World) substep(h float64) []game.CollisionPair {
	for _, id := range w.order {
		b := w.bodies[id]
		if !b.InWorld || b.Options.Static {
			continue
		}
		b.Velocity = b.Velocity.Plus(w.Gravity.Times(h))
		if air := b.Options.FrictionAir; air > 0 {
			b.Velocity = b.Velocity.Times(math.Max(0, 1-air))
		}
		b.Position = b.Position.Plus(b.Velocity.Times(h))
	}

	touching := make(map[pairKey]struct{})
	var started []game.CollisionPair
	for i, ida := range w.order {
		a := w.bodies[ida]
		if !collidable(a) {
			continue
		}
		for _, idb := range w.order[i+1:] {
			b := w.bodies[idb]
			if !collidable(b) || (a.Options.Static && b.Options.Static) {
				continue
			}
			c, ok := detect(a, b)
			if !ok {
				continue
			}
			resolve(c)
			key := newPairKey(a.ID, b.ID)
			touching[key] = struct{}{}
			if !w.contacts.has(key) {
				started = append(started, game.CollisionPair{A: a.ID, B: b.ID})
			}
		}
	}
	w.contacts.replace(touching)
	return started
}

func collidable(b *Body) bool {
	return b.InWorld && !b.Options.Ghost
}

// resolve separates the bodies and applies a restitution and friction impulse.
func resolve(c contact) {
	a, b := c.a, c.b
	invSum := a.invMass + b.invMass
	if invSum == 0 {
		return
	}

	if depth := c.depth - positionSlop; depth > 0 {
		corr := c.normal.Times(depth * positionCorrection / invSum)
		a.Position = a.Position.Minus(corr.Times(a.invMass))
		b.Position = b.Position.Plus(corr.Times(b.invMass))
	}

	rel := b.Velocity.Minus(a.Velocity)
	vn := rel.Dot(c.normal)
	if vn >= 0 {
		return
	}
	e := math.Max(a.Options.Restitution, b.Options.Restitution)
	if -vn < restingSpeed {
		e = 0
	}
	j := -(1 + e) * vn / invSum
	impulse := c.normal.Times(j)
	a.Velocity = a.Velocity.Minus(impulse.Times(a.invMass))
	b.Velocity = b.Velocity.Plus(impulse.Times(b.invMass))

	rel = b.Velocity.Minus(a.Velocity)
	tangent := rel.Minus(c.normal.Times(rel.Dot(c.normal))).Normalize()
	if tangent.IsZero() {
		return
	}
	mu := math.Sqrt(a.Options.Friction * b.Options.Friction)
	jt := -rel.Dot(tangent) / invSum
	if limit := j * mu; math.Abs(jt) > limit {
		jt = math.Copysign(limit, jt)
	}
	friction := tangent.Times(jt)
	a.Velocity = a.Velocity.Minus(friction.Times(a.invMass))
	b.Velocity = b.Velocity.Plus(friction.Times(b.invMass))
}

func shapeArea(s game.Shape) float64 {
	switch s.Kind {
	case game.ShapeCircle:
		return math.Pi * s.Radius * s.Radius
	case game.ShapeRect:
		return s.Width * s.Height
	}
	return 0
}
