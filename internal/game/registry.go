package game

import (
	"fmt"
	"time"
)

// Handle identifies a registry entity. The generation makes handles of removed
// entities stale once their slot is reused.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h was never issued.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

func (h Handle) String() string {
	return fmt.Sprintf("e%d.%d", h.index, h.gen)
}

// Entity is the game-side view of a ball body.
type Entity struct {
	Body      BodyID    `json:"-"`
	Tier      int       `json:"tier"`
	Merged    bool      `json:"merged"`
	Static    bool      `json:"static"`
	CreatedAt time.Time `json:"created_at"`
}

// SpawnFlags tweak how an entity's body is created.
type SpawnFlags struct {
	Static bool
	Ghost  bool
}

type slot struct {
	entity Entity
	gen    uint32
	live   bool
}

// Registry maps live physics bodies to game attributes.
type Registry struct {
	engine PhysicsEngine
	tiers  *TierTable
	now    func() time.Time
	slots  []slot
	free   []uint32
	byBody map[BodyID]Handle
}

// NewRegistry creates an empty registry backed by engine.
func NewRegistry(engine PhysicsEngine, tiers *TierTable, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		engine: engine,
		tiers:  tiers,
		now:    now,
		byBody: make(map[BodyID]Handle),
	}
}

// Spawn creates a ball of the given tier at (x, y) and adds it to the world.
func (r *Registry) Spawn(x, y float64, tier int, flags SpawnFlags) (Handle, error) {
	t, err := r.tiers.Tier(tier)
	if err != nil {
		return Handle{}, err
	}

	opts := DefaultBodyOptions()
	opts.Static = flags.Static
	opts.Ghost = flags.Ghost
	body := r.engine.CreateBody(Circle(t.Radius), NewVec2(x, y), opts)
	r.engine.AddToWorld(body)

	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = uint32(len(r.slots))
		r.slots = append(r.slots, slot{})
	}

	s := &r.slots[idx]
	s.gen++
	s.live = true
	s.entity = Entity{
		Body:      body,
		Tier:      tier,
		Static:    flags.Static,
		CreatedAt: r.now(),
	}

	h := Handle{index: idx, gen: s.gen}
	r.byBody[body] = h
	return h, nil
}

// Remove takes the entity out of the world. Removing a stale handle is a no-op.
func (r *Registry) Remove(h Handle) {
	s := r.slot(h)
	if s == nil {
		return
	}
	r.engine.RemoveFromWorld(s.entity.Body)
	delete(r.byBody, s.entity.Body)
	s.live = false
	s.entity = Entity{}
	r.free = append(r.free, h.index)
}

// Get returns the entity for h, or false if it was removed.
func (r *Registry) Get(h Handle) (Entity, bool) {
	s := r.slot(h)
	if s == nil {
		return Entity{}, false
	}
	return s.entity, true
}

// Lookup resolves an engine body to its entity handle.
func (r *Registry) Lookup(body BodyID) (Handle, bool) {
	h, ok := r.byBody[body]
	return h, ok
}

// MarkMerged flags the entity as consumed. Returns false for stale handles.
func (r *Registry) MarkMerged(h Handle) bool {
	s := r.slot(h)
	if s == nil {
		return false
	}
	s.entity.Merged = true
	return true
}

// Position asks the engine where the entity's body is.
func (r *Registry) Position(h Handle) (Vec2, bool) {
	s := r.slot(h)
	if s == nil {
		return Vec2{}, false
	}
	return r.engine.Position(s.entity.Body)
}

// Radius returns the radius of the entity's tier.
func (r *Registry) Radius(h Handle) float64 {
	s := r.slot(h)
	if s == nil {
		return 0
	}
	return r.tiers.Radius(s.entity.Tier)
}

// Handles lists live entities in slot order.
func (r *Registry) Handles() []Handle {
	out := make([]Handle, 0, len(r.byBody))
	for i := range r.slots {
		if r.slots[i].live {
			out = append(out, Handle{index: uint32(i), gen: r.slots[i].gen})
		}
	}
	return out
}

// Len is the number of live entities.
func (r *Registry) Len() int {
	return len(r.byBody)
}

// Clear removes every entity, keeping static ones when keepStatic is set.
func (r *Registry) Clear(keepStatic bool) {
	for _, h := range r.Handles() {
		if keepStatic && r.slots[h.index].entity.Static {
			continue
		}
		r.Remove(h)
	}
}

func (r *Registry) slot(h Handle) *slot {
	if h.IsZero() || int(h.index) >= len(r.slots) {
		return nil
	}
	s := &r.slots[h.index]
	if !s.live || s.gen != h.gen {
		return nil
	}
	return s
}
