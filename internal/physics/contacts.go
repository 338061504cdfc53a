package physics

import "github.com/pokestack/backend/internal/game"

// pairKey identifies an unordered body pair.
type pairKey struct {
	lo, hi game.BodyID
}

func newPairKey(a, b game.BodyID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// contactSet remembers which pairs touched in the previous substep so only
// new contacts are reported.
type contactSet struct {
	active map[pairKey]struct{}
}

func newContactSet() contactSet {
	return contactSet{active: make(map[pairKey]struct{})}
}

func (s contactSet) has(k pairKey) bool {
	_, ok := s.active[k]
	return ok
}

func (s *contactSet) replace(next map[pairKey]struct{}) {
	s.active = next
}

func (s contactSet) forget(id game.BodyID) {
	for k := range s.active {
		if k.lo == id || k.hi == id {
			delete(s.active, k)
		}
	}
}
