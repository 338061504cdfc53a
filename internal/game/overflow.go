package game

// OverflowMonitor tracks balls resting above the danger line.
type OverflowMonitor struct {
	reg        *Registry
	dangerLine float64
	pending    map[Handle]struct{}
}

func NewOverflowMonitor(reg *Registry, dangerLine float64) *OverflowMonitor {
	return &OverflowMonitor{
		reg:        reg,
		dangerLine: dangerLine,
		pending:    make(map[Handle]struct{}),
	}
}

// Observe inspects a colliding pair of dynamic entities. When either top edge is
// above the danger line both join the pending set and Observe returns true; the
// caller then schedules a delayed Confirm for the pair.
func (m *OverflowMonitor) Observe(a, b Handle) bool {
	ea, okA := m.reg.Get(a)
	eb, okB := m.reg.Get(b)
	if !okA || !okB || ea.Static || eb.Static {
		return false
	}
	if !m.above(a) && !m.above(b) {
		return false
	}
	m.pending[a] = struct{}{}
	m.pending[b] = struct{}{}
	return true
}

// Confirm re-validates a and b and reports whether either is still pending.
func (m *OverflowMonitor) Confirm(a, b Handle) bool {
	m.refresh(a)
	m.refresh(b)
	return m.Pending(a) || m.Pending(b)
}

// Pending reports membership without re-validating.
func (m *OverflowMonitor) Pending(h Handle) bool {
	_, ok := m.pending[h]
	return ok
}

// Forget drops handles, typically after they merged away.
func (m *OverflowMonitor) Forget(hs ...Handle) {
	for _, h := range hs {
		delete(m.pending, h)
	}
}

// Sweep drops entries whose entity is gone or has fallen back below the line.
func (m *OverflowMonitor) Sweep() {
	for h := range m.pending {
		m.refresh(h)
	}
}

func (m *OverflowMonitor) Len() int {
	return len(m.pending)
}

func (m *OverflowMonitor) Clear() {
	clear(m.pending)
}

func (m *OverflowMonitor) refresh(h Handle) {
	if _, ok := m.pending[h]; !ok {
		return
	}
	e, ok := m.reg.Get(h)
	if !ok || e.Merged || !m.above(h) {
		delete(m.pending, h)
	}
}

// above reports whether the entity's top edge is above the danger line.
func (m *OverflowMonitor) above(h Handle) bool {
	pos, ok := m.reg.Position(h)
	if !ok {
		return false
	}
	return pos.Y-m.reg.Radius(h) < m.dangerLine
}
