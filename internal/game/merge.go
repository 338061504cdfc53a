package game

// MergeResult describes one realized merge.
type MergeResult struct {
	A, B          Handle
	Tier          int
	Successor     Handle
	SuccessorTier int
	At            Vec2
	Radius        float64 // radius of the consumed tier, sized for the pop effect
}

// MergeResolver turns same-tier collision pairs into successor balls.
type MergeResolver struct {
	reg    *Registry
	tiers  *TierTable
	ledger *Ledger
	rule   TopTierRule
}

func NewMergeResolver(reg *Registry, tiers *TierTable, ledger *Ledger, rule TopTierRule) *MergeResolver {
	return &MergeResolver{reg: reg, tiers: tiers, ledger: ledger, rule: rule}
}

// Resolve evaluates pairs in order. Flags set by an earlier pair are seen by
// later pairs, so no entity takes part in more than one merge.
func (m *MergeResolver) Resolve(pairs []CollisionPair) []MergeResult {
	var out []MergeResult
	for _, p := range pairs {
		if res, ok := m.ResolvePair(p); ok {
			out = append(out, res)
		}
	}
	return out
}

// ResolvePair merges the pair if both are live, dynamic, unmerged and of equal tier.
func (m *MergeResolver) ResolvePair(p CollisionPair) (MergeResult, bool) {
	ha, okA := m.reg.Lookup(p.A)
	hb, okB := m.reg.Lookup(p.B)
	if !okA || !okB || ha == hb {
		return MergeResult{}, false
	}
	a, _ := m.reg.Get(ha)
	b, _ := m.reg.Get(hb)
	if a.Static || b.Static {
		return MergeResult{}, false
	}
	if a.Merged || b.Merged {
		return MergeResult{}, false
	}
	if a.Tier != b.Tier {
		return MergeResult{}, false
	}
	next, ok := m.tiers.Successor(a.Tier, m.rule)
	if !ok {
		return MergeResult{}, false
	}

	posA, okA := m.reg.Position(ha)
	posB, okB := m.reg.Position(hb)
	if !okA || !okB {
		return MergeResult{}, false
	}

	m.reg.MarkMerged(ha)
	m.reg.MarkMerged(hb)
	mid := posA.Midpoint(posB)
	m.ledger.RecordMerge(a.Tier)

	m.reg.Remove(ha)
	m.reg.Remove(hb)
	succ, err := m.reg.Spawn(mid.X, mid.Y, next, SpawnFlags{})
	if err != nil {
		// next always comes from the tier table; unreachable in practice.
		succ = Handle{}
	}

	return MergeResult{
		A:             ha,
		B:             hb,
		Tier:          a.Tier,
		Successor:     succ,
		SuccessorTier: next,
		At:            mid,
		Radius:        m.tiers.Radius(a.Tier),
	}, true
}
