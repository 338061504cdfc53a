package game

import "testing"

type mergeFixture struct {
	engine *fakeEngine
	tiers  *TierTable
	reg    *Registry
	ledger *Ledger
	merger *MergeResolver
}

func newMergeFixture(t *testing.T, tiers []Tier, rule TopTierRule) *mergeFixture {
	t.Helper()
	table, err := NewTierTable(tiers)
	if err != nil {
		t.Fatalf("NewTierTable: %v", err)
	}
	engine := newFakeEngine()
	reg := NewRegistry(engine, table, nil)
	ledger := NewLedger(table)
	return &mergeFixture{
		engine: engine,
		tiers:  table,
		reg:    reg,
		ledger: ledger,
		merger: NewMergeResolver(reg, table, ledger, rule),
	}
}

func (f *mergeFixture) spawn(t *testing.T, x, y float64, tier int) (Handle, BodyID) {
	t.Helper()
	h, err := f.reg.Spawn(x, y, tier, SpawnFlags{})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	e, _ := f.reg.Get(h)
	return h, e.Body
}

func TestMergeSameTierSpawnsSuccessorAtMidpoint(t *testing.T) {
	f := newMergeFixture(t, DefaultTiers, TopTierWrap)
	ha, a := f.spawn(t, 100, 400, 2)
	hb, b := f.spawn(t, 200, 500, 2)

	res, ok := f.merger.ResolvePair(CollisionPair{A: a, B: b})
	if !ok {
		t.Fatalf("expected merge")
	}
	if res.SuccessorTier != 3 {
		t.Errorf("successor tier = %d, want 3", res.SuccessorTier)
	}
	if res.At != NewVec2(150, 450) {
		t.Errorf("midpoint = %+v, want (150,450)", res.At)
	}
	if _, ok := f.reg.Get(ha); ok {
		t.Errorf("input A still live")
	}
	if _, ok := f.reg.Get(hb); ok {
		t.Errorf("input B still live")
	}
	succ, ok := f.reg.Get(res.Successor)
	if !ok || succ.Tier != 3 || succ.Merged {
		t.Fatalf("successor = %+v,%v", succ, ok)
	}
	if pos, _ := f.engine.Position(succ.Body); pos != res.At {
		t.Errorf("successor body at %+v, want %+v", pos, res.At)
	}
	if f.reg.Len() != 1 {
		t.Errorf("registry has %d entities, want 1", f.reg.Len())
	}
	if got := f.ledger.Counts()[2]; got != 1 {
		t.Errorf("count[2] = %d, want 1", got)
	}
}

func TestMergeTopTierWrapsToZero(t *testing.T) {
	f := newMergeFixture(t, DefaultTiers, TopTierWrap)
	_, a := f.spawn(t, 200, 600, 11)
	_, b := f.spawn(t, 420, 600, 11)

	res, ok := f.merger.ResolvePair(CollisionPair{A: a, B: b})
	if !ok {
		t.Fatalf("expected top-tier merge under wrap rule")
	}
	if res.SuccessorTier != 0 {
		t.Errorf("successor tier = %d, want 0", res.SuccessorTier)
	}
	if got := f.ledger.Counts()[11]; got != 1 {
		t.Errorf("count[11] = %d, want 1", got)
	}
}

func TestMergeTopTierSuppressed(t *testing.T) {
	f := newMergeFixture(t, DefaultTiers, TopTierSuppress)
	ha, a := f.spawn(t, 200, 600, 11)
	hb, b := f.spawn(t, 420, 600, 11)

	if _, ok := f.merger.ResolvePair(CollisionPair{A: a, B: b}); ok {
		t.Fatalf("top-tier merge should be suppressed")
	}
	if _, ok := f.reg.Get(ha); !ok {
		t.Errorf("A removed by suppressed merge")
	}
	if _, ok := f.reg.Get(hb); !ok {
		t.Errorf("B removed by suppressed merge")
	}
	if f.ledger.CurrentScore() != 0 {
		t.Errorf("score = %d, want 0", f.ledger.CurrentScore())
	}
}

func TestMergeSuccessorIsNextTierModCount(t *testing.T) {
	for tier := 0; tier < len(DefaultTiers); tier++ {
		f := newMergeFixture(t, DefaultTiers, TopTierWrap)
		_, a := f.spawn(t, 100, 500, tier)
		_, b := f.spawn(t, 300, 500, tier)
		res, ok := f.merger.ResolvePair(CollisionPair{A: a, B: b})
		if !ok {
			t.Fatalf("tier %d: no merge", tier)
		}
		want := (tier + 1) % len(DefaultTiers)
		if res.SuccessorTier != want {
			t.Errorf("tier %d: successor %d, want %d", tier, res.SuccessorTier, want)
		}
	}
}

func TestMergeSkipsDifferentTiers(t *testing.T) {
	f := newMergeFixture(t, DefaultTiers, TopTierWrap)
	_, a := f.spawn(t, 100, 500, 1)
	_, b := f.spawn(t, 150, 500, 2)

	if _, ok := f.merger.ResolvePair(CollisionPair{A: a, B: b}); ok {
		t.Fatalf("different tiers merged")
	}
	if f.reg.Len() != 2 {
		t.Errorf("registry has %d entities, want 2", f.reg.Len())
	}
}

func TestMergeSkipsStaticBodies(t *testing.T) {
	f := newMergeFixture(t, DefaultTiers, TopTierWrap)
	hp, _ := f.reg.Spawn(320, 32, 0, SpawnFlags{Static: true, Ghost: true})
	preview, _ := f.reg.Get(hp)
	_, b := f.spawn(t, 320, 80, 0)

	if _, ok := f.merger.ResolvePair(CollisionPair{A: preview.Body, B: b}); ok {
		t.Fatalf("static preview merged")
	}

	// Walls are engine bodies unknown to the registry.
	wall := f.engine.CreateBody(Rect(64, 960), NewVec2(-32, 480), BodyOptions{Static: true})
	f.engine.AddToWorld(wall)
	if _, ok := f.merger.ResolvePair(CollisionPair{A: wall, B: b}); ok {
		t.Fatalf("wall merged")
	}
}

func TestNoEntityMergesTwiceInOneBatch(t *testing.T) {
	f := newMergeFixture(t, DefaultTiers, TopTierWrap)
	ha, a := f.spawn(t, 100, 500, 0)
	_, b := f.spawn(t, 148, 500, 0)
	_, c := f.spawn(t, 52, 500, 0)

	results := f.merger.Resolve([]CollisionPair{
		{A: a, B: b},
		{A: a, B: c},
		{A: c, B: b},
	})

	if len(results) != 1 {
		t.Fatalf("realized %d merges, want 1", len(results))
	}
	if results[0].A != ha {
		t.Errorf("first pair should win, got %v", results[0].A)
	}
	if got := f.ledger.Counts()[0]; got != 1 {
		t.Errorf("count[0] = %d, want 1", got)
	}
	// c survives alongside the successor.
	if f.reg.Len() != 2 {
		t.Errorf("registry has %d entities, want 2", f.reg.Len())
	}
}

func TestMergedFlagBlocksFurtherMerges(t *testing.T) {
	f := newMergeFixture(t, DefaultTiers, TopTierWrap)
	ha, a := f.spawn(t, 100, 500, 0)
	_, b := f.spawn(t, 148, 500, 0)
	f.reg.MarkMerged(ha)

	if _, ok := f.merger.ResolvePair(CollisionPair{A: a, B: b}); ok {
		t.Fatalf("merged-flagged entity merged again")
	}
}

func TestMergeScenarioThreeTiers(t *testing.T) {
	f := newMergeFixture(t, []Tier{{Radius: 10, ScoreValue: 1}, {Radius: 20, ScoreValue: 3}, {Radius: 30, ScoreValue: 6}}, TopTierWrap)

	_, a := f.spawn(t, 100, 500, 0)
	_, b := f.spawn(t, 120, 500, 0)
	first, ok := f.merger.ResolvePair(CollisionPair{A: a, B: b})
	if !ok || first.SuccessorTier != 1 {
		t.Fatalf("first merge = %+v,%v", first, ok)
	}
	// Only the consumed tier counts, not the successor.
	if got := f.ledger.CurrentScore(); got != 1 {
		t.Fatalf("score after tier-0 merge = %d, want 1", got)
	}

	succ, _ := f.reg.Get(first.Successor)
	_, c := f.spawn(t, 130, 500, 1)
	res, ok := f.merger.ResolvePair(CollisionPair{A: succ.Body, B: c})
	if !ok || res.SuccessorTier != 2 {
		t.Fatalf("tier-1 merge = %+v,%v", res, ok)
	}
	if got := f.ledger.CurrentScore(); got != 4 {
		t.Errorf("score = %d, want 1*1 + 1*3 = 4", got)
	}
}
