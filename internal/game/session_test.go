package game

import (
	"testing"
	"time"
)

const frame = 16 * time.Millisecond

func newTestSession(t *testing.T, settings Settings) (*Session, *fakeEngine, *eventLog) {
	t.Helper()
	if settings.Seed == 0 {
		settings.Seed = 42
	}
	engine := newFakeEngine()
	log := &eventLog{}
	return NewSession(settings, engine, log), engine, log
}

// readySession starts a default session and waits out the settle delay.
func readySession(t *testing.T) (*Session, *fakeEngine, *eventLog) {
	t.Helper()
	s, engine, log := newTestSession(t, DefaultSettings())
	s.Post(Input{Kind: InputStart})
	s.Tick(0)
	s.Tick(StartSettle)
	if s.State() != StateReady {
		t.Fatalf("state after settle = %s, want READY", s.State())
	}
	return s, engine, log
}

func (s *Session) bodyOf(t *testing.T, h Handle) BodyID {
	t.Helper()
	e, ok := s.reg.Get(h)
	if !ok {
		t.Fatalf("handle %v not live", h)
	}
	return e.Body
}

func TestSessionStartSettlesIntoReady(t *testing.T) {
	s, engine, log := newTestSession(t, DefaultSettings())
	s.Post(Input{Kind: InputStart})
	s.Tick(0)

	if s.State() != StateMenu {
		t.Fatalf("state before settle = %s, want MENU", s.State())
	}
	// 3 walls + preview
	if engine.inWorld() != 4 {
		t.Errorf("bodies in world = %d, want 4", engine.inWorld())
	}
	s.Tick(StartSettle - time.Millisecond)
	if s.State() != StateMenu {
		t.Fatalf("settled early")
	}
	s.Tick(time.Millisecond)
	if s.State() != StateReady {
		t.Fatalf("state = %s, want READY", s.State())
	}
	if ev, ok := log.last(EventStateChanged); !ok || ev.Previous != StateMenu || ev.State != StateReady {
		t.Errorf("state_changed = %+v,%v", ev, ok)
	}
}

func TestSessionStartIgnoredTwice(t *testing.T) {
	s, engine, _ := newTestSession(t, DefaultSettings())
	s.Start()
	s.Start()
	if engine.inWorld() != 4 {
		t.Errorf("bodies in world = %d, want 4", engine.inWorld())
	}
}

func TestSessionDropRejectedOutsideReady(t *testing.T) {
	s, _, log := newTestSession(t, DefaultSettings())
	s.Drop(300)
	if s.reg.Len() != 0 || log.count(EventDropped) != 0 {
		t.Fatalf("drop accepted in MENU")
	}

	s, _, log = readySession(t)
	s.Drop(300)
	if s.State() != StateDrop {
		t.Fatalf("state = %s, want DROP", s.State())
	}
	before := s.reg.Len()
	s.Drop(300)
	if s.reg.Len() != before || log.count(EventDropped) != 1 {
		t.Errorf("second drop during cooldown was accepted")
	}
}

func TestSessionDropCooldownRestoresPreview(t *testing.T) {
	s, _, log := readySession(t)
	s.Post(Input{Kind: InputDrop, X: 200})
	s.Tick(0)

	if _, ok := s.reg.Get(s.preview); ok {
		t.Fatalf("preview still live during DROP")
	}
	if s.reg.Len() != 1 {
		t.Fatalf("entities = %d, want the dropped ball only", s.reg.Len())
	}
	s.Tick(DropCooldown - time.Millisecond)
	if s.State() != StateDrop {
		t.Fatalf("cooldown ended early")
	}
	s.Tick(time.Millisecond)
	if s.State() != StateReady {
		t.Fatalf("state = %s, want READY", s.State())
	}
	if _, ok := s.reg.Get(s.preview); !ok {
		t.Errorf("preview not respawned")
	}
	if log.count(EventNextTier) != 2 {
		t.Errorf("next_tier events = %d, want 2", log.count(EventNextTier))
	}
}

func TestSessionDropClampsToField(t *testing.T) {
	s, _, log := readySession(t)
	tier := s.current
	s.Drop(-500)

	ev, ok := log.last(EventDropped)
	if !ok {
		t.Fatalf("no dropped event")
	}
	if want := DefaultTiers[tier].Radius; ev.X != want {
		t.Errorf("drop x = %v, want %v", ev.X, want)
	}
}

func TestSessionNextTierWithinSpan(t *testing.T) {
	s, _, _ := newTestSession(t, DefaultSettings())
	for i := 0; i < 200; i++ {
		if n := s.drawTier(); n < 0 || n >= NextTierSpan {
			t.Fatalf("drawTier = %d, outside [0,%d)", n, NextTierSpan)
		}
	}
}

func TestSessionSameSeedSameSequence(t *testing.T) {
	a, _, _ := newTestSession(t, DefaultSettings())
	b, _, _ := newTestSession(t, DefaultSettings())
	for i := 0; i < 20; i++ {
		if a.drawTier() != b.drawTier() {
			t.Fatalf("sequences diverged at %d", i)
		}
	}
}

func TestSessionMergeThroughStepper(t *testing.T) {
	s, engine, log := readySession(t)
	a, _ := s.reg.Spawn(200, 600, 2, SpawnFlags{})
	b, _ := s.reg.Spawn(260, 600, 2, SpawnFlags{})
	engine.pending = [][]CollisionPair{{{A: s.bodyOf(t, a), B: s.bodyOf(t, b)}}}

	steps := engine.steps
	s.Tick(frame)

	if engine.steps != steps+1 {
		t.Fatalf("engine not stepped")
	}
	if log.count(EventMerged) != 1 || log.count(EventPop) != 1 {
		t.Fatalf("merged=%d pop=%d, want 1 each", log.count(EventMerged), log.count(EventPop))
	}
	if s.Score() != DefaultTiers[2].ScoreValue {
		t.Errorf("score = %d, want %d", s.Score(), DefaultTiers[2].ScoreValue)
	}
	ev, _ := log.last(EventScoreChanged)
	if ev.Score != s.Score() {
		t.Errorf("score_changed carried %d, want %d", ev.Score, s.Score())
	}

	s.Tick(PopDuration)
	if log.count(EventPopCleared) != 1 {
		t.Errorf("pop effect not cleared")
	}
}

func TestSessionThreeTierScenario(t *testing.T) {
	table, err := NewTierTable([]Tier{{Radius: 10, ScoreValue: 1}, {Radius: 20, ScoreValue: 3}, {Radius: 30, ScoreValue: 6}})
	if err != nil {
		t.Fatal(err)
	}
	settings := DefaultSettings()
	settings.Tiers = table
	settings.NextTierSpan = 1
	s, _, log := newTestSession(t, settings)
	s.Start()
	s.Tick(StartSettle)

	a, _ := s.reg.Spawn(100, 600, 0, SpawnFlags{})
	b, _ := s.reg.Spawn(115, 600, 0, SpawnFlags{})
	s.Post(Input{Kind: InputCollisions, Pairs: []CollisionPair{{A: s.bodyOf(t, a), B: s.bodyOf(t, b)}}})
	s.Tick(frame)
	if s.Score() != 1 {
		t.Fatalf("score = %d, want 1", s.Score())
	}
	merged, _ := log.last(EventMerged)

	var succ Handle
	for _, h := range s.reg.Handles() {
		if e, _ := s.reg.Get(h); !e.Static && e.Tier == 1 {
			succ = h
		}
	}
	if succ.IsZero() {
		t.Fatalf("no tier-1 successor at %v,%v", merged.X, merged.Y)
	}
	c, _ := s.reg.Spawn(140, 600, 1, SpawnFlags{})
	s.Post(Input{Kind: InputCollisions, Pairs: []CollisionPair{{A: s.bodyOf(t, succ), B: s.bodyOf(t, c)}}})
	s.Tick(frame)

	if s.Score() != 4 {
		t.Errorf("score = %d, want 4", s.Score())
	}
}

func TestSessionOverflowLosesAfterDelay(t *testing.T) {
	s, _, log := readySession(t)
	a, _ := s.reg.Spawn(100, 50, 0, SpawnFlags{})
	b, _ := s.reg.Spawn(100, 98, 1, SpawnFlags{})
	s.Post(Input{Kind: InputCollisions, Pairs: []CollisionPair{{A: s.bodyOf(t, a), B: s.bodyOf(t, b)}}})
	s.Tick(frame)

	if s.overflow.Len() != 2 {
		t.Fatalf("pending = %d, want 2", s.overflow.Len())
	}
	s.Tick(OverflowDelay - frame)
	if s.State() == StateLose {
		t.Fatalf("lost before the delay elapsed")
	}
	s.Tick(frame)
	if s.State() != StateLose || s.LossReason() != ReasonOverflow {
		t.Fatalf("state = %s reason = %q, want LOSE overflow", s.State(), s.LossReason())
	}
	if log.count(EventLost) != 1 {
		t.Errorf("lost events = %d, want 1", log.count(EventLost))
	}
}

func TestSessionOverflowIdempotentAfterLose(t *testing.T) {
	s, engine, log := readySession(t)
	a, _ := s.reg.Spawn(100, 50, 0, SpawnFlags{})
	b, _ := s.reg.Spawn(100, 98, 1, SpawnFlags{})
	c, _ := s.reg.Spawn(200, 50, 2, SpawnFlags{})
	pairs := []CollisionPair{{A: s.bodyOf(t, a), B: s.bodyOf(t, b)}}
	s.Post(Input{Kind: InputCollisions, Pairs: pairs})
	s.Tick(frame)
	s.Post(Input{Kind: InputCollisions, Pairs: []CollisionPair{{A: s.bodyOf(t, c), B: s.bodyOf(t, b)}}})
	s.Tick(frame)

	s.Tick(OverflowDelay)
	if s.State() != StateLose {
		t.Fatalf("state = %s, want LOSE", s.State())
	}
	steps := engine.steps
	s.Post(Input{Kind: InputCollisions, Pairs: pairs})
	s.Tick(OverflowDelay * 2)

	if log.count(EventLost) != 1 {
		t.Errorf("lost events = %d, want exactly 1", log.count(EventLost))
	}
	if engine.steps != steps {
		t.Errorf("world stepped after LOSE")
	}
}

func TestSessionOverflowCancelledByMerge(t *testing.T) {
	s, _, _ := readySession(t)
	a, _ := s.reg.Spawn(100, 50, 3, SpawnFlags{})
	b, _ := s.reg.Spawn(150, 50, 3, SpawnFlags{})
	s.Post(Input{Kind: InputCollisions, Pairs: []CollisionPair{{A: s.bodyOf(t, a), B: s.bodyOf(t, b)}}})
	s.Tick(frame)

	if s.overflow.Len() != 0 {
		t.Fatalf("merged inputs still pending: %d", s.overflow.Len())
	}
	s.Tick(OverflowDelay)
	if s.State() == StateLose {
		t.Fatalf("lost although both inputs merged away")
	}
}

func TestSessionOverflowCancelledWhenBallsFall(t *testing.T) {
	s, engine, _ := readySession(t)
	a, _ := s.reg.Spawn(100, 50, 0, SpawnFlags{})
	b, _ := s.reg.Spawn(100, 98, 1, SpawnFlags{})
	s.Post(Input{Kind: InputCollisions, Pairs: []CollisionPair{{A: s.bodyOf(t, a), B: s.bodyOf(t, b)}}})
	s.Tick(frame)

	engine.SetPosition(s.bodyOf(t, a), NewVec2(100, 700))
	engine.SetPosition(s.bodyOf(t, b), NewVec2(100, 760))
	s.Tick(OverflowDelay)

	if s.State() == StateLose {
		t.Fatalf("lost although both balls fell below the line")
	}
	if s.overflow.Len() != 0 {
		t.Errorf("pending = %d, want 0", s.overflow.Len())
	}
}

func TestSessionTamperedField(t *testing.T) {
	s, _, log := readySession(t)
	s.Post(Input{Kind: InputField, Width: FieldWidth, Height: FieldHeight})
	s.Tick(frame)
	if s.State() == StateLose {
		t.Fatalf("matching field reported as tampered")
	}

	s.Post(Input{Kind: InputField, Width: 1280, Height: FieldHeight})
	s.Tick(frame)
	if s.State() != StateLose || s.LossReason() != ReasonTampered {
		t.Fatalf("state = %s reason = %q", s.State(), s.LossReason())
	}
	if ev, _ := log.last(EventLost); ev.Reason != ReasonTampered {
		t.Errorf("lost reason = %q", ev.Reason)
	}
}

func TestSessionRestartClearsRound(t *testing.T) {
	s, _, log := readySession(t)
	a, _ := s.reg.Spawn(100, 600, 4, SpawnFlags{})
	b, _ := s.reg.Spawn(160, 600, 4, SpawnFlags{})
	s.Post(Input{Kind: InputCollisions, Pairs: []CollisionPair{{A: s.bodyOf(t, a), B: s.bodyOf(t, b)}}})
	s.Tick(frame)
	c, _ := s.reg.Spawn(100, 50, 0, SpawnFlags{})
	d, _ := s.reg.Spawn(100, 98, 1, SpawnFlags{})
	s.Post(Input{Kind: InputCollisions, Pairs: []CollisionPair{{A: s.bodyOf(t, c), B: s.bodyOf(t, d)}}})
	s.Tick(frame)
	s.Tick(OverflowDelay)
	if s.State() != StateLose || s.Score() == 0 {
		t.Fatalf("setup: state=%s score=%d", s.State(), s.Score())
	}

	s.Post(Input{Kind: InputRestart})
	s.Tick(0)

	if s.Round() != 2 {
		t.Errorf("round = %d, want 2", s.Round())
	}
	if s.Score() != 0 {
		t.Errorf("score = %d after restart", s.Score())
	}
	if s.reg.Len() != 1 {
		t.Errorf("entities = %d, want the preview only", s.reg.Len())
	}
	if s.LossReason() != "" {
		t.Errorf("loss reason not cleared")
	}
	if ev, _ := log.last(EventScoreChanged); ev.Score != 0 || ev.Round != 2 {
		t.Errorf("score_changed after restart = %+v", ev)
	}

	s.Tick(StartSettle)
	if s.State() != StateReady {
		t.Errorf("state = %s, want READY after restart settle", s.State())
	}
}

func TestSessionRestartClearsOutstandingPops(t *testing.T) {
	s, _, log := readySession(t)
	a, _ := s.reg.Spawn(100, 600, 2, SpawnFlags{})
	b, _ := s.reg.Spawn(150, 600, 2, SpawnFlags{})
	s.Post(Input{Kind: InputCollisions, Pairs: []CollisionPair{{A: s.bodyOf(t, a), B: s.bodyOf(t, b)}}})
	s.Tick(frame)
	pop, ok := log.last(EventPop)
	if !ok {
		t.Fatalf("no pop event after merge")
	}

	s.ReportField(1, 1)
	s.Restart()

	cleared, ok := log.last(EventPopCleared)
	if !ok || cleared.Pop != pop.Pop {
		t.Fatalf("pop_cleared after restart = %+v,%v want pop %d", cleared, ok, pop.Pop)
	}
	s.Tick(PopDuration)
	if n := log.count(EventPopCleared); n != 1 {
		t.Errorf("pop_cleared events = %d, want 1", n)
	}
}

func TestSessionPopClearedOnceAfterDuration(t *testing.T) {
	s, _, log := readySession(t)
	a, _ := s.reg.Spawn(100, 600, 2, SpawnFlags{})
	b, _ := s.reg.Spawn(150, 600, 2, SpawnFlags{})
	s.Post(Input{Kind: InputCollisions, Pairs: []CollisionPair{{A: s.bodyOf(t, a), B: s.bodyOf(t, b)}}})
	s.Tick(frame)
	s.Tick(PopDuration)

	if n := log.count(EventPopCleared); n != 1 {
		t.Fatalf("pop_cleared events = %d, want 1", n)
	}
	s.ReportField(1, 1)
	s.Restart()
	if n := log.count(EventPopCleared); n != 1 {
		t.Errorf("restart re-cleared an expired pop: %d events", n)
	}
}

func TestSessionRestartIgnoredOutsideLose(t *testing.T) {
	s, _, _ := readySession(t)
	s.Restart()
	if s.Round() != 1 || s.State() != StateReady {
		t.Errorf("restart accepted while READY")
	}
}

func TestSessionStaleMessagesIgnoredAfterRestart(t *testing.T) {
	s, _, log := readySession(t)
	s.Drop(300)
	s.ReportField(1, 1) // lose while the drop cooldown is pending
	s.Restart()
	s.Tick(DropCooldown)

	if log.count(EventLost) != 1 {
		t.Fatalf("lost events = %d", log.count(EventLost))
	}
	if s.State() != StateReady {
		t.Errorf("state = %s, want READY from the new round's settle", s.State())
	}
	if s.Round() != 2 {
		t.Errorf("round = %d", s.Round())
	}
}

func TestSessionMovePreview(t *testing.T) {
	s, engine, _ := readySession(t)
	s.Post(Input{Kind: InputMove, X: 400})
	s.Tick(frame)

	e, _ := s.reg.Get(s.preview)
	pos, _ := engine.Position(e.Body)
	if pos.X != 400 || pos.Y != PreviewHeight {
		t.Errorf("preview at %+v, want (400,%v)", pos, PreviewHeight)
	}

	s.MovePreview(10000)
	pos, _ = engine.Position(e.Body)
	if want := FieldWidth - DefaultTiers[e.Tier].Radius; pos.X != want {
		t.Errorf("preview x = %v, want clamped %v", pos.X, want)
	}
}

func TestSessionSnapshot(t *testing.T) {
	s, _, _ := readySession(t)
	snap := s.Snapshot()
	if snap.State != StateReady || snap.Round != 1 || snap.Entities != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(snap.Counts) != len(DefaultTiers) {
		t.Errorf("counts len = %d", len(snap.Counts))
	}
}
