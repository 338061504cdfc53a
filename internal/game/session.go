package game

import (
	"math/rand/v2"
	"time"
)

// Settings configure a session. Zero durations and sizes are not defaulted;
// start from DefaultSettings.
type Settings struct {
	Width           float64
	Height          float64
	WallPad         float64
	StatusBarHeight float64
	DangerLine      float64
	PreviewHeight   float64

	DropCooldown  time.Duration
	StartSettle   time.Duration
	OverflowDelay time.Duration
	PopDuration   time.Duration

	NextTierSpan int
	TopTierRule  TopTierRule
	Tiers        *TierTable
	Seed         uint64 // 0 seeds from the wall clock
}

// DefaultSettings returns the standard game.
func DefaultSettings() Settings {
	return Settings{
		Width:           FieldWidth,
		Height:          FieldHeight,
		WallPad:         WallPad,
		StatusBarHeight: StatusBarHeight,
		DangerLine:      DangerLine,
		PreviewHeight:   PreviewHeight,
		DropCooldown:    DropCooldown,
		StartSettle:     StartSettle,
		OverflowDelay:   OverflowDelay,
		PopDuration:     PopDuration,
		NextTierSpan:    NextTierSpan,
		TopTierRule:     TopTierWrap,
		Tiers:           DefaultTierTable(),
	}
}

// InputKind identifies a queued session input.
type InputKind int

const (
	InputStart InputKind = iota
	InputDrop
	InputMove
	InputRestart
	InputField
	InputCollisions
)

// Input is one entry of the session's event queue.
type Input struct {
	Kind   InputKind
	X      float64
	Width  float64
	Height float64
	Pairs  []CollisionPair
}

// Snapshot is a read-only summary of a session.
type Snapshot struct {
	Round      uint64     `json:"round"`
	State      GameState  `json:"state"`
	Score      int        `json:"score"`
	Counts     []int      `json:"counts"`
	Entities   int        `json:"entities"`
	Pending    int        `json:"pending_overflow"`
	Current    int        `json:"current_tier"`
	Next       int        `json:"next_tier"`
	LossReason LossReason `json:"loss_reason,omitempty"`
	Elapsed    float64    `json:"elapsed_seconds"`
}

// Session is one player's game: registry, resolver, monitor, ledger and state
// machine wired to a physics engine. A session must only be used from one goroutine.
type Session struct {
	settings Settings
	engine   PhysicsEngine
	notifier Notifier
	rng      *rand.Rand

	reg      *Registry
	ledger   *Ledger
	merger   *MergeResolver
	overflow *OverflowMonitor
	fsm      *Machine
	sched    *Scheduler

	clock time.Duration
	round uint64
	inbox []Input

	walls      []BodyID
	preview    Handle
	pointerX   float64
	current    int
	next       int
	starting   bool
	pops       int
	livePops   []int // pop ids not yet cleared
	lossReason LossReason
}

// NewSession builds a session in MENU. notifier may be nil.
func NewSession(settings Settings, engine PhysicsEngine, notifier Notifier) *Session {
	if settings.Tiers == nil {
		settings.Tiers = DefaultTierTable()
	}
	if notifier == nil {
		notifier = discardNotifier{}
	}
	seed := settings.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	s := &Session{
		settings: settings,
		engine:   engine,
		notifier: notifier,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		sched:    NewScheduler(),
		round:    1,
		pointerX: settings.Width / 2,
	}
	s.reg = NewRegistry(engine, settings.Tiers, func() time.Time { return time.Unix(0, 0).Add(s.clock) })
	s.ledger = NewLedger(settings.Tiers)
	s.merger = NewMergeResolver(s.reg, settings.Tiers, s.ledger, settings.TopTierRule)
	s.overflow = NewOverflowMonitor(s.reg, settings.DangerLine)
	s.fsm = NewMachine(func(from, to GameState) {
		s.emit(Event{Kind: EventStateChanged, State: to, Previous: from})
	})
	s.next = s.drawTier()
	return s
}

func (s *Session) State() GameState { return s.fsm.State() }

func (s *Session) Score() int { return s.ledger.CurrentScore() }

func (s *Session) Round() uint64 { return s.round }

func (s *Session) Clock() time.Duration { return s.clock }

func (s *Session) LossReason() LossReason { return s.lossReason }

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Round:      s.round,
		State:      s.fsm.State(),
		Score:      s.ledger.CurrentScore(),
		Counts:     s.ledger.Counts(),
		Entities:   s.reg.Len(),
		Pending:    s.overflow.Len(),
		Current:    s.current,
		Next:       s.next,
		LossReason: s.lossReason,
		Elapsed:    s.clock.Seconds(),
	}
}

// Post queues an input for the next Tick.
func (s *Session) Post(in Input) {
	s.inbox = append(s.inbox, in)
}

// Tick advances the session clock by dt: queued inputs are applied, the world is
// stepped (except after a loss), collisions are resolved, then due deferred
// messages fire.
func (s *Session) Tick(dt time.Duration) {
	s.clock += dt
	s.drain()

	if st, ok := s.engine.(Stepper); ok && s.walls != nil && !s.fsm.Is(StateLose) {
		st.Step(dt, func(pairs []CollisionPair) {
			s.Post(Input{Kind: InputCollisions, Pairs: pairs})
		})
		s.drain()
	}
	s.overflow.Sweep()

	for _, m := range s.sched.Due(s.clock) {
		s.fire(m)
	}
}

func (s *Session) drain() {
	for len(s.inbox) > 0 {
		in := s.inbox[0]
		s.inbox = s.inbox[1:]
		s.apply(in)
	}
	s.inbox = nil
}

func (s *Session) apply(in Input) {
	switch in.Kind {
	case InputStart:
		s.Start()
	case InputDrop:
		s.Drop(in.X)
	case InputMove:
		s.MovePreview(in.X)
	case InputRestart:
		s.Restart()
	case InputField:
		s.ReportField(in.Width, in.Height)
	case InputCollisions:
		s.HandleCollisions(in.Pairs)
	}
}

// Start builds the walls and preview ball; the session becomes READY after the
// settle delay. Ignored unless in MENU.
func (s *Session) Start() {
	if !s.fsm.Is(StateMenu) || s.starting {
		return
	}
	s.starting = true
	s.buildWalls()
	s.spawnPreview()
	s.emit(Event{Kind: EventNextTier, Tier: s.current, Next: s.next})
	s.emitScore()
	s.sched.Schedule(s.clock, s.settings.StartSettle, Message{
		Kind:  MsgStartSettle,
		Guard: Guard{Round: s.round, State: StateMenu},
	})
}

// Drop releases the current ball at x. Ignored unless READY.
func (s *Session) Drop(x float64) {
	if !s.fsm.Is(StateReady) {
		return
	}
	x = s.clampX(x, s.current)
	tier := s.current
	if _, err := s.reg.Spawn(x, s.settings.PreviewHeight, tier, SpawnFlags{}); err != nil {
		return
	}
	_ = s.fsm.Transition(StateDrop)
	s.reg.Remove(s.preview)
	s.preview = Handle{}

	s.current = s.next
	s.next = s.drawTier()
	s.emit(Event{Kind: EventDropped, Tier: tier, X: x, Y: s.settings.PreviewHeight})
	s.emit(Event{Kind: EventNextTier, Tier: s.current, Next: s.next})

	s.sched.Schedule(s.clock, s.settings.DropCooldown, Message{
		Kind:  MsgDropCooldown,
		Guard: Guard{Round: s.round, State: StateDrop},
	})
}

// MovePreview records the pointer and moves the preview ball while READY.
func (s *Session) MovePreview(x float64) {
	s.pointerX = x
	if !s.fsm.Is(StateReady) {
		return
	}
	e, ok := s.reg.Get(s.preview)
	if !ok {
		return
	}
	s.engine.SetPosition(e.Body, NewVec2(s.clampX(x, e.Tier), s.settings.PreviewHeight))
}

// Restart clears the round and starts a new one. Ignored unless LOSE.
func (s *Session) Restart() {
	if !s.fsm.Is(StateLose) {
		return
	}
	// Pops of the old round would be dropped by the round guard.
	for _, id := range s.livePops {
		s.emit(Event{Kind: EventPopCleared, Pop: id})
	}
	s.livePops = s.livePops[:0]
	// The preview is rebuilt by Start, so everything goes.
	s.reg.Clear(false)
	s.preview = Handle{}
	s.ledger.Reset()
	s.overflow.Clear()
	s.lossReason = ""
	s.round++
	_ = s.fsm.Transition(StateMenu)
	s.emitScore()
	s.Start()
}

// ReportField checks the play-field size the client renders. A mismatch ends
// the round.
func (s *Session) ReportField(width, height float64) {
	if width == s.settings.Width && height == s.settings.Height {
		return
	}
	s.lose(ReasonTampered)
}

// HandleCollisions runs the overflow monitor and merge resolver over one batch.
func (s *Session) HandleCollisions(pairs []CollisionPair) {
	if s.fsm.Is(StateLose) {
		return
	}
	for _, p := range pairs {
		ha, okA := s.reg.Lookup(p.A)
		hb, okB := s.reg.Lookup(p.B)
		if okA && okB && s.overflow.Observe(ha, hb) {
			s.sched.Schedule(s.clock, s.settings.OverflowDelay, Message{
				Kind:  MsgOverflowCheck,
				A:     ha,
				B:     hb,
				Guard: Guard{Round: s.round, Any: true},
			})
		}

		res, ok := s.merger.ResolvePair(p)
		if !ok {
			continue
		}
		s.overflow.Forget(res.A, res.B)
		s.pops++
		s.livePops = append(s.livePops, s.pops)
		s.emit(Event{Kind: EventMerged, Tier: res.SuccessorTier, X: res.At.X, Y: res.At.Y})
		s.emit(Event{Kind: EventPop, Tier: res.Tier, X: res.At.X, Y: res.At.Y, Radius: res.Radius, Pop: s.pops})
		s.emitScore()
		s.sched.Schedule(s.clock, s.settings.PopDuration, Message{
			Kind:  MsgPopExpire,
			Pop:   s.pops,
			Guard: Guard{Round: s.round, Any: true},
		})
	}
}

func (s *Session) fire(m Message) {
	if m.Guard.Round != s.round {
		return
	}
	if !m.Guard.Any && !s.fsm.Is(m.Guard.State) {
		return
	}

	switch m.Kind {
	case MsgStartSettle:
		s.starting = false
		_ = s.fsm.Transition(StateReady)
	case MsgDropCooldown:
		s.spawnPreview()
		_ = s.fsm.Transition(StateReady)
	case MsgOverflowCheck:
		if s.fsm.Is(StateLose) {
			return
		}
		if s.overflow.Confirm(m.A, m.B) {
			s.lose(ReasonOverflow)
		}
	case MsgPopExpire:
		s.clearPop(m.Pop)
	}
}

func (s *Session) clearPop(id int) {
	for i, p := range s.livePops {
		if p == id {
			s.livePops = append(s.livePops[:i], s.livePops[i+1:]...)
			s.emit(Event{Kind: EventPopCleared, Pop: id})
			return
		}
	}
}

func (s *Session) lose(reason LossReason) {
	if s.fsm.Is(StateLose) {
		return
	}
	_ = s.fsm.Transition(StateLose)
	s.starting = false
	s.lossReason = reason
	s.overflow.Clear()
	s.emit(Event{Kind: EventLost, Reason: reason, Counts: s.ledger.Counts()})
}

func (s *Session) spawnPreview() {
	if _, ok := s.reg.Get(s.preview); ok {
		return
	}
	x := s.clampX(s.pointerX, s.current)
	h, err := s.reg.Spawn(x, s.settings.PreviewHeight, s.current, SpawnFlags{Static: true, Ghost: true})
	if err != nil {
		return
	}
	s.preview = h
}

func (s *Session) buildWalls() {
	if s.walls != nil {
		return
	}
	w, h, pad := s.settings.Width, s.settings.Height, s.settings.WallPad
	opts := DefaultBodyOptions()
	opts.Static = true
	opts.Label = "wall"

	bodies := []struct {
		shape Shape
		pos   Vec2
	}{
		{Rect(pad, h), NewVec2(-pad/2, h/2)},
		{Rect(pad, h), NewVec2(w+pad/2, h/2)},
		{Rect(w, pad), NewVec2(w/2, h+pad/2-s.settings.StatusBarHeight)},
	}
	for _, b := range bodies {
		id := s.engine.CreateBody(b.shape, b.pos, opts)
		s.engine.AddToWorld(id)
		s.walls = append(s.walls, id)
	}
}

func (s *Session) clampX(x float64, tier int) float64 {
	r := s.settings.Tiers.Radius(tier)
	if x < r {
		return r
	}
	if x > s.settings.Width-r {
		return s.settings.Width - r
	}
	return x
}

func (s *Session) drawTier() int {
	span := s.settings.NextTierSpan
	if span <= 0 || span > s.settings.Tiers.Len() {
		span = s.settings.Tiers.Len()
	}
	return s.rng.IntN(span)
}

func (s *Session) emitScore() {
	s.emit(Event{Kind: EventScoreChanged, Counts: s.ledger.Counts()})
}

func (s *Session) emit(e Event) {
	e.Round = s.round
	e.State = s.fsm.State()
	e.Score = s.ledger.CurrentScore()
	s.notifier.Notify(e)
}
