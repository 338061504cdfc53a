package game

// EventKind names a notification for the display surface.
type EventKind string

const (
	EventStateChanged EventKind = "state_changed"
	EventScoreChanged EventKind = "score_changed"
	EventNextTier     EventKind = "next_tier"
	EventDropped      EventKind = "dropped"
	EventMerged       EventKind = "merged"
	EventPop          EventKind = "pop"
	EventPopCleared   EventKind = "pop_cleared"
	EventLost         EventKind = "lost"
)

// Event is a state-change notification. Only the fields relevant to Kind are
// meaningful. Tier, Next and Previous are always encoded because their zero
// values (tier 0, MENU) are valid.
//
// Every pop is answered by exactly one pop_cleared, either after PopDuration or
// when the round is restarted.
type Event struct {
	Kind     EventKind  `json:"type"`
	Round    uint64     `json:"round"`
	State    GameState  `json:"state"`
	Previous GameState  `json:"previous"`
	Score    int        `json:"score"`
	Tier     int        `json:"tier"`
	Next     int        `json:"next"`
	X        float64    `json:"x,omitempty"`
	Y        float64    `json:"y,omitempty"`
	Radius   float64    `json:"radius,omitempty"`
	Pop      int        `json:"pop,omitempty"`
	Reason   LossReason `json:"reason,omitempty"`
	Counts   []int      `json:"counts,omitempty"`
}

// Notifier receives session notifications. Calls happen on the session goroutine.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

type discardNotifier struct{}

func (discardNotifier) Notify(Event) {}
