package game

import (
	"container/heap"
	"time"
)

// MessageKind identifies a deferred action.
type MessageKind int

const (
	MsgStartSettle MessageKind = iota
	MsgDropCooldown
	MsgOverflowCheck
	MsgPopExpire
)

// Guard is the snapshot a deferred message re-validates when it fires.
// Any disables the state check.
type Guard struct {
	Round uint64
	State GameState
	Any   bool
}

// Message is a deferred action scheduled on the session clock.
type Message struct {
	Kind  MessageKind
	Due   time.Duration
	Guard Guard
	A, B  Handle
	Pop   int // pop effect id for MsgPopExpire
	seq   uint64
}

type messageHeap []Message

func (h messageHeap) Len() int { return len(h) }
func (h messageHeap) Less(i, j int) bool {
	if h[i].Due != h[j].Due {
		return h[i].Due < h[j].Due
	}
	return h[i].seq < h[j].seq
}
func (h messageHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *messageHeap) Push(x any)   { *h = append(*h, x.(Message)) }
func (h *messageHeap) Pop() any {
	old := *h
	n := len(old)
	m := old[n-1]
	*h = old[:n-1]
	return m
}

// Scheduler orders deferred messages by due time, then by scheduling order.
// Messages are never cancelled; their guards decide whether they still apply.
type Scheduler struct {
	queue messageHeap
	seq   uint64
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule queues msg to fire at now+delay.
func (s *Scheduler) Schedule(now, delay time.Duration, msg Message) {
	s.seq++
	msg.seq = s.seq
	msg.Due = now + delay
	heap.Push(&s.queue, msg)
}

// Due pops every message whose time has come.
func (s *Scheduler) Due(now time.Duration) []Message {
	var out []Message
	for len(s.queue) > 0 && s.queue[0].Due <= now {
		out = append(out, heap.Pop(&s.queue).(Message))
	}
	return out
}

func (s *Scheduler) Len() int {
	return len(s.queue)
}
