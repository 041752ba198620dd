package sim

import (
	"container/heap"
	"fmt"
)

// Actor identifies who acts at an event: the boss (0) or a healer (1..N).
type Actor int

// Boss is the single damage source of the encounter.
const Boss Actor = 0

// HealerActor returns the actor for a 1-based healer id.
func HealerActor(id int) Actor { return Actor(id) }

// IsBoss reports whether a is the damage source.
func (a Actor) IsBoss() bool { return a == Boss }

// Healer returns the 1-based healer id of a.
func (a Actor) Healer() int { return int(a) }

func (a Actor) String() string {
	if a.IsBoss() {
		return "Patchwerk Hateful"
	}
	return fmt.Sprintf("Healer #%d Heal", int(a))
}

// Event is a scheduled action of one actor at simulated time Time.
type Event struct {
	Actor Actor
	Time  float64
	seq   uint64
}

func (e Event) String() string {
	return fmt.Sprintf("[Time %5.1f] %s", e.Time, e.Actor)
}

// eventQueue is a min-heap on Time. Events at the same time pop in push
// order.
type eventQueue struct {
	events eventHeap
	seq    uint64
}

func (q *eventQueue) Push(a Actor, t float64) {
	heap.Push(&q.events, Event{Actor: a, Time: t, seq: q.seq})
	q.seq++
}

func (q *eventQueue) Pop() (Event, bool) {
	if len(q.events) == 0 {
		return Event{}, false
	}
	return heap.Pop(&q.events).(Event), true
}

func (q *eventQueue) Peek() (Event, bool) {
	if len(q.events) == 0 {
		return Event{}, false
	}
	return q.events[0], true
}

func (q *eventQueue) Len() int { return len(q.events) }

type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
