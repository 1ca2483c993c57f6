package relocate

import "github.com/tidybar/tidybar/internal/model"

// Request is one move order.
type Request struct {
	ID     string
	Target model.Placement
	// Bar marks a floating move that should also render on the floating bar.
	Bar bool
}

// Queue coalesces move requests that arrive while a move is in flight. Each
// item holds a single follow-up slot; a newer request for the same item
// replaces the older one instead of stacking.
type Queue struct {
	order []string
	slots map[string]Request
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{slots: make(map[string]Request)}
}

// Offer stores a follow-up, replacing any queued request for the same item.
func (q *Queue) Offer(r Request) {
	if _, ok := q.slots[r.ID]; !ok {
		q.order = append(q.order, r.ID)
	}
	q.slots[r.ID] = r
}

// Next pops the oldest queued request.
func (q *Queue) Next() (Request, bool) {
	for len(q.order) > 0 {
		id := q.order[0]
		q.order = q.order[1:]
		if r, ok := q.slots[id]; ok {
			delete(q.slots, id)
			return r, true
		}
	}
	return Request{}, false
}

// Remap follows an identity change: a queued follow-up for the old id now
// targets the new one.
func (q *Queue) Remap(oldID, newID string) {
	r, ok := q.slots[oldID]
	if !ok || oldID == newID {
		return
	}
	delete(q.slots, oldID)
	r.ID = newID
	if _, exists := q.slots[newID]; !exists {
		q.slots[newID] = r
		for i, id := range q.order {
			if id == oldID {
				q.order[i] = newID
				return
			}
		}
		q.order = append(q.order, newID)
	}
}

// Len reports how many follow-ups are queued.
func (q *Queue) Len() int { return len(q.slots) }
