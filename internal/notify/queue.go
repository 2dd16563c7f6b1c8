// Package notify holds the in-app notification queue: newest first, capped
// at a small limit, with dismissed entries removed after a delay.
package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultLimit caps the number of queued notifications.
	DefaultLimit = 5
	// DefaultRemoveDelay is how long a dismissed notification lingers.
	DefaultRemoveDelay = 5 * time.Second
)

// Variant selects how a notification is styled.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is one queued message.
type Notification struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Variant     Variant   `json:"variant"`
	Open        bool      `json:"open"`
	CreatedAt   time.Time `json:"created_at"`
}

type actionKind int

const (
	actionAdd actionKind = iota
	actionUpdate
	actionDismiss
	actionRemove
)

type action struct {
	kind  actionKind
	id    string
	entry Notification
}

// reduce is the pure transition over the queue contents. An empty id on
// dismiss or remove targets every entry.
func reduce(list []Notification, a action, limit int) []Notification {
	switch a.kind {
	case actionAdd:
		out := append([]Notification{a.entry}, list...)
		if len(out) > limit {
			out = out[:limit]
		}
		return out
	case actionUpdate:
		out := slices.Clone(list)
		for i := range out {
			if out[i].ID != a.entry.ID {
				continue
			}
			if a.entry.Title != "" {
				out[i].Title = a.entry.Title
			}
			if a.entry.Description != "" {
				out[i].Description = a.entry.Description
			}
			if a.entry.Variant != "" {
				out[i].Variant = a.entry.Variant
			}
		}
		return out
	case actionDismiss:
		out := slices.Clone(list)
		for i := range out {
			if a.id == "" || out[i].ID == a.id {
				out[i].Open = false
			}
		}
		return out
	case actionRemove:
		if a.id == "" {
			return []Notification{}
		}
		return slices.DeleteFunc(slices.Clone(list), func(n Notification) bool { return n.ID == a.id })
	}
	return list
}

// Queue is safe for concurrent use.
type Queue struct {
	mu          sync.Mutex
	list        []Notification
	timers      map[string]*time.Timer
	limit       int
	removeDelay time.Duration
	now         func() time.Time
	logger      *zap.Logger
	closed      bool
}

// Option configures a Queue.
type Option func(*Queue)

// WithLimit overrides DefaultLimit.
func WithLimit(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.limit = n
		}
	}
}

// WithRemoveDelay overrides DefaultRemoveDelay.
func WithRemoveDelay(d time.Duration) Option {
	return func(q *Queue) { q.removeDelay = d }
}

// WithClock replaces time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(q *Queue) { q.logger = logger }
}

// New returns an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		list:        []Notification{},
		timers:      make(map[string]*time.Timer),
		limit:       DefaultLimit,
		removeDelay: DefaultRemoveDelay,
		now:         time.Now,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// apply runs the reducer and disarms timers of entries it dropped, such as
// the oldest entry evicted by an add past the limit. Callers hold mu.
func (q *Queue) apply(a action) {
	q.list = reduce(q.list, a, q.limit)
	for id, t := range q.timers {
		if !slices.ContainsFunc(q.list, func(n Notification) bool { return n.ID == id }) {
			t.Stop()
			delete(q.timers, id)
		}
	}
}

// Add queues n as open and returns its id.
func (q *Queue) Add(n Notification) string {
	n.ID = uuid.NewString()
	n.Open = true
	if n.Variant == "" {
		n.Variant = VariantDefault
	}
	n.CreatedAt = q.now()
	q.mu.Lock()
	defer q.mu.Unlock()
	q.apply(action{kind: actionAdd, entry: n})
	q.logger.Debug("notification queued", zap.String("id", n.ID), zap.String("title", n.Title))
	return n.ID
}

// Push is Add for a plain title and description.
func (q *Queue) Push(title, description string) string {
	return q.Add(Notification{Title: title, Description: description})
}

// Alert is Push with the destructive variant.
func (q *Queue) Alert(title, description string) string {
	return q.Add(Notification{Title: title, Description: description, Variant: VariantDestructive})
}

// Update merges the non-empty text fields of n into the entry with n.ID.
func (q *Queue) Update(n Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.apply(action{kind: actionUpdate, entry: n})
}

// Dismiss closes the entry with id, or every entry when id is empty, and
// schedules its removal.
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	for _, n := range q.list {
		if id == "" || n.ID == id {
			q.scheduleRemoval(n.ID)
		}
	}
	q.apply(action{kind: actionDismiss, id: id})
}

// Remove drops the entry with id, or every entry when id is empty.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.remove(id)
}

func (q *Queue) remove(id string) {
	if id == "" {
		for key, t := range q.timers {
			t.Stop()
			delete(q.timers, key)
		}
	} else if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	q.apply(action{kind: actionRemove, id: id})
}

// scheduleRemoval arms one timer per id; callers hold mu.
func (q *Queue) scheduleRemoval(id string) {
	if _, pending := q.timers[id]; pending {
		return
	}
	q.timers[id] = time.AfterFunc(q.removeDelay, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		if q.closed {
			return
		}
		delete(q.timers, id)
		q.apply(action{kind: actionRemove, id: id})
	})
}

// List returns the queued notifications, newest first.
func (q *Queue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.list)
}

// Pending is the number of armed removal timers.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.timers)
}

// Close stops every pending removal timer. Later dismissals are ignored.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
}
