package auth

import "sync"

// Change is a sign-in state change. Identity is the principal whose state
// changed; SignedIn is false on sign-out.
type Change struct {
	Identity  Identity
	SessionID string
	SignedIn  bool
}

// Broker fans out sign-in and sign-out changes to subscribers.
type Broker struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Change)
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{subs: map[int]func(Change){}}
}

// Subscription is the handle returned by Subscribe. Callbacks keep firing
// until Cancel is called.
type Subscription struct {
	broker *Broker
	id     int
	once   sync.Once
}

// Subscribe registers fn for every subsequent change.
func (b *Broker) Subscribe(fn func(Change)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	b.subs[b.next] = fn
	return &Subscription{broker: b, id: b.next}
}

// Cancel stops delivery to the subscription. It is safe to call twice.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.subs, s.id)
		s.broker.mu.Unlock()
	})
}

// Publish delivers c synchronously to a snapshot of the current subscribers.
func (b *Broker) Publish(c Change) {
	b.mu.Lock()
	fns := make([]func(Change), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
