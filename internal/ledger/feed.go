package ledger

import (
	"sync"

	"github.com/amoghcc/coffee-shop-rewards/internal/models"
)

// subscriberBuffer is the per-subscription channel depth. A subscriber that
// falls further behind than this loses events and must re-list from its last
// seen sequence number.
const subscriberBuffer = 16

// Event is one ledger delta delivered to feed subscribers. Seq lets a
// subscriber detect gaps and resume via Store.List(userID, lastSeen).
type Event struct {
	Transaction models.Transaction `json:"transaction"`
	Seq         uint64             `json:"seq"`
}

// Feed fans appended transactions out to live observers. Delivery is
// best-effort and at-least-once per connected session: events for one user
// arrive in sequence order, but a slow subscriber may miss events and is
// expected to recover by re-listing. The feed is a convenience on top of the
// store, never a source of truth.
type Feed struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{} // userID -> subscriptions
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscription is one observer's view of a user's feed. Close it when done;
// a closed subscription's channel is drained and closed by the feed.
type Subscription struct {
	feed   *Feed
	userID string
	ch     chan Event
	once   sync.Once
}

// C returns the event channel. It is closed after Close.
func (s *Subscription) C() <-chan Event { return s.ch }

// Close detaches the subscription from the feed.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		if set, ok := s.feed.subs[s.userID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.feed.subs, s.userID)
			}
		}
		s.feed.mu.Unlock()
		close(s.ch)
	})
}

// Subscribe registers a live observer for userID's ledger.
func (f *Feed) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		feed:   f,
		userID: userID,
		ch:     make(chan Event, subscriberBuffer),
	}
	f.mu.Lock()
	set, ok := f.subs[userID]
	if !ok {
		set = make(map[*Subscription]struct{})
		f.subs[userID] = set
	}
	set[sub] = struct{}{}
	f.mu.Unlock()
	return sub
}

// publish delivers tx to every subscriber of its user without blocking the
// append path. Full subscriber buffers drop the event; the sequence numbers
// carried by later events expose the gap to the subscriber.
func (f *Feed) publish(tx models.Transaction) {
	ev := Event{Transaction: tx, Seq: tx.Seq}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for sub := range f.subs[tx.UserID] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}
