package session

import (
	"context"
	"sync"
	"time"

	"github.com/isa-group/harvey-agent-core/internal/pricing"
)

// minCleanupInterval is the smallest allowed TTL to prevent degenerate ticker intervals.
const minCleanupInterval = time.Millisecond

// Turn represents one complete exchange (user question + assistant answer).
type Turn struct {
	UserMsg   string
	Assistant string // final answer, excluding intermediate reasoning steps
	IsAgent   bool   // true = Agent mode response
}

// Session holds all state for a single conversation (Conversation, spec.md
// §3): turn history plus the pricing-context working set the agent loop
// reads and appends to, and the cancellation for whichever turn is
// currently in flight.
type Session struct {
	ID       string
	History  []Turn
	Summary  string // compact summary of older turns (accumulated across multiple /compact calls)
	LastUsed time.Time

	// Items is the pricing-context working set (spec.md §3's Conversation),
	// keyed by item ID. C7 mutates it only by appending/updating items via
	// the Store's accessor methods below, never by holding a reference
	// across a lock release.
	Items map[string]*pricing.Item

	// cancel, when non-nil, cancels the context of the turn currently being
	// processed for this session. Set by BeginTurn, cleared by EndTurn.
	cancel context.CancelFunc
}

// Store is a thread-safe in-memory session registry with TTL eviction.
// NOT designed for multi-replica deployments; matches the single-process
// architecture of Pocket-Omega v0.x.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration // inactivity TTL, e.g. 30 minutes
	maxTurns int           // max turns retained per session, e.g. 10
	done     chan struct{} // closed by Close() to stop the cleanup goroutine
}

// NewStore creates a new Store with the given TTL and maxTurns limit.
// A background goroutine is started to periodically evict expired sessions.
// Call Close() when the store is no longer needed to stop the goroutine.
func NewStore(ttl time.Duration, maxTurns int) *Store {
	if ttl < minCleanupInterval {
		ttl = minCleanupInterval
	}
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		maxTurns: maxTurns,
		done:     make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// getOrCreateLocked returns the session for id, creating it if absent.
// Callers must hold s.mu for writing.
func (s *Store) getOrCreateLocked(id string) *Session {
	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{ID: id, Items: make(map[string]*pricing.Item), LastUsed: time.Now()}
		s.sessions[id] = sess
	}
	return sess
}

// AppendTurn adds a completed exchange to the session, enforcing maxTurns.
// If the session does not yet exist it is created automatically, so callers
// do not need to call GetOrCreate separately before the first AppendTurn.
func (s *Store) AppendTurn(id string, turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(id)
	sess.History = append(sess.History, turn)
	// Trim oldest turns to stay within maxTurns
	if len(sess.History) > s.maxTurns {
		sess.History = sess.History[len(sess.History)-s.maxTurns:]
	}
	sess.LastUsed = time.Now()
}

// BeginTurn derives a cancellable context from parent for a new in-flight
// turn on session id, storing the cancel func so a concurrent CancelTurn
// call (e.g. the user navigating away mid-stream) can abort it. Any
// previously stored cancel is invoked first, since a session processes at
// most one turn at a time.
func (s *Store) BeginTurn(parent context.Context, id string) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(id)
	if sess.cancel != nil {
		sess.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	sess.cancel = cancel
	sess.LastUsed = time.Now()
	return ctx
}

// EndTurn clears the stored cancel func once a turn completes normally, so
// a stale cancel is never invoked against a future, unrelated turn.
func (s *Store) EndTurn(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.cancel = nil
	}
}

// CancelTurn aborts the turn currently in flight for id, if any. Returns
// false if the session is unknown or has no turn in flight.
func (s *Store) CancelTurn(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.cancel == nil {
		return false
	}
	sess.cancel()
	sess.cancel = nil
	return true
}

// PutItem inserts or replaces a pricing-context item in id's working set.
func (s *Store) PutItem(id string, item *pricing.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.getOrCreateLocked(id)
	sess.Items[item.ID] = item
	sess.LastUsed = time.Now()
}

// GetItem looks up a single pricing-context item by id.
func (s *Store) GetItem(id, itemID string) (*pricing.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	item, ok := sess.Items[itemID]
	return item, ok
}

// ListItems returns a snapshot of id's pricing-context working set.
func (s *Store) ListItems(id string) []*pricing.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	out := make([]*pricing.Item, 0, len(sess.Items))
	for _, item := range sess.Items {
		out = append(out, item)
	}
	return out
}

// DeleteItem removes a single pricing-context item from id's working set.
func (s *Store) DeleteItem(id, itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		delete(sess.Items, itemID)
	}
}

// GetHistory returns a copy of id's turn history, or nil if unknown.
func (s *Store) GetHistory(id string) []Turn {
	turns, _ := s.GetSessionContext(id)
	return turns
}

// GetSessionContext atomically returns both turn history and compact summary.
// Prefer this over separate GetHistory + GetSummary calls to avoid TOCTOU issues.
func (s *Store) GetSessionContext(id string) ([]Turn, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ""
	}
	result := make([]Turn, len(sess.History))
	copy(result, sess.History)
	return result, sess.Summary
}

// Compact replaces old turns with a summary, keeping the newest keepN turns.
// The caller is responsible for merging any existing summary into the new one
// before calling this method.
func (s *Store) Compact(id string, summary string, keepN int) (compacted int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || len(sess.History) <= keepN {
		return 0
	}
	compacted = len(sess.History) - keepN
	sess.Summary = summary
	sess.History = sess.History[len(sess.History)-keepN:]
	sess.LastUsed = time.Now()
	return compacted
}

// Delete explicitly removes a session (e.g., user clicks "Clear Chat").
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Count returns the number of active sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the background cleanup goroutine. Safe to call multiple times.
func (s *Store) Close() {
	select {
	case <-s.done:
		// already closed
	default:
		close(s.done)
	}
}

// contextKey is an unexported type so sessionIDKey can't collide with keys
// set by other packages using a context.Context.
type contextKey struct{}

var sessionIDKey = contextKey{}

// ContextWithID attaches id to ctx so a callback invoked deeper in the call
// chain (e.g. the pricing cache publishing a transform state change) can
// recover which session to notify without threading an extra parameter
// through every intermediate call.
func ContextWithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// IDFromContext returns the session id attached by ContextWithID, or "" if
// none was attached.
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// cleanupLoop periodically removes sessions that have exceeded the TTL.
func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			cutoff := time.Now().Add(-s.ttl)
			for id, sess := range s.sessions {
				if sess.LastUsed.Before(cutoff) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
