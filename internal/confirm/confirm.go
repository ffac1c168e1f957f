// ABOUTME: Pending-confirmation lifecycle gating side-effecting actions behind user approval.
// ABOUTME: Created, Confirmed, Executed, Cancelled, Expired; five-minute TTL, lazy purge on every read.

package confirm

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a pending confirmation stays answerable.
const DefaultTTL = 5 * time.Minute

// Confirmation is one pending approval for a detected action.
type Confirmation struct {
	ID              string
	UserID          int64
	ChatID          int64
	IntentType      string
	OriginalMessage string
	ProviderClasses []string
	CreatedAt       time.Time
	ExpiresAt       time.Time
	Confirmed       bool
	Executed        bool
}

// Manager holds pending confirmations in memory. Every transition runs
// under the mutex, so each id has one writer at a time; two concurrent
// confirms cannot both observe the false-to-true flip.
type Manager struct {
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	pending map[string]*Confirmation
}

// NewManager creates a manager. Zero ttl means DefaultTTL.
func NewManager(ttl time.Duration, logger *slog.Logger) *Manager {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		ttl:     ttl,
		logger:  logger.With("component", "confirm"),
		now:     time.Now,
		pending: make(map[string]*Confirmation),
	}
}

// Create registers a new pending confirmation and returns it.
func (m *Manager) Create(userID, chatID int64, intentType, originalMessage string, providerClasses []string) *Confirmation {
	now := m.now()
	c := &Confirmation{
		ID:              uuid.NewString(),
		UserID:          userID,
		ChatID:          chatID,
		IntentType:      intentType,
		OriginalMessage: originalMessage,
		ProviderClasses: append([]string(nil), providerClasses...),
		CreatedAt:       now,
		ExpiresAt:       now.Add(m.ttl),
	}

	m.mu.Lock()
	m.purgeLocked()
	m.pending[c.ID] = c
	m.mu.Unlock()

	m.logger.Info("confirmation created",
		"confirmation_id", c.ID, "intent", intentType, "user_id", userID, "chat_id", chatID)
	return c
}

// Confirm flips an unexpired, not-yet-handled confirmation to confirmed
// and returns it. Not-found, expired, and already-confirmed all come
// back as a uniform miss.
func (m *Manager) Confirm(id string) (*Confirmation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeLocked()

	c, ok := m.pending[id]
	if !ok || c.Confirmed {
		return nil, false
	}
	c.Confirmed = true
	m.logger.Info("confirmation accepted", "confirmation_id", id, "intent", c.IntentType)
	return c.clone(), true
}

// ExecuteConfirmed records that the confirmed action was dispatched and
// returns the entry. Only a confirmed, unexpired entry qualifies; a
// repeat call returns the already-executed entry without another flip.
// The caller performs the actual side effect, this is bookkeeping only.
func (m *Manager) ExecuteConfirmed(id string) (*Confirmation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeLocked()

	c, ok := m.pending[id]
	if !ok || !c.Confirmed {
		return nil, false
	}
	c.Executed = true
	return c.clone(), true
}

// Cancel removes the confirmation if present and returns it. No purge
// runs first: an entry past its expiry that has not yet been swept is
// still cancellable, and cancelling is itself the delete.
func (m *Manager) Cancel(id string) (*Confirmation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.pending[id]
	if !ok {
		return nil, false
	}
	delete(m.pending, id)
	m.logger.Info("confirmation cancelled", "confirmation_id", id, "intent", c.IntentType)
	return c, true
}

// Get returns a snapshot of one unexpired confirmation.
func (m *Manager) Get(id string) (*Confirmation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeLocked()

	c, ok := m.pending[id]
	if !ok {
		return nil, false
	}
	return c.clone(), true
}

// ListForUser returns one user's unexpired confirmations, oldest first.
func (m *Manager) ListForUser(userID int64) []*Confirmation {
	return m.list(func(c *Confirmation) bool { return c.UserID == userID })
}

// ListForChat returns one chat's unexpired confirmations, oldest first.
func (m *Manager) ListForChat(chatID int64) []*Confirmation {
	return m.list(func(c *Confirmation) bool { return c.ChatID == chatID })
}

func (m *Manager) list(match func(*Confirmation) bool) []*Confirmation {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeLocked()

	var out []*Confirmation
	for _, c := range m.pending {
		if match(c) {
			out = append(out, c.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// purgeLocked drops every entry past its expiry. Runs under the mutex
// on every read so no background goroutine is needed.
func (m *Manager) purgeLocked() {
	now := m.now()
	for id, c := range m.pending {
		if now.After(c.ExpiresAt) {
			delete(m.pending, id)
			m.logger.Info("confirmation expired", "confirmation_id", id, "intent", c.IntentType)
		}
	}
}

func (c *Confirmation) clone() *Confirmation {
	dup := *c
	dup.ProviderClasses = append([]string(nil), c.ProviderClasses...)
	return &dup
}
