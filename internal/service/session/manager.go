package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/checksheet/internal/domain/models"
	"github.com/mamadbah2/checksheet/internal/service/packing"
)

// Session is the explicit context of one worker's inspection run: who is
// checking, which container and item, and the packing-order progress.
type Session struct {
	mu sync.Mutex

	ID         string
	User       models.User
	Scan       *models.QRPayload
	Containers []models.Container
	Container  string
	Item       *models.Item
	Properties []models.Property
	Packing    *packing.Verifier
	CreatedAt  time.Time

	// matches holds the scanned item as found on each matching container.
	matches  map[string]models.Item
	lastSeen atomic.Int64
}

// LastSeen is when the session was last touched.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch(at time.Time) {
	s.lastSeen.Store(at.UnixNano())
}

// View is the serializable state of a session.
type View struct {
	ID         string             `json:"id"`
	User       models.User        `json:"user"`
	Scan       *models.QRPayload  `json:"scan,omitempty"`
	Containers []models.Container `json:"containers,omitempty"`
	Container  string             `json:"container,omitempty"`
	Item       *models.Item       `json:"item,omitempty"`
	Packing    bool               `json:"packingOpen"`
	CreatedAt  time.Time          `json:"createdAt"`
	LastSeen   time.Time          `json:"lastSeen"`
}

func (s *Session) viewLocked() View {
	return View{
		ID:         s.ID,
		User:       s.User,
		Scan:       s.Scan,
		Containers: s.Containers,
		Container:  s.Container,
		Item:       s.Item,
		Packing:    s.Packing != nil,
		CreatedAt:  s.CreatedAt,
		LastSeen:   s.LastSeen(),
	}
}

// clearScanLocked drops everything derived from the previous label.
func (s *Session) clearScanLocked() {
	s.Scan = nil
	s.Containers = nil
	s.Container = ""
	s.matches = nil
	s.Item = nil
	s.Properties = nil
	s.Packing = nil
}

// Manager holds live sessions in memory.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	now      func() time.Time
}

// NewManager creates a new session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create opens a session for user.
func (m *Manager) Create(user models.User) *Session {
	now := m.now()
	s := &Session{ID: uuid.NewString(), User: user, CreatedAt: now}
	s.touch(now)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return s
}

// Get retrieves a session and marks it as seen.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.touch(m.now())
	return s, true
}

// Delete removes a session.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle drops sessions not seen within ttl and returns how many went.
func (m *Manager) EvictIdle(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}
