package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/formcheck/internal/athlete"
	"github.com/ayusman/formcheck/internal/metrics"
)

// ErrNotFound is returned when a session does not exist or has ended.
var ErrNotFound = errors.New("session not found")

// CreateOptions describe a new session.
type CreateOptions struct {
	AthleteID string
	User      *athlete.Profile
}

// Manager keeps the live sessions of a process.
type Manager struct {
	cfg     Config
	hooks   []Hook
	metrics *metrics.Manager
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(cfg Config, m *metrics.Manager, hooks ...Hook) *Manager {
	return &Manager{
		cfg:      cfg,
		hooks:    hooks,
		metrics:  m,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session with a new random ID.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (*Session, error) {
	if opts.User != nil {
		if err := opts.User.Validate(); err != nil {
			return nil, err
		}
		u := opts.User.Clone()
		opts.User = &u
	}

	s := newSession(uuid.NewString(), opts.AthleteID, opts.User, m.cfg, m.metrics, m.now, m.hooks)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.GaugeActiveSessions.Inc()
	}
	info := s.Info()
	emit(ctx, m.hooks, Event{Type: EventStart, SessionID: s.id, Info: &info})
	log.Debugf("session %s started", s.id)
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// End removes a session and returns its final description.
func (m *Manager) End(ctx context.Context, id string) (Info, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m.finish(ctx, s), nil
}

func (m *Manager) finish(ctx context.Context, s *Session) Info {
	s.mu.Lock()
	info := s.info()
	s.emit(ctx, Event{Type: EventEnd, SessionID: s.id, Info: &info})
	s.mu.Unlock()

	if m.metrics != nil {
		m.metrics.GaugeActiveSessions.Dec()
	}
	log.Debugf("session %s ended after %d frames", s.id, info.Frames)
	return info
}

// List describes the live sessions, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	slices.SortFunc(infos, func(a, b Info) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return infos
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap ends every session that has not processed a frame for longer than
// idle and returns how many were ended.
func (m *Manager) Reap(ctx context.Context, idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		m.finish(ctx, s)
	}
	if len(stale) > 0 {
		log.Infof("reaped %d idle sessions", len(stale))
	}
	return len(stale)
}

// StartReaper reaps idle sessions every interval until ctx is done. The
// returned channel is closed when the reaper has stopped.
func (m *Manager) StartReaper(ctx context.Context, interval, idle time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Reap(ctx, idle)
			}
		}
	}()
	return done
}

// Close ends every live session.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	clear(m.sessions)
	m.mu.Unlock()

	for _, s := range sessions {
		m.finish(ctx, s)
	}
}
