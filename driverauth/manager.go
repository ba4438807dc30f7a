package driverauth

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"taxiye-driver-server/drivers"
	"taxiye-driver-server/models"
	"taxiye-driver-server/session"
)

// Phase is the lifecycle of a device session.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseRestoring
	PhaseAnonymous
	PhaseAuthenticatedNoProfile
	PhaseAuthenticated
)

// State is the reactive identity+profile snapshot the screen layer consumes.
// Loading stays true only until both session restore and the profile fetch
// have settled; a timeout settles them too, so Loading never sticks.
type State struct {
	User    *session.User
	Driver  *models.Driver
	Loading bool
	Phase   Phase
}

const defaultRestoreTimeout = 10 * time.Second

// Manager is the composition root tying the session adapter and the driver
// repository into one lifecycle. Profile fetches triggered by session-change
// events are tagged with a monotonic generation; only the newest
// generation's result is applied, so a stale fetch can never clobber a newer
// one.
type Manager struct {
	adapter        *session.Adapter
	repo           *drivers.Repository
	restoreTimeout time.Duration

	mu    sync.Mutex
	state State
	gen   uint64
	unsub func()
	wg    sync.WaitGroup
}

// Option tweaks the manager.
type Option func(*Manager)

// WithRestoreTimeout overrides the session-restore budget.
func WithRestoreTimeout(d time.Duration) Option {
	return func(m *Manager) { m.restoreTimeout = d }
}

func NewManager(adapter *session.Adapter, repo *drivers.Repository, opts ...Option) *Manager {
	m := &Manager{
		adapter:        adapter,
		repo:           repo,
		restoreTimeout: defaultRestoreTimeout,
		state:          State{Phase: PhaseUninitialized, Loading: true},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start subscribes to session-change notifications for the manager's
// lifetime, then restores the session and, when one exists, fetches the
// driver profile. Every path settles Loading.
func (m *Manager) Start(ctx context.Context) {
	m.setPhase(PhaseRestoring, true)

	// Subscribe before restoring so a sign-in landing during the restore
	// window is not missed; generation tagging keeps the fetches ordered.
	m.unsub = m.adapter.OnAuthStateChange(func(event string, s *session.Session) {
		switch {
		case s == nil || s.User == nil:
			m.mu.Lock()
			m.state = State{Phase: PhaseAnonymous, Loading: false}
			m.mu.Unlock()
		default:
			m.mu.Lock()
			m.state.User = s.User
			if m.state.Phase < PhaseAuthenticatedNoProfile {
				m.state.Phase = PhaseAuthenticatedNoProfile
			}
			m.mu.Unlock()
			user := s.User
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				m.fetchProfile(ctx, user)
			}()
		}
	})

	sess, err := m.adapter.RestoreSession(ctx, m.restoreTimeout)
	if err != nil || sess == nil || sess.User == nil {
		m.mu.Lock()
		// A sign-in event may have arrived while restoring; only settle
		// to anonymous when nothing did.
		if m.state.User == nil {
			m.state = State{Phase: PhaseAnonymous, Loading: false}
		}
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	m.state.User = sess.User
	if m.state.Phase < PhaseAuthenticatedNoProfile {
		m.state.Phase = PhaseAuthenticatedNoProfile
	}
	m.mu.Unlock()
	m.fetchProfile(ctx, sess.User)
}

// fetchProfile runs one generation-tagged profile fetch. The repository
// enforces its own timeout, so this always returns; the result is applied
// only if no newer fetch started meanwhile.
func (m *Manager) fetchProfile(ctx context.Context, user *session.User) {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.state.Loading = true
	m.mu.Unlock()

	driver, err := m.repo.FetchByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, drivers.ErrTimeout) {
		log.Printf("driverauth: profile fetch failed: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		// a newer fetch superseded this one; drop the stale result
		return
	}
	m.state.Driver = driver
	m.state.Loading = false
	if m.state.User == nil {
		m.state.Phase = PhaseAnonymous
	} else if driver != nil {
		m.state.Phase = PhaseAuthenticated
	} else {
		m.state.Phase = PhaseAuthenticatedNoProfile
	}
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// UpdateDriverProfile patches the held driver's profile; local state changes
// only on success.
func (m *Manager) UpdateDriverProfile(ctx context.Context, fields map[string]any) (*models.Driver, error) {
	m.mu.Lock()
	current := m.state.Driver
	m.mu.Unlock()
	if current == nil {
		return nil, errors.New("driverauth: no driver profile loaded")
	}

	updated, err := m.repo.Patch(ctx, current.Phone, fields)
	if err != nil || updated == nil {
		return nil, err
	}

	m.mu.Lock()
	if m.state.Driver != nil && m.state.Driver.Phone == updated.Phone {
		m.state.Driver = updated
	}
	m.mu.Unlock()
	return updated, nil
}

// SignOut delegates to the adapter; local state clears through the
// session-change subscription, not synchronously.
func (m *Manager) SignOut(ctx context.Context) error {
	return m.adapter.SignOut(ctx)
}

// Close unsubscribes and waits for in-flight fetches.
func (m *Manager) Close() {
	if m.unsub != nil {
		m.unsub()
	}
	m.wg.Wait()
}

func (m *Manager) setPhase(phase Phase, loading bool) {
	m.mu.Lock()
	m.state.Phase = phase
	m.state.Loading = loading
	m.mu.Unlock()
}
