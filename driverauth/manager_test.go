package driverauth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxiye-driver-server/drivers"
	"taxiye-driver-server/models"
	"taxiye-driver-server/session"
)

// stubAuthAPI holds a fixed session and lets tests fire auth-change events.
type stubAuthAPI struct {
	mu        sync.Mutex
	sess      *session.Session
	listeners []func(event string, s *session.Session)
}

func (s *stubAuthAPI) SignInWithPassword(ctx context.Context, identifier, password string) (*session.Session, error) {
	return s.sess, nil
}

func (s *stubAuthAPI) SignUp(ctx context.Context, identifier, password string, metadata map[string]string) (*session.Session, error) {
	return s.sess, nil
}

func (s *stubAuthAPI) ResetPasswordForEmail(ctx context.Context, identifier string) error { return nil }
func (s *stubAuthAPI) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	return nil
}

func (s *stubAuthAPI) GetSession(ctx context.Context) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess, nil
}

func (s *stubAuthAPI) OnAuthStateChange(fn func(event string, sess *session.Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
	return func() {}
}

func (s *stubAuthAPI) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.sess = nil
	fns := append([]func(string, *session.Session){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(session.EventSignedOut, nil)
	}
	return nil
}

func (s *stubAuthAPI) fire(event string, sess *session.Session) {
	s.mu.Lock()
	fns := append([]func(string, *session.Session){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(event, sess)
	}
}

func driverSession(userID string) *session.Session {
	return &session.Session{User: &session.User{ID: userID, Identifier: "driver911234567@taxiye.app"}}
}

func TestStartAnonymousWhenNoSession(t *testing.T) {
	api := &stubAuthAPI{}
	adapter := session.NewAdapter(api, session.NewMemoryOTPStore())
	m := NewManager(adapter, drivers.NewRepository(drivers.NewMemoryStore()))

	m.Start(context.Background())
	defer m.Close()

	st := m.Snapshot()
	assert.False(t, st.Loading)
	assert.Equal(t, PhaseAnonymous, st.Phase)
	assert.Nil(t, st.User)
	assert.Nil(t, st.Driver)
}

func TestStartLoadsUserAndProfile(t *testing.T) {
	api := &stubAuthAPI{sess: driverSession("user-1")}
	adapter := session.NewAdapter(api, session.NewMemoryOTPStore())

	store := drivers.NewMemoryStore()
	store.Seed(&models.Driver{Phone: "911234567", UserID: "user-1", Name: "Test Driver"})
	m := NewManager(adapter, drivers.NewRepository(store))

	m.Start(context.Background())
	defer m.Close()

	st := m.Snapshot()
	assert.False(t, st.Loading)
	assert.Equal(t, PhaseAuthenticated, st.Phase)
	require.NotNil(t, st.User)
	require.NotNil(t, st.Driver)
	assert.Equal(t, "911234567", st.Driver.Phone)
}

type neverStore struct{}

func (neverStore) GetByUserID(ctx context.Context, userID string) (*models.Driver, error) {
	<-ctx.Done() // the store never answers
	return nil, ctx.Err()
}

func (neverStore) UpdateByPhone(ctx context.Context, phone string, fields map[string]any) (*models.Driver, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// Loading must settle to false within the fetch budget even when the profile
// store never responds.
func TestLoadingSettlesOnFetchTimeout(t *testing.T) {
	api := &stubAuthAPI{sess: driverSession("user-1")}
	adapter := session.NewAdapter(api, session.NewMemoryOTPStore())
	repo := drivers.NewRepositoryWithTimeout(neverStore{}, 50*time.Millisecond)
	m := NewManager(adapter, repo, WithRestoreTimeout(time.Second))

	done := make(chan struct{})
	go func() {
		m.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not settle within the timeout window")
	}
	defer m.Close()

	st := m.Snapshot()
	assert.False(t, st.Loading)
	assert.Nil(t, st.Driver)
	assert.Equal(t, PhaseAuthenticatedNoProfile, st.Phase)
}

// A newer fetch generation supersedes an older in-flight one; the stale
// result must not be applied.
type gatedStore struct {
	mu      sync.Mutex
	answers map[string]*models.Driver
	gates   map[string]chan struct{}
}

func (s *gatedStore) GetByUserID(ctx context.Context, userID string) (*models.Driver, error) {
	s.mu.Lock()
	gate := s.gates[userID]
	answer := s.answers[userID]
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return answer, nil
}

func (s *gatedStore) UpdateByPhone(ctx context.Context, phone string, fields map[string]any) (*models.Driver, error) {
	return nil, nil
}

func TestStaleFetchGenerationDropped(t *testing.T) {
	oldGate := make(chan struct{})
	store := &gatedStore{
		answers: map[string]*models.Driver{
			"user-old": {Phone: "900000001", UserID: "user-old", Name: "Stale"},
			"user-new": {Phone: "900000002", UserID: "user-new", Name: "Fresh"},
		},
		gates: map[string]chan struct{}{"user-old": oldGate},
	}

	api := &stubAuthAPI{}
	adapter := session.NewAdapter(api, session.NewMemoryOTPStore())
	m := NewManager(adapter, drivers.NewRepository(store), WithRestoreTimeout(time.Second))
	m.Start(context.Background())

	// first event starts a fetch that blocks on the gate
	api.fire(session.EventSignedIn, &session.Session{User: &session.User{ID: "user-old"}})
	time.Sleep(20 * time.Millisecond)
	// second event supersedes it and completes immediately
	api.fire(session.EventSignedIn, &session.Session{User: &session.User{ID: "user-new"}})

	require.Eventually(t, func() bool {
		st := m.Snapshot()
		return st.Driver != nil && st.Driver.Name == "Fresh"
	}, 2*time.Second, 10*time.Millisecond)

	// release the stale fetch; its result must be dropped
	close(oldGate)
	m.Close()

	st := m.Snapshot()
	require.NotNil(t, st.Driver)
	assert.Equal(t, "Fresh", st.Driver.Name)
	assert.False(t, st.Loading)
}

func TestSignOutClearsThroughSubscription(t *testing.T) {
	api := &stubAuthAPI{sess: driverSession("user-1")}
	adapter := session.NewAdapter(api, session.NewMemoryOTPStore())
	store := drivers.NewMemoryStore()
	store.Seed(&models.Driver{Phone: "911234567", UserID: "user-1"})
	m := NewManager(adapter, drivers.NewRepository(store))

	m.Start(context.Background())
	require.NotNil(t, m.Snapshot().User)

	require.NoError(t, m.SignOut(context.Background()))
	m.Close()

	st := m.Snapshot()
	assert.Nil(t, st.User)
	assert.Nil(t, st.Driver)
	assert.Equal(t, PhaseAnonymous, st.Phase)
	assert.False(t, st.Loading)
}

func TestUpdateDriverProfile(t *testing.T) {
	api := &stubAuthAPI{sess: driverSession("user-1")}
	adapter := session.NewAdapter(api, session.NewMemoryOTPStore())
	store := drivers.NewMemoryStore()
	store.Seed(&models.Driver{Phone: "911234567", UserID: "user-1", Name: "Test Driver"})
	m := NewManager(adapter, drivers.NewRepository(store))

	m.Start(context.Background())
	defer m.Close()

	updated, err := m.UpdateDriverProfile(context.Background(), map[string]any{"vehicle_model": "Corolla"})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Corolla", updated.VehicleModel)
	assert.Equal(t, "Corolla", m.Snapshot().Driver.VehicleModel)
}

func TestUpdateDriverProfileWithoutProfile(t *testing.T) {
	api := &stubAuthAPI{}
	adapter := session.NewAdapter(api, session.NewMemoryOTPStore())
	m := NewManager(adapter, drivers.NewRepository(drivers.NewMemoryStore()))
	m.Start(context.Background())
	defer m.Close()

	_, err := m.UpdateDriverProfile(context.Background(), map[string]any{"is_online": true})
	assert.Error(t, err)
}

// signsInDuringRestore fires a sign-in event while the session restore is
// still in flight and then reports no restorable session.
type signsInDuringRestore struct {
	stubAuthAPI
	during *session.Session
}

func (s *signsInDuringRestore) GetSession(ctx context.Context) (*session.Session, error) {
	s.fire(session.EventSignedIn, s.during)
	return nil, nil
}

func TestSignInDuringRestoreIsNotMissed(t *testing.T) {
	store := drivers.NewMemoryStore()
	store.Seed(&models.Driver{Phone: "911234567", UserID: "user-1", Name: "Test Driver"})

	api := &signsInDuringRestore{during: driverSession("user-1")}
	adapter := session.NewAdapter(api, session.NewMemoryOTPStore())
	m := NewManager(adapter, drivers.NewRepository(store))

	m.Start(context.Background())
	defer m.Close()

	require.Eventually(t, func() bool {
		st := m.Snapshot()
		return st.Phase == PhaseAuthenticated && !st.Loading
	}, time.Second, 10*time.Millisecond)

	st := m.Snapshot()
	require.NotNil(t, st.Driver)
	assert.Equal(t, "911234567", st.Driver.Phone)
	assert.Equal(t, "user-1", st.User.ID)
}
