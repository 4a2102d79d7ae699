package authkit_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	authkit "github.com/jandrikus/go-authkit"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// fakeStore is an in-memory IdentityStore with case-insensitive lookups and
// injectable failures.
type fakeStore struct {
	mu      sync.Mutex
	nextID  int64
	users   map[int64]*authkit.User
	roles   map[int64][]string
	deleted []int64

	findErr   error
	createErr error
	rolesErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: map[int64]*authkit.User{},
		roles: map[int64][]string{},
	}
}

func (s *fakeStore) FindByUsername(_ context.Context, username string) (*authkit.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if username == "" {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) && u.Username != "" {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (*authkit.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if email == "" {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) && u.Email != "" {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindByID(_ context.Context, id int64) (*authkit.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id], nil
}

func (s *fakeStore) Create(_ context.Context, user *authkit.User) (*authkit.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username != "" && strings.EqualFold(u.Username, user.Username) {
			return nil, authkit.ErrUsernameTaken
		}
		if u.Email != "" && strings.EqualFold(u.Email, user.Email) {
			return nil, authkit.ErrEmailTaken
		}
	}
	s.nextID++
	user.ID = s.nextID
	s.users[user.ID] = user
	return user, nil
}

func (s *fakeStore) Save(_ context.Context, user *authkit.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *fakeStore) Delete(_ context.Context, user *authkit.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, user.ID)
	s.deleted = append(s.deleted, user.ID)
	return nil
}

func (s *fakeStore) Commit(context.Context) error { return nil }

func (s *fakeStore) RolesOf(_ context.Context, user *authkit.User) ([]string, error) {
	if s.rolesErr != nil {
		return nil, s.rolesErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roles[user.ID], nil
}

func (s *fakeStore) AddRole(_ context.Context, user *authkit.User, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles[user.ID] {
		if existing == role {
			return nil
		}
	}
	s.roles[user.ID] = append(s.roles[user.ID], role)
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// fakeGateway records outbound messages and can fail on demand.
type fakeGateway struct {
	mu      sync.Mutex
	sent    []*authkit.Message
	failErr error
}

func (g *fakeGateway) Send(_ context.Context, msg *authkit.Message) error {
	if g.failErr != nil {
		return g.failErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, msg)
	return nil
}

func (g *fakeGateway) sentTo() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	tos := make([]string, 0, len(g.sent))
	for _, m := range g.sent {
		tos = append(tos, m.To)
	}
	return tos
}

// fakeSessions is an in-memory SessionHost.
type fakeSessions struct {
	current     *authkit.User
	remember    bool
	established int
	terminated  int
}

func (s *fakeSessions) Establish(_ context.Context, user *authkit.User, remember bool) error {
	s.current = user
	s.remember = remember
	s.established++
	return nil
}

func (s *fakeSessions) Terminate(context.Context) error {
	s.current = nil
	s.terminated++
	return nil
}

func (s *fakeSessions) Current(context.Context) (*authkit.User, error) {
	return s.current, nil
}

// eventRecorder captures emitted lifecycle events.
type eventRecorder struct {
	mu     sync.Mutex
	events []authkit.Event
}

func (r *eventRecorder) listener() authkit.Listener {
	return func(_ context.Context, event authkit.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, event)
		return nil
	}
}

func (r *eventRecorder) typesSeen() []authkit.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]authkit.EventType, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

func (r *eventRecorder) countOf(t authkit.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type testHarness struct {
	engine   *authkit.LifecycleEngine
	store    *fakeStore
	gateway  *fakeGateway
	sessions *fakeSessions
	events   *eventRecorder
}

func testConfig() authkit.Config {
	cfg := authkit.DefaultConfig()
	cfg.EmailSenderEmail = "noreply@example.com"
	cfg.SigningSecret = testSecret
	cfg.BaseURL = "https://app.example.com"
	return cfg
}

func newHarness(t *testing.T, mutate func(*authkit.Config)) *testHarness {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	store := newFakeStore()
	gateway := &fakeGateway{}
	sessions := &fakeSessions{}
	events := &eventRecorder{}

	engine, err := authkit.NewLifecycleEngine(cfg, store, gateway, sessions)
	require.NoError(t, err)
	engine.WithListener(events.listener())

	return &testHarness{
		engine:   engine,
		store:    store,
		gateway:  gateway,
		sessions: sessions,
		events:   events,
	}
}
