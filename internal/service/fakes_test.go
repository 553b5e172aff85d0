package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/config"
	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/events"
	"github.com/spec-kit/user-service/internal/identity"
	"github.com/spec-kit/user-service/internal/readmodel"
)

// callLog records side effects across fakes so tests can assert ordering.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.calls...)
}

func (l *callLog) index(call string) int {
	for i, c := range l.all() {
		if c == call {
			return i
		}
	}
	return -1
}

type fakeUsers struct {
	log       *callLog
	byID      map[string]domain.User
	createErr error
	updateErr error
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.log.add("db.create")
	if f.createErr != nil {
		return f.createErr
	}
	u.CreatedAt = time.Now()
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) Update(_ context.Context, u *domain.User) error {
	f.log.add("db.update")
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[u.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		// what Postgres answers for a non-UUID literal in a uuid column
		return nil, &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"}
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) GetByRecoveryToken(_ context.Context, token string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.RecoveryToken != nil && *u.RecoveryToken == token {
			out := u
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeRoles struct{}

func (fakeRoles) GetByID(_ context.Context, id int) (*domain.Role, error) {
	for _, r := range domain.Roles() {
		if r.ID == id {
			role := r
			return &role, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (fakeRoles) List(context.Context) ([]domain.Role, error) {
	return domain.Roles(), nil
}

type fakeActivities struct {
	log     *callLog
	entries []domain.Activity
}

func (f *fakeActivities) Create(_ context.Context, a domain.Activity) error {
	f.log.add("activity:" + string(a.Action))
	f.entries = append(f.entries, a)
	return nil
}

type fakeProvider struct {
	log       *callLog
	nextID    string
	createErr error
	updateErr error
	roles     map[string]string
	passwords map[string]string
}

func (f *fakeProvider) CreateUser(_ context.Context, acc identity.Account) (string, error) {
	f.log.add("provider.create")
	if f.createErr != nil {
		return "", f.createErr
	}
	f.passwords[f.nextID] = acc.Password
	return f.nextID, nil
}

func (f *fakeProvider) UpdateUser(_ context.Context, _ string, _ identity.Account) error {
	f.log.add("provider.update")
	return f.updateErr
}

func (f *fakeProvider) SetPassword(_ context.Context, id, password string) error {
	f.log.add("provider.password")
	if f.updateErr != nil {
		return f.updateErr
	}
	f.passwords[id] = password
	return nil
}

func (f *fakeProvider) AssignRole(_ context.Context, id, role string) error {
	f.log.add("provider.role:" + role)
	if f.updateErr != nil {
		return f.updateErr
	}
	f.roles[id] = role
	return nil
}

// recordingPublisher logs publishes and forwards them to an optional bus.
type recordingPublisher struct {
	log  *callLog
	next events.Publisher
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev events.Event) error {
	p.log.add("publish:" + ev.EventType())
	if p.err != nil {
		return p.err
	}
	if p.next != nil {
		return p.next.Publish(ctx, ev)
	}
	return nil
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendConfirmation(ctx context.Context, email, name, code string) error {
	return m.Called(ctx, email, name, code).Error(0)
}

func (m *mockNotifier) SendPasswordChanged(ctx context.Context, email, name string) error {
	return m.Called(ctx, email, name).Error(0)
}

func (m *mockNotifier) SendRecoveryToken(ctx context.Context, email, name, token string) error {
	return m.Called(ctx, email, name, token).Error(0)
}

type fixture struct {
	log        *callLog
	users      *fakeUsers
	activities *fakeActivities
	provider   *fakeProvider
	publisher  *recordingPublisher
	notifier   *mockNotifier
	readStore  *readmodel.MemoryStore
	hasher     auth.Hasher
	svc        *UserService
	now        time.Time
}

// newFixture wires the service to fakes and, through an in-process bus, to
// the read-store projector.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := &callLog{}
	logger := zap.NewNop()

	bus := events.NewBus(logger, nil)
	readStore := readmodel.NewMemoryStore()
	handlers := readmodel.NewProjector(readStore, nil, logger).Handlers()
	for _, route := range events.Routes() {
		bus.Subscribe(route, handlers[route.Type])
	}

	f := &fixture{
		log:        log,
		users:      &fakeUsers{log: log, byID: map[string]domain.User{}},
		activities: &fakeActivities{log: log},
		provider:   &fakeProvider{log: log, nextID: "kc-1", roles: map[string]string{}, passwords: map[string]string{}},
		publisher:  &recordingPublisher{log: log, next: bus},
		notifier:   &mockNotifier{},
		readStore:  readStore,
		hasher:     auth.NewBcryptHasher(4),
		now:        time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewUserService(config.AuthConfig{ConfirmationTTLMinutes: 60, RecoveryTokenTTLMinutes: 60}, UserDependencies{
		UserRepo:     f.users,
		RoleRepo:     fakeRoles{},
		ActivityRepo: f.activities,
		Provider:     f.provider,
		Publisher:    f.publisher,
		Notifier:     f.notifier,
		Hasher:       f.hasher,
	}, logger)
	f.svc.now = func() time.Time { return f.now }
	f.svc.activities.now = func() time.Time { return f.now }
	return f
}

// seedUser stores a verified-less, provider-registered user directly.
func (f *fixture) seedUser(t *testing.T, email, password string) domain.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	if err != nil {
		t.Fatal(err)
	}
	u := domain.NewUser(domain.NewUserInput{
		Name:         "Ana",
		LastName:     "Diaz",
		Email:        email,
		PasswordHash: hash,
		RoleID:       domain.RoleBidder,
	}, f.now, time.Hour)
	u.ExternalID = fmt.Sprintf("kc-%s", u.ID[:8])
	f.users.byID[u.ID] = *u
	_ = f.readStore.InsertUser(context.Background(), readmodel.UserDocument{ID: u.ID, Email: email, RoleID: u.RoleID})
	return *u
}
