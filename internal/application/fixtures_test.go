package application

import (
	"context"
	"io"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/tourguide-auth/internal/domain/entity"
	"github.com/oksasatya/tourguide-auth/internal/infrastructure/memory"
	"github.com/oksasatya/tourguide-auth/pkg/helpers"
)

const resetURLBase = "http://localhost:8080/api/v1/users/resetPassword"

var resetTokenInBody = regexp.MustCompile(`resetPassword/([0-9a-f]{64})`)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

type fakeIndexer struct {
	mu      sync.Mutex
	indexed map[string]*entity.User
	deleted []string
	hits    []string
	err     error
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{indexed: map[string]*entity.User{}}
}

func (f *fakeIndexer) Index(ctx context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *u
	f.indexed[u.ID] = &cp
	return nil
}

func (f *fakeIndexer) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	delete(f.indexed, id)
	return f.err
}

func (f *fakeIndexer) Search(ctx context.Context, q string, size int) ([]string, error) {
	return f.hits, f.err
}

type fakeStorage struct {
	paths []string
	body  []byte
	err   error
}

func (f *fakeStorage) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.paths = append(f.paths, objectPath)
	f.body = b
	return "https://storage.googleapis.com/photos-test/" + objectPath, nil
}

type fixture struct {
	clock    *fakeClock
	users    *memory.UserRepository
	notifier *mockNotifier
	indexer  *fakeIndexer
	auth     *AuthService
	hook     *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	users := memory.NewUserRepository()
	logger, hook := test.NewNullLogger()
	notifier := &mockNotifier{}
	indexer := newFakeIndexer()

	tokens := helpers.NewJWTManager("test-secret", time.Hour).WithClock(clk.Now)
	resets := NewResetTokenManager(users, 10*time.Minute).WithClock(clk.Now)
	svc := NewAuthService(users, helpers.NewBcryptHasher(bcrypt.MinCost), tokens, resets, notifier, logger)
	svc.Indexer = indexer
	svc.AppName = "Natours"
	svc.now = clk.Now

	return &fixture{clock: clk, users: users, notifier: notifier, indexer: indexer, auth: svc, hook: hook}
}

func (f *fixture) signup(t *testing.T, name, email, password string) *AuthResult {
	t.Helper()
	res, err := f.auth.Signup(context.Background(), SignupInput{
		Name: name, Email: email, Password: password, PasswordConfirm: password,
	})
	require.NoError(t, err)
	return res
}

// requestReset runs ForgotPassword against a notifier that succeeds and returns the mailed token.
func (f *fixture) requestReset(t *testing.T, email string) string {
	t.Helper()
	var body string
	f.notifier.On("Send", mock.Anything, email, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { body = args.String(3) }).
		Return(nil).Once()

	require.NoError(t, f.auth.ForgotPassword(context.Background(), ForgotPasswordInput{Email: email, ResetURLBase: resetURLBase}))
	m := resetTokenInBody.FindStringSubmatch(body)
	require.Len(t, m, 2, "reset token not found in mail body: %q", body)
	return m[1]
}
