package user

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"kirana-be/internal/otp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, name, email, hashedPassword string) (User, error) {
	args := m.Called(ctx, name, email, hashedPassword)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id uint) (User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) UpdateProfile(ctx context.Context, id uint, p UpdateProfileParams) (User, error) {
	args := m.Called(ctx, id, p)
	return args.Get(0).(User), args.Error(1)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *recordingMailer) Send(_ context.Context, to, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: html})
	return nil
}

type syncRunner struct{}

func (syncRunner) Go(_ string, fn func(ctx context.Context) error) {
	_ = fn(context.Background())
}

type fixture struct {
	repo   *MockRepository
	codes  *otp.Store
	mailer *recordingMailer
	svc    Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:   new(MockRepository),
		codes:  otp.NewStore(),
		mailer: &recordingMailer{},
	}
	f.svc = NewService(
		f.repo, f.codes, f.mailer, syncRunner{},
		"Gupta Kirana Store", "admin@store.test", "admin-pass",
	)
	return f
}

var otpPattern = regexp.MustCompile(`\d{6}`)

// lastCode pulls the six-digit code out of the most recent mail body.
func (f *fixture) lastCode(t *testing.T) string {
	t.Helper()
	f.mailer.mu.Lock()
	defer f.mailer.mu.Unlock()
	require.NotEmpty(t, f.mailer.sent)
	code := otpPattern.FindString(f.mailer.sent[len(f.mailer.sent)-1].Body)
	require.NotEmpty(t, code)
	return code
}

func TestSendOTP(t *testing.T) {
	f := newFixture()
	f.repo.On("EmailExists", mock.Anything, "ravi@example.com").Return(false, nil)

	err := f.svc.SendOTP(context.Background(), "ravi@example.com")
	require.NoError(t, err)

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "ravi@example.com", f.mailer.sent[0].To)
	assert.Contains(t, f.mailer.sent[0].Subject, "OTP")
	assert.Regexp(t, otpPattern, f.mailer.sent[0].Body)
}

func TestSendOTP_DuplicateEmail(t *testing.T) {
	f := newFixture()
	f.repo.On("EmailExists", mock.Anything, "taken@example.com").Return(true, nil)

	err := f.svc.SendOTP(context.Background(), "taken@example.com")
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.Empty(t, f.mailer.sent)
}

func TestVerifyOTP(t *testing.T) {
	f := newFixture()
	f.repo.On("EmailExists", mock.Anything, mock.Anything).Return(false, nil)
	require.NoError(t, f.svc.SendOTP(context.Background(), "ravi@example.com"))

	t.Run("WrongCode", func(t *testing.T) {
		err := f.svc.VerifyOTP(context.Background(), "ravi@example.com", "000000")
		assert.ErrorIs(t, err, otp.ErrMismatch)
	})

	t.Run("NoPendingCode", func(t *testing.T) {
		err := f.svc.VerifyOTP(context.Background(), "nobody@example.com", "123456")
		assert.ErrorIs(t, err, otp.ErrNotFound)
	})

	t.Run("CorrectCode", func(t *testing.T) {
		err := f.svc.VerifyOTP(context.Background(), "ravi@example.com", " "+f.lastCode(t)+" ")
		assert.NoError(t, err, "surrounding whitespace is tolerated")
	})
}

func TestRegister(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	t.Run("RequiresVerifiedEmail", func(t *testing.T) {
		f := newFixture()
		_, _, err := f.svc.Register(context.Background(), "Ravi", "ravi@example.com", "s3cret")
		assert.ErrorIs(t, err, ErrEmailNotVerified)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("FullFlow", func(t *testing.T) {
		f := newFixture()
		f.repo.On("EmailExists", mock.Anything, "ravi@example.com").Return(false, nil)
		f.repo.On("Create", mock.Anything, "Ravi", "ravi@example.com", mock.AnythingOfType("string")).
			Return(User{ID: 7, Name: "Ravi", Email: "ravi@example.com", Role: RoleUser}, nil)

		require.NoError(t, f.svc.SendOTP(context.Background(), "ravi@example.com"))
		require.NoError(t, f.svc.VerifyOTP(context.Background(), "ravi@example.com", f.lastCode(t)))

		token, u, err := f.svc.Register(context.Background(), "Ravi", "ravi@example.com", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, uint(7), u.ID)

		claims, err := ParseJWT(token)
		require.NoError(t, err)
		assert.Equal(t, uint(7), claims.UserID)
		assert.Equal(t, string(RoleUser), claims.Role)

		// The stored password is the bcrypt hash, never the plaintext.
		hashed := f.repo.Calls[len(f.repo.Calls)-1].Arguments.String(3)
		assert.NotEqual(t, "s3cret", hashed)
		assert.True(t, CheckPasswordHash("s3cret", hashed))

		// The verification mark is single-use.
		_, _, err = f.svc.Register(context.Background(), "Ravi", "ravi@example.com", "s3cret")
		assert.ErrorIs(t, err, ErrEmailNotVerified)
	})
}

func TestLogin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	stored := User{ID: 7, Name: "Ravi", Email: "ravi@example.com", Password: hash, Role: RoleUser}

	t.Run("Success", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByEmail", mock.Anything, "ravi@example.com").Return(stored, nil)

		token, u, err := f.svc.Login(context.Background(), "ravi@example.com", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, uint(7), u.ID)
		assert.NotEmpty(t, token)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByEmail", mock.Anything, "ravi@example.com").Return(stored, nil)

		_, _, err := f.svc.Login(context.Background(), "ravi@example.com", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		f := newFixture()
		f.repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(User{}, ErrUserNotFound)

		_, _, err := f.svc.Login(context.Background(), "ghost@example.com", "s3cret")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("EnvAdmin", func(t *testing.T) {
		f := newFixture()

		token, u, err := f.svc.Login(context.Background(), "admin@store.test", "admin-pass")
		require.NoError(t, err)
		assert.Equal(t, RoleAdmin, u.Role)

		claims, err := ParseJWT(token)
		require.NoError(t, err)
		assert.Equal(t, uint(0), claims.UserID, "the operator has no profile row")
		assert.Equal(t, string(RoleAdmin), claims.Role)

		// Credentials must match exactly; no stored-user fallback leak.
		f.repo.On("FindByEmail", mock.Anything, "admin@store.test").Return(User{}, ErrUserNotFound)
		_, _, err = f.svc.Login(context.Background(), "admin@store.test", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
