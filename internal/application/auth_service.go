package application

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourguide-auth/internal/domain/entity"
	repo "github.com/oksasatya/tourguide-auth/internal/domain/repository"
	"github.com/oksasatya/tourguide-auth/pkg/helpers"
	"github.com/oksasatya/tourguide-auth/pkg/mailer"
	"github.com/oksasatya/tourguide-auth/pkg/mailer/templates"
	"github.com/oksasatya/tourguide-auth/pkg/validation"
)

var validate = validation.New()

// AuthMetrics is published on /debug/vars under "auth".
var AuthMetrics = expvar.NewMap("auth")

type SignupInput struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,pwd"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordInput struct {
	Email        string `json:"email"`
	ResetURLBase string `json:"-"`
	RequestIP    string `json:"-"`
}

type ResetPasswordInput struct {
	Password        string `json:"password" validate:"required,pwd"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type ChangePasswordInput struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password" validate:"required,pwd"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// AuthResult is a freshly issued bearer token with the user it belongs to.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *entity.User
}

// AuthService implements signup, login, token verification and the password lifecycle.
type AuthService struct {
	Users    repo.UserRepository
	Hasher   helpers.PasswordHasher
	Tokens   *helpers.JWTManager
	Resets   *ResetTokenManager
	Notifier mailer.Notifier
	Indexer  UserIndexer
	Logger   *logrus.Logger
	AppName  string

	now func() time.Time
}

func NewAuthService(users repo.UserRepository, hasher helpers.PasswordHasher, tokens *helpers.JWTManager, resets *ResetTokenManager, notifier mailer.Notifier, logger *logrus.Logger) *AuthService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuthService{
		Users:    users,
		Hasher:   hasher,
		Tokens:   tokens,
		Resets:   resets,
		Notifier: notifier,
		Logger:   logger,
		now:      time.Now,
	}
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Email = entity.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return nil, fromValidator(err)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}
	u := &entity.User{
		Name:         in.Name,
		Email:        in.Email,
		Role:         entity.RoleUser,
		PasswordHash: hash,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, classifyWrite("create user", err)
	}

	s.index(ctx, u)
	s.Logger.WithField("user_id", u.ID).Info("user signed up")
	return s.issue(u)
}

// Login verifies credentials. An unknown email and a wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if in.Email == "" || in.Password == "" {
		return nil, &ValidationError{Fields: map[string]string{"payload": "please provide email and password"}}
	}

	u, err := s.Users.FindByEmail(ctx, entity.NormalizeEmail(in.Email))
	if errors.Is(err, repo.ErrNotFound) {
		AuthMetrics.Add("login_failed", 1)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, persistenceFailure("find by email", err)
	}
	if !s.Hasher.Verify(in.Password, u.PasswordHash) {
		AuthMetrics.Add("login_failed", 1)
		return nil, ErrInvalidCredentials
	}

	AuthMetrics.Add("login_succeeded", 1)
	return s.issue(u)
}

// ForgotPassword stores a reset challenge and mails the plaintext token. If delivery fails the
// challenge is cleared again so no live challenge exists for a user who was never notified.
func (s *AuthService) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	if strings.TrimSpace(in.Email) == "" {
		return invalidField("email", "is required")
	}

	u, err := s.Users.FindByEmail(ctx, entity.NormalizeEmail(in.Email))
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return persistenceFailure("find by email", err)
	}

	challenge, err := s.Resets.CreateChallenge()
	if err != nil {
		return err
	}
	u.SetResetChallenge(challenge.Hash, challenge.ExpiresAt)
	if err := s.Users.Save(ctx, u, repo.SaveOptions{SkipValidation: true}); err != nil {
		return persistenceFailure("store reset challenge", err)
	}
	AuthMetrics.Add("forgot_requested", 1)

	sendErr := s.sendResetEmail(ctx, u, challenge, in)
	if sendErr == nil {
		return nil
	}

	AuthMetrics.Add("forgot_delivery_failed", 1)
	s.Logger.WithError(sendErr).WithField("user_id", u.ID).Error("reset email delivery failed")

	u.ClearResetChallenge()
	if err := s.Users.Save(ctx, u, repo.SaveOptions{SkipValidation: true}); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("clearing reset challenge failed")
		return errors.Join(
			oops.Code("RESET_DELIVERY_FAILED").With("user_id", u.ID).Wrap(fmt.Errorf("%w: %w", ErrDeliveryFailure, sendErr)),
			persistenceFailure("clear reset challenge", err),
		)
	}
	return oops.Code("RESET_DELIVERY_FAILED").With("user_id", u.ID).Wrap(fmt.Errorf("%w: %w", ErrDeliveryFailure, sendErr))
}

func (s *AuthService) sendResetEmail(ctx context.Context, u *entity.User, ch ResetChallenge, in ForgotPasswordInput) error {
	data := templates.NewForgotPasswordData(s.AppName, u.Name, u.Email,
		templates.WithResetURL(strings.TrimRight(in.ResetURLBase, "/")+"/"+ch.Token),
		templates.WithExpiresAt(ch.ExpiresAt),
		templates.WithValidFor(s.Resets.TTL()),
		templates.WithIP(in.RequestIP),
	)
	subject, text, _, err := templates.Render(templates.ForgotPassword, data)
	if err != nil {
		return err
	}
	return s.Notifier.Send(ctx, u.Email, subject, text)
}

// ResetPassword consumes a reset challenge. The new hash and the cleared challenge are written in one
// Save that only lands while the challenge is still stored and live, so concurrent uses of one token
// produce a single success.
func (s *AuthService) ResetPassword(ctx context.Context, token string, in ResetPasswordInput) (*AuthResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fromValidator(err)
	}

	u, err := s.Resets.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidOrExpiredResetToken) {
			AuthMetrics.Add("reset_failed", 1)
		}
		return nil, err
	}

	consumed := repo.SaveOptions{ExpectResetHash: u.PasswordResetTokenHash, ExpectResetLiveAt: s.Resets.now()}
	if err := s.setPassword(u, in.Password); err != nil {
		return nil, err
	}
	u.ClearResetChallenge()
	if err := s.Users.Save(ctx, u, consumed); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			AuthMetrics.Add("reset_failed", 1)
			return nil, ErrInvalidOrExpiredResetToken
		}
		return nil, classifyWrite("reset password", err)
	}

	AuthMetrics.Add("reset_succeeded", 1)
	s.Logger.WithField("user_id", u.ID).Info("password reset")
	return s.issue(u)
}

// ChangePassword re-verifies the current password and returns a token minted after the change.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) (*AuthResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fromValidator(err)
	}

	u, err := s.Users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, persistenceFailure("find by id", err)
	}
	if !s.Hasher.Verify(in.PasswordCurrent, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if err := s.setPassword(u, in.Password); err != nil {
		return nil, err
	}
	if err := s.Users.Save(ctx, u, repo.SaveOptions{}); err != nil {
		return nil, classifyWrite("change password", err)
	}

	s.Logger.WithField("user_id", u.ID).Info("password changed")
	return s.issue(u)
}

// Authenticate verifies a bearer token and resolves its subject. Every failure is ErrUnauthenticated
// except directory errors, which are ErrPersistence.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	claims, err := s.Tokens.ParseToken(token)
	if err != nil {
		AuthMetrics.Add("token_rejected", 1)
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	u, err := s.Users.FindByID(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		AuthMetrics.Add("token_rejected", 1)
		return nil, fmt.Errorf("%w: the user belonging to this token no longer exists", ErrUnauthenticated)
	}
	if err != nil {
		return nil, persistenceFailure("find by id", err)
	}

	if u.PasswordChangedAfter(claims.IssuedAtTime()) {
		AuthMetrics.Add("token_rejected", 1)
		return nil, fmt.Errorf("%w: password changed after the token was issued", ErrUnauthenticated)
	}
	return u, nil
}

// setPassword is the only place a plaintext password becomes a stored hash.
func (s *AuthService) setPassword(u *entity.User, plain string) error {
	hash, err := s.Hasher.Hash(plain)
	if err != nil {
		return oops.Code("PASSWORD_HASH_FAILED").With("user_id", u.ID).Wrap(err)
	}
	changed := s.now()
	u.PasswordHash = hash
	u.PasswordChangedAt = &changed
	return nil
}

func (s *AuthService) issue(u *entity.User) (*AuthResult, error) {
	token, exp, err := s.Tokens.GenerateToken(u.ID)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate token failed")
		return nil, oops.Code("TOKEN_ISSUE_FAILED").With("user_id", u.ID).Wrap(err)
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *AuthService) index(ctx context.Context, u *entity.User) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.Index(ctx, u); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
	}
}

// classifyWrite maps directory write errors onto the service taxonomy.
func classifyWrite(op string, err error) error {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, repo.ErrDuplicateEmail):
		return ErrEmailTaken
	case errors.Is(err, repo.ErrNotFound):
		return ErrUserNotFound
	case errors.As(err, &verrs):
		return fromValidator(err)
	default:
		return persistenceFailure(op, err)
	}
}
