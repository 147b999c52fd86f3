package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/rosterd/rosterd/internal/models"
	"github.com/rosterd/rosterd/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownEmail       = errors.New("unknown email")
	ErrWrongPassword      = errors.New("wrong password")
	ErrAlreadyExists      = errors.New("user already exists")
	ErrPasswordTooLong    = errors.New("password longer than 72 bytes")
)

var emailFolder = cases.Fold()

// NormalizeEmail trims surrounding space and case-folds the address so that
// lookups and uniqueness are case-insensitive.
func NormalizeEmail(email string) string {
	return emailFolder.String(strings.TrimSpace(email))
}

// Service implements login and registration over a credential store.
type Service struct {
	users  store.Users
	hasher *Hasher
	codec  *TokenCodec
	opts   options
}

func NewService(users store.Users, hasher *Hasher, codec *TokenCodec, opts ...Option) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		codec:  codec,
		opts:   buildOptions(opts),
	}
}

// Login checks the credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.VerifyDummy(password)
			s.opts.observer.LoginAttempt(OutcomeUnknownEmail)
			return "", fmt.Errorf("%w: %w", ErrInvalidCredentials, ErrUnknownEmail)
		}
		s.opts.observer.LoginAttempt(OutcomeError)
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.opts.observer.LoginAttempt(OutcomeWrongPassword)
		return "", fmt.Errorf("%w: %w", ErrInvalidCredentials, ErrWrongPassword)
	}

	token, err := s.codec.Issue(user.ID, s.opts.clock())
	if err != nil {
		s.opts.observer.LoginAttempt(OutcomeError)
		return "", fmt.Errorf("issue token: %w", err)
	}

	s.opts.observer.LoginAttempt(OutcomeSuccess)
	s.opts.log.Info(ctx, "user logged in", map[string]interface{}{"user_id": user.ID})
	return token, nil
}

// Register creates a user. The returned user never carries the hash.
func (s *Service) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if len(password) > MaxPasswordBytes {
		s.opts.observer.Registration(OutcomeInvalid)
		return nil, ErrPasswordTooLong
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		s.opts.observer.Registration(OutcomeAlreadyExists)
		return nil, ErrAlreadyExists
	case !errors.Is(err, store.ErrNotFound):
		s.opts.observer.Registration(OutcomeError)
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.opts.observer.Registration(OutcomeError)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, email, hash)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			s.opts.observer.Registration(OutcomeAlreadyExists)
			return nil, ErrAlreadyExists
		}
		s.opts.observer.Registration(OutcomeError)
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.opts.observer.Registration(OutcomeSuccess)
	s.opts.log.Info(ctx, "user registered", map[string]interface{}{"user_id": user.ID})
	return &models.User{ID: user.ID, Email: user.Email, CreatedAt: user.CreatedAt}, nil
}
