package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopease/internal/domain"
	"shopease/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor used when password hashing is enabled
const BcryptCost = 10

// SignupInput carries the raw signup form
type SignupInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// AuthService defines the signup, login and session operations
type AuthService interface {
	Signup(ctx context.Context, clientID string, in SignupInput) (*domain.User, error)
	Login(ctx context.Context, clientID, email, password string) (*domain.Session, error)
	Logout(ctx context.Context, clientID string) error
	CurrentSession(ctx context.Context, clientID string) (*domain.Session, error)
	RequireSession(ctx context.Context, clientID string) (*domain.Session, error)
}

type authService struct {
	users         repository.UserRepository
	sessions      repository.SessionRepository
	hashPasswords bool
	logger        *zap.Logger
}

// NewAuthService creates a new instance of AuthService.
// With hashPasswords false, passwords are stored and compared as plaintext.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	hashPasswords bool,
	logger *zap.Logger,
) AuthService {
	return &authService{
		users:         users,
		sessions:      sessions,
		hashPasswords: hashPasswords,
		logger:        logger,
	}
}

// Signup appends a new user after checking required fields, the password
// confirmation and email uniqueness, in that order
func (s *authService) Signup(ctx context.Context, clientID string, in SignupInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)

	if name == "" || email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	password := in.Password
	if s.hashPasswords {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		password = string(hashed)
	}

	user := domain.User{Name: name, Email: email, Password: password}
	if err := s.users.Create(ctx, clientID, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User signed up", zap.String("client_id", clientID), zap.String("email", email))
	return &user, nil
}

// Login establishes a session for the user whose email and password match
func (s *authService) Login(ctx context.Context, clientID, email, password string) (*domain.Session, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.FindByEmail(ctx, clientID, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.passwordMatches(user.Password, password) {
		return nil, ErrInvalidCredentials
	}

	session := domain.Session{Email: user.Email, Name: user.Name}
	if err := s.sessions.Set(ctx, clientID, session); err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", zap.String("client_id", clientID), zap.String("email", user.Email))
	return &session, nil
}

// Logout clears the session
func (s *authService) Logout(ctx context.Context, clientID string) error {
	if err := s.sessions.Clear(ctx, clientID); err != nil {
		return err
	}
	s.logger.Info("User logged out", zap.String("client_id", clientID))
	return nil
}

// CurrentSession returns the active session or nil when logged out
func (s *authService) CurrentSession(ctx context.Context, clientID string) (*domain.Session, error) {
	session, err := s.sessions.Get(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

// RequireSession returns the active session or ErrNotLoggedIn
func (s *authService) RequireSession(ctx context.Context, clientID string) (*domain.Session, error) {
	session, err := s.CurrentSession(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotLoggedIn
	}
	return session, nil
}

func (s *authService) passwordMatches(stored, password string) bool {
	if s.hashPasswords {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return stored == password
}
