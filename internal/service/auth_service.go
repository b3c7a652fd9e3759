package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/asset-registry/internal/auth"
	"github.com/spec-kit/asset-registry/internal/config"
	"github.com/spec-kit/asset-registry/internal/domain"
	"github.com/spec-kit/asset-registry/internal/events"
	"github.com/spec-kit/asset-registry/internal/repository"
	apperrors "github.com/spec-kit/asset-registry/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenCodec
	throttle   LoginLimiter
	bcryptCost int
	logger     *zap.Logger
	events     publisher
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Store      repository.Store
	Tokens     *auth.TokenCodec
	Throttle   LoginLimiter
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// RegisterInput describes a self registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// LoginResult carries the issued bearer token.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.Store.Repositories().Users,
		tokens:     deps.Tokens,
		throttle:   deps.Throttle,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
		events:     newPublisher(deps.Dispatcher, logger, deps.Clock),
	}
}

// Register creates an account. The role defaults to STAFF.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	role := input.Role
	if role == "" {
		role = domain.RoleStaff
	}
	user, err := createUser(ctx, s.users, s.bcryptCost, input.Name, input.Email, input.Password, role)
	if err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.EventUserRegistered, user.ID, nil, events.UserRegisteredPayload{
		Email: user.Email,
		Role:  user.Role,
	})
	return user, nil
}

// Login verifies credentials and issues a token. Unknown emails and wrong
// passwords fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)

	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, email)
		if err != nil {
			s.logger.Warn("login throttle unavailable", zap.Error(err))
		} else if !allowed {
			return nil, apperrors.NewTooManyLoginAttempts()
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		auth.BurnPasswordCheck(password, s.bcryptCost)
		s.recordFailure(ctx, email)
		return nil, apperrors.NewInvalidLoginCredentials()
	}
	if err != nil {
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.recordFailure(ctx, email)
		return nil, apperrors.NewInvalidLoginCredentials()
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, email); err != nil {
			s.logger.Warn("login throttle reset failed", zap.Error(err))
		}
	}

	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, email); err != nil {
		s.logger.Warn("login throttle unavailable", zap.Error(err))
	}
}

// createUser is shared by self registration and administrative creation.
func createUser(ctx context.Context, users repository.UserRepository, cost int, name, email, password string, role domain.Role) (*domain.User, error) {
	email = normalizeEmail(email)
	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewDuplicateEmail(email)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewDuplicateEmail(email)
		}
		return nil, err
	}
	return user, nil
}
