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

// UserService administers accounts.
type UserService struct {
	store      repository.Store
	tx         unitOfWork
	bcryptCost int
	events     publisher
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// CreateUserInput describes an account created by an administrator.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// UpdateCredentialsInput replaces the login email and password.
type UpdateCredentialsInput struct {
	Email    string
	Password string
}

// NewUserService constructs the service.
func NewUserService(cfg config.AuthConfig, deps UserDependencies) *UserService {
	return &UserService{
		store:      deps.Store,
		tx:         newUnitOfWork(deps.Store, defaultTxAttempts, deps.Logger),
		bcryptCost: cfg.BcryptCost,
		events:     newPublisher(deps.Dispatcher, deps.Logger, deps.Clock),
	}
}

// List returns accounts ordered by id.
func (s *UserService) List(ctx context.Context, opts repository.ListOptions) ([]domain.User, error) {
	return s.store.Repositories().Users.List(ctx, opts)
}

// Get fetches one account.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.store.Repositories().Users.GetByID(ctx, id)
	if err != nil {
		return nil, userErr(err, id)
	}
	return user, nil
}

// Create adds an account with an explicit role.
func (s *UserService) Create(ctx context.Context, actor *auth.Identity, input CreateUserInput) (*domain.User, error) {
	user, err := createUser(ctx, s.store.Repositories().Users, s.bcryptCost, input.Name, input.Email, input.Password, input.Role)
	if err != nil {
		return nil, err
	}
	s.events.publish(ctx, events.EventUserRegistered, user.ID, actor, events.UserRegisteredPayload{
		Email: user.Email,
		Role:  user.Role,
	})
	return user, nil
}

// UpdateCredentials replaces email and password of an account.
func (s *UserService) UpdateCredentials(ctx context.Context, actor *auth.Identity, id int64, input UpdateCredentialsInput) (*domain.User, error) {
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(input.Email)

	var (
		updated  *domain.User
		oldEmail string
	)
	err = s.tx.run(ctx, func(repos repository.Repositories) error {
		user, err := repos.Users.GetByID(ctx, id)
		if err != nil {
			return userErr(err, id)
		}
		if other, err := repos.Users.GetByEmail(ctx, email); err == nil && other.ID != id {
			return apperrors.NewDuplicateEmail(email)
		} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		oldEmail = user.Email
		user.Email = email
		user.PasswordHash = hash
		if err := repos.Users.Update(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				return apperrors.NewDuplicateEmail(email)
			}
			return userErr(err, id)
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.publish(ctx, events.EventUserCredentialsChanged, id, actor, events.UserCredentialsChangedPayload{
		OldEmail:        oldEmail,
		NewEmail:        updated.Email,
		PasswordChanged: true,
	})
	return updated, nil
}

// UpdateRole changes the privilege level of another account.
func (s *UserService) UpdateRole(ctx context.Context, actor *auth.Identity, id int64, role domain.Role) (*domain.User, error) {
	if err := auth.RequireNotSelf(actor, id); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError([]string{"role must be one of STAFF, ADMIN, SUPERADMIN"})
	}

	var (
		updated *domain.User
		oldRole domain.Role
	)
	err := s.tx.run(ctx, func(repos repository.Repositories) error {
		user, err := repos.Users.GetByID(ctx, id)
		if err != nil {
			return userErr(err, id)
		}
		oldRole = user.Role
		user.Role = role
		if err := repos.Users.Update(ctx, user); err != nil {
			return userErr(err, id)
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.publish(ctx, events.EventUserRoleChanged, id, actor, events.UserRoleChangedPayload{
		OldRole: oldRole,
		NewRole: role,
	})
	return updated, nil
}

// Delete removes another account.
func (s *UserService) Delete(ctx context.Context, actor *auth.Identity, id int64) error {
	if err := auth.RequireNotSelf(actor, id); err != nil {
		return err
	}

	var email string
	err := s.tx.run(ctx, func(repos repository.Repositories) error {
		user, err := repos.Users.GetByID(ctx, id)
		if err != nil {
			return userErr(err, id)
		}
		email = user.Email
		return userErr(repos.Users.Delete(ctx, id), id)
	})
	if err != nil {
		return err
	}

	s.events.publish(ctx, events.EventUserDeleted, id, actor, events.UserDeletedPayload{Email: email})
	return nil
}

func userErr(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewUserNotFound(id)
	}
	return err
}
