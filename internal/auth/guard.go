package auth

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/asset-registry/internal/domain"
	apperrors "github.com/spec-kit/asset-registry/pkg/util/errorutil"
)

// Policy is the authorization rule attached to a route.
type Policy struct {
	// Roles accepted; empty means any authenticated caller.
	Roles []domain.Role
	// NotSelf rejects callers acting on their own account, identified by TargetParam.
	NotSelf     bool
	TargetParam string
}

// AnyRole builds a policy accepting the given roles.
func AnyRole(roles ...domain.Role) Policy {
	return Policy{Roles: roles}
}

// ExceptSelf adds the self-operation guard on the ":id" route parameter.
func (p Policy) ExceptSelf() Policy {
	p.NotSelf = true
	if p.TargetParam == "" {
		p.TargetParam = "id"
	}
	return p
}

// RequireAnyRole fails with AuthenticationRequired when identity is absent,
// and with InsufficientPrivileges when its role is not one of roles.
func RequireAnyRole(identity *Identity, roles ...domain.Role) error {
	if identity == nil {
		return apperrors.NewAuthenticationRequired()
	}
	if len(roles) == 0 {
		return nil
	}
	for _, role := range roles {
		if identity.HasAuthority(role.Authority()) {
			return nil
		}
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	return apperrors.NewInsufficientPrivileges(names...)
}

// RequireNotSelf fails when the caller targets their own account.
func RequireNotSelf(identity *Identity, targetID int64) error {
	if identity == nil {
		return apperrors.NewAuthenticationRequired()
	}
	if identity.ID == targetID {
		return apperrors.NewSelfOperation()
	}
	return nil
}

// TargetFunc resolves the account a request acts on.
type TargetFunc func() (int64, error)

// Authorize evaluates a policy for one request. The role check always
// runs first, so an anonymous caller never reaches the target lookup.
func Authorize(identity *Identity, policy Policy, target TargetFunc) error {
	if err := RequireAnyRole(identity, policy.Roles...); err != nil {
		return err
	}
	if !policy.NotSelf {
		return nil
	}
	targetID, err := target()
	if err != nil {
		return apperrors.NewValidationError([]string{policy.TargetParam + " must be a numeric identifier"})
	}
	return RequireNotSelf(identity, targetID)
}

// Guard enforces policy ahead of the route handler.
func Guard(policy Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, _ := IdentityFromContext(c)
		target := func() (int64, error) {
			return strconv.ParseInt(c.Params(policy.TargetParam), 10, 64)
		}
		if err := Authorize(identity, policy, target); err != nil {
			return err
		}
		return c.Next()
	}
}
