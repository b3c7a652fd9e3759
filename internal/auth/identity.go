package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/asset-registry/internal/domain"
)

// identityKey is unexported so that only the authentication gate can
// attach an identity to a request.
type identityKey struct{}

// Identity is the caller established from a verified bearer token.
type Identity struct {
	ID    int64
	Email string
	Role  domain.Role
}

// Authority returns the synthetic label used by route policies.
func (i *Identity) Authority() string {
	return i.Role.Authority()
}

// HasAuthority reports whether the identity carries the given label.
func (i *Identity) HasAuthority(authority string) bool {
	return i != nil && i.Authority() == authority
}

func identityFromClaims(claims *Claims) *Identity {
	return &Identity{ID: claims.ID, Email: claims.Email, Role: claims.Role}
}

func attachIdentity(c *fiber.Ctx, identity *Identity) {
	c.Locals(identityKey{}, identity)
}

// IdentityFromContext retrieves the authenticated caller, if any.
func IdentityFromContext(c *fiber.Ctx) (*Identity, bool) {
	identity, ok := c.Locals(identityKey{}).(*Identity)
	return identity, ok && identity != nil
}
