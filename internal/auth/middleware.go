package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const bearerPrefix = "Bearer "

// AuthenticationGate turns a bearer token into a request identity.
type AuthenticationGate struct {
	tokens *TokenCodec
}

// NewAuthenticationGate constructs the gate.
func NewAuthenticationGate(tokens *TokenCodec) *AuthenticationGate {
	return &AuthenticationGate{tokens: tokens}
}

// Handle lets requests without a bearer credential through anonymously;
// route guards decide whether anonymous access is acceptable. A bearer
// credential that fails verification stops the chain with a 401.
func (g *AuthenticationGate) Handle(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return c.Next()
	}

	claims, err := g.tokens.Verify(strings.TrimSpace(header[len(bearerPrefix):]))
	if err != nil {
		return err
	}

	attachIdentity(c, identityFromClaims(claims))
	return c.Next()
}
