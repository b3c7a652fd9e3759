package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/asset-registry/internal/domain"
	apperrors "github.com/spec-kit/asset-registry/pkg/util/errorutil"
)

// TokenTTL is the lifetime of every issued bearer token.
const TokenTTL = time.Hour

// Claims describes the JWT payload.
type Claims struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies HS256 bearer tokens. It holds no
// per-request state and is safe for concurrent use.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewTokenCodec builds a codec around the process-wide signing secret.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), now: time.Now}
}

// WithClock returns a copy of the codec reading time from now.
func (tc *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *tc
	cp.now = now
	return &cp
}

// Issue signs a token for user. Expiry is always relative to issuance.
func (tc *TokenCodec) Issue(user *domain.User) (string, time.Time, error) {
	issuedAt := jwt.NewNumericDate(tc.now())
	expiresAt := jwt.NewNumericDate(issuedAt.Time.Add(TokenTTL))
	claims := &Claims{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tc.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt.Time, nil
}

// Verify checks the signature first and only then the expiry and claim values.
func (tc *TokenCodec) Verify(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tc.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tc.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, apperrors.NewAuthenticationError(classify(err))
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || !claims.Role.Valid() {
		return nil, apperrors.NewAuthenticationError(apperrors.TokenMalformed)
	}
	return claims, nil
}

func classify(err error) apperrors.TokenFailure {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return apperrors.TokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return apperrors.TokenBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.TokenExpired
	default:
		return apperrors.TokenMalformed
	}
}
