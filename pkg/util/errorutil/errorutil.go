package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
)

// Error codes rendered into metrics and logs. The wire body only carries messages.
const (
	CodeAuthenticationFailed   = "AUTHENTICATION_FAILED"
	CodeInvalidCredentials     = "INVALID_LOGIN_CREDENTIALS"
	CodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	CodeInsufficientPrivileges = "INSUFFICIENT_PRIVILEGES"
	CodeSelfOperation          = "SELF_OPERATION"
	CodeDuplicateAssetTag      = "DUPLICATE_ASSET_TAG"
	CodeDuplicateEmail         = "DUPLICATE_EMAIL"
	CodeItemNotFound           = "ITEM_NOT_FOUND"
	CodeUserNotFound           = "USER_NOT_FOUND"
	CodeQRGenerationFailed     = "QR_GENERATION_FAILED"
	CodeInvalidAssetTag        = "INVALID_ASSET_TAG_FORMAT"
	CodeValidationFailed       = "VALIDATION_FAILED"
	CodeIntegrityViolation     = "DATA_INTEGRITY_VIOLATION"
	CodeTooManyLoginAttempts   = "TOO_MANY_LOGIN_ATTEMPTS"
	CodeHTTP                   = "HTTP_ERROR"
	CodeInternal               = "INTERNAL_ERROR"
)

// TokenFailure says why a bearer token was rejected.
type TokenFailure string

const (
	TokenBadSignature TokenFailure = "BAD_SIGNATURE"
	TokenMalformed    TokenFailure = "MALFORMED"
	TokenExpired      TokenFailure = "EXPIRED"
)

var tokenFailureMessages = map[TokenFailure]string{
	TokenBadSignature: "Invalid token signature",
	TokenMalformed:    "Malformed token",
	TokenExpired:      "Token has expired",
}

const integrityMessage = "Data Integrity Violation: we cannot process your request."

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	// Messages overrides Message on the wire when a failure aggregates several causes.
	Messages []string
	Details  map[string]any
	Err      error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// WireMessages returns the list rendered under "errors".
func (e *DomainError) WireMessages() []string {
	if len(e.Messages) > 0 {
		return e.Messages
	}
	return []string{e.Message}
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewAuthenticationError(reason TokenFailure) error {
	msg, ok := tokenFailureMessages[reason]
	if !ok {
		reason = TokenMalformed
		msg = tokenFailureMessages[TokenMalformed]
	}
	return NewDomainError(CodeAuthenticationFailed, msg, http.StatusUnauthorized, map[string]any{"reason": reason})
}

func NewInvalidLoginCredentials() error {
	return NewDomainError(CodeInvalidCredentials,
		"A user with those credentials does not exist in the database. Please try again.",
		http.StatusUnauthorized, nil)
}

func NewAuthenticationRequired() error {
	return NewDomainError(CodeAuthenticationRequired, "Authentication required", http.StatusForbidden, nil)
}

// NewInsufficientPrivileges names the roles that would have been accepted.
func NewInsufficientPrivileges(required ...string) error {
	msg := "Insufficient privileges"
	if len(required) > 0 {
		msg = fmt.Sprintf("Insufficient privileges: %s role required", strings.Join(required, " or "))
	}
	return NewDomainError(CodeInsufficientPrivileges, msg, http.StatusForbidden, nil)
}

func NewSelfOperation() error {
	return NewDomainError(CodeSelfOperation, "You cannot modify your own role or delete your account", http.StatusForbidden, nil)
}

func NewDuplicateAssetTag(tag string) error {
	return NewDomainError(CodeDuplicateAssetTag,
		fmt.Sprintf("The asset tag: '%s' is already in use.", tag),
		http.StatusBadRequest, map[string]any{"asset_tag": tag})
}

func NewDuplicateEmail(email string) error {
	return NewDomainError(CodeDuplicateEmail,
		fmt.Sprintf("A user with email: '%s' already exists.", email),
		http.StatusBadRequest, map[string]any{"email": email})
}

func NewItemNotFound(id int64) error {
	return NewDomainError(CodeItemNotFound,
		fmt.Sprintf("Item: '%d' does not exist in the database.", id),
		http.StatusNotFound, map[string]any{"id": id})
}

func NewUserNotFound(id int64) error {
	return NewDomainError(CodeUserNotFound,
		fmt.Sprintf("User: '%d' does not exist in the database.", id),
		http.StatusNotFound, map[string]any{"id": id})
}

func NewQRGenerationFailed(err error) error {
	return &DomainError{
		Code:       CodeQRGenerationFailed,
		Message:    "Failed to generate QR code.",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewInvalidAssetTag(tag string) error {
	return NewDomainError(CodeInvalidAssetTag, "Invalid assetTag format", http.StatusInternalServerError,
		map[string]any{"asset_tag": tag})
}

// NewValidationError aggregates one message per failing field.
func NewValidationError(messages []string) error {
	de := NewDomainError(CodeValidationFailed, "validation failed", http.StatusBadRequest, nil)
	de.Messages = messages
	return de
}

func NewIntegrityViolation(err error) error {
	return &DomainError{
		Code:       CodeIntegrityViolation,
		Message:    integrityMessage,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewTooManyLoginAttempts() error {
	return NewDomainError(CodeTooManyLoginAttempts,
		"Too many failed login attempts. Please try again later.",
		http.StatusTooManyRequests, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError is the single translation point from any error to its wire form.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return NewDomainError(CodeHTTP, fiberErr.Message, fiberErr.Code, nil)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return NewIntegrityViolation(err).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// CodeOf returns the domain code err translates to.
func CodeOf(err error) string {
	if de := ToDomainError(err); de != nil {
		return de.Code
	}
	return ""
}

// TokenFailureOf extracts the rejection reason from an authentication error.
func TokenFailureOf(err error) (TokenFailure, bool) {
	var de *DomainError
	if !errors.As(err, &de) || de.Code != CodeAuthenticationFailed {
		return "", false
	}
	reason, ok := de.Details["reason"].(TokenFailure)
	return reason, ok
}

// MapError converts err to a *DomainError while keeping nil as nil.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
