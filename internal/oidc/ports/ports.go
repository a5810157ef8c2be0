// Package ports defines the collaborators the OIDC core depends on.
// Stores return sentinel errors (wrapped) from pkg/platform/sentinel:
// ErrNotFound for unknown identifiers and ErrConflict for duplicate identifiers
// on PersistNew. Revoking an authorization code or refresh token that is
// already revoked returns ErrAlreadyUsed, so concurrent redemptions of the same
// artifact cannot both succeed. Access token revocation is idempotent.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"oidcop/internal/oidc/models"
	"oidcop/pkg/platform/audit"
)

// ClientRepository resolves registered relying parties.
type ClientRepository interface {
	FindByID(ctx context.Context, id string) (*models.Client, error)
}

// ScopeRepository resolves scope identifiers.
type ScopeRepository interface {
	FindByIdentifier(ctx context.Context, id string) (*models.Scope, error)
	// FinalizeScopes narrows the requested scopes before issuance.
	FinalizeScopes(ctx context.Context, scopes []models.Scope, grantType models.GrantType, client *models.Client, userID string) ([]models.Scope, error)
}

type AuthCodeRepository interface {
	PersistNew(ctx context.Context, code *models.AuthCode) error
	FindByID(ctx context.Context, id string) (*models.AuthCode, error)
	IsRevoked(ctx context.Context, id string) (bool, error)
	Revoke(ctx context.Context, id string) error
}

type AccessTokenRepository interface {
	PersistNew(ctx context.Context, token *models.AccessToken) error
	FindByID(ctx context.Context, id string) (*models.AccessToken, error)
	IsRevoked(ctx context.Context, id string) (bool, error)
	Revoke(ctx context.Context, id string) error
	RevokeByAuthCodeID(ctx context.Context, authCodeID string) error
}

type RefreshTokenRepository interface {
	PersistNew(ctx context.Context, token *models.RefreshToken) error
	FindByID(ctx context.Context, id string) (*models.RefreshToken, error)
	IsRevoked(ctx context.Context, id string) (bool, error)
	Revoke(ctx context.Context, id string) error
	RevokeByAuthCodeID(ctx context.Context, authCodeID string) error
}

// UserRepository keeps the attribute sets of authenticated subjects so claims
// can be released at the token endpoint.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
}

// Session is the authenticated-subject provider. Authentication itself happens
// elsewhere; the core only asks and, when prompt or max_age demand it, asks for
// a fresh login.
type Session interface {
	Subject(ctx context.Context) (*models.Subject, bool)
	IsAuthenticated(ctx context.Context) bool
	AuthInstant(ctx context.Context) (time.Time, bool)
	// Reauthenticate drops the current authentication so the surrounding
	// system runs a new login before the request is completed.
	Reauthenticate(ctx context.Context) error
}

// AuditPublisher emits audit events for security-relevant operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
