package models

import "slices"

// Standard OpenID Connect scopes. The first five are protected: their claim
// sets are fixed and cannot be redefined by configuration.
const (
	ScopeOpenID        = "openid"
	ScopeProfile       = "profile"
	ScopeEmail         = "email"
	ScopeAddress       = "address"
	ScopePhone         = "phone"
	ScopeOfflineAccess = "offline_access"
)

var protectedScopes = []string{ScopeOpenID, ScopeProfile, ScopeEmail, ScopeAddress, ScopePhone}

// IsProtectedScope reports whether id names one of the standard claim-bearing scopes.
func IsProtectedScope(id string) bool {
	return slices.Contains(protectedScopes, id)
}

// ProtectedScopes returns a copy of the protected scope identifiers.
func ProtectedScopes() []string {
	return slices.Clone(protectedScopes)
}

// Scope is a registered OAuth scope.
type Scope struct {
	Identifier  string   `json:"identifier" yaml:"identifier"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Icon        string   `json:"icon,omitempty" yaml:"icon"`
	Claims      []string `json:"claims,omitempty" yaml:"claims"`
}

// ClaimSet declares which claim names a scope authorizes release of.
type ClaimSet struct {
	Scope  string
	Claims []string
}

// ScopeIdentifiers flattens scopes to their identifiers, preserving order.
func ScopeIdentifiers(scopes []Scope) []string {
	ids := make([]string, 0, len(scopes))
	for _, s := range scopes {
		ids = append(ids, s.Identifier)
	}
	return ids
}

// HasScope reports whether scopes contains id.
func HasScope(scopes []Scope, id string) bool {
	return slices.ContainsFunc(scopes, func(s Scope) bool { return s.Identifier == id })
}
