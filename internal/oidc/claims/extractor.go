// Package claims translates authenticated-subject attributes into OpenID
// Connect claims and releases them according to the granted scopes.
package claims

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"oidcop/internal/oidc/models"
	dErrors "oidcop/pkg/domain-errors"
)

// TranslatorExtractor holds the translation table and the scope claim sets.
// It is immutable after construction and safe for concurrent use.
type TranslatorExtractor struct {
	translations map[string]Translation
	claimSets    map[string]models.ClaimSet
	multiValued  map[string]bool
}

type Option func(*TranslatorExtractor) error

// WithTranslations merges custom translations over the defaults.
func WithTranslations(t map[string]Translation) Option {
	return func(e *TranslatorExtractor) error {
		for claim, tr := range t {
			if err := validateTranslation(claim, tr); err != nil {
				return err
			}
			e.translations[claim] = tr
		}
		return nil
	}
}

// WithClaimSets registers claim sets for custom scopes.
func WithClaimSets(sets ...models.ClaimSet) Option {
	return func(e *TranslatorExtractor) error {
		for _, cs := range sets {
			if cs.Scope == "" {
				return dErrors.New(dErrors.CodeInvariantViolation, "claim set scope cannot be empty")
			}
			if models.IsProtectedScope(cs.Scope) {
				return dErrors.Newf(dErrors.CodeInvariantViolation, "protected scope %q cannot be redefined", cs.Scope)
			}
			e.claimSets[cs.Scope] = models.ClaimSet{Scope: cs.Scope, Claims: slices.Clone(cs.Claims)}
		}
		return nil
	}
}

// WithAllowedMultiValued lets the named claims be released as arrays. `sub`
// is always single valued.
func WithAllowedMultiValued(names ...string) Option {
	return func(e *TranslatorExtractor) error {
		for _, n := range names {
			if n != "sub" {
				e.multiValued[n] = true
			}
		}
		return nil
	}
}

// New builds an extractor. A non-empty userIDAttribute replaces the default
// source of the `sub` claim.
func New(userIDAttribute string, opts ...Option) (*TranslatorExtractor, error) {
	e := &TranslatorExtractor{
		translations: DefaultTranslations(),
		claimSets:    make(map[string]models.ClaimSet),
		multiValued:  make(map[string]bool),
	}
	for _, cs := range DefaultClaimSets() {
		e.claimSets[cs.Scope] = cs
	}
	if userIDAttribute != "" {
		e.translations["sub"] = attrs(userIDAttribute)
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// ClaimSet returns the claim set registered for scope.
func (e *TranslatorExtractor) ClaimSet(scope string) (models.ClaimSet, bool) {
	cs, ok := e.claimSets[scope]
	return cs, ok
}

// ClaimSets returns all registered claim sets ordered by scope.
func (e *TranslatorExtractor) ClaimSets() []models.ClaimSet {
	out := make([]models.ClaimSet, 0, len(e.claimSets))
	for _, scope := range slices.Sorted(maps.Keys(e.claimSets)) {
		out = append(out, e.claimSets[scope])
	}
	return out
}

// Extract translates attributes and keeps the claims owned by one of scopes.
func (e *TranslatorExtractor) Extract(scopes []string, attributes map[string][]string) (map[string]any, error) {
	translated, err := e.translate(attributes)
	if err != nil {
		return nil, err
	}
	released := make(map[string]any)
	for _, scope := range scopes {
		cs, ok := e.claimSets[scope]
		if !ok {
			continue
		}
		for _, claim := range cs.Claims {
			if v, ok := translated[claim]; ok {
				released[claim] = v
			}
		}
	}
	return released, nil
}

// ExtractAdditionalIDTokenClaims releases the individually requested id_token
// claims regardless of scope.
func (e *TranslatorExtractor) ExtractAdditionalIDTokenClaims(req *models.ClaimsRequest, attributes map[string][]string) (map[string]any, error) {
	return e.extractRequested(req.IDTokenClaimNames(), attributes)
}

// ExtractAdditionalUserInfoClaims releases the individually requested userinfo
// claims regardless of scope.
func (e *TranslatorExtractor) ExtractAdditionalUserInfoClaims(req *models.ClaimsRequest, attributes map[string][]string) (map[string]any, error) {
	return e.extractRequested(req.UserInfoClaimNames(), attributes)
}

func (e *TranslatorExtractor) extractRequested(names []string, attributes map[string][]string) (map[string]any, error) {
	if len(names) == 0 {
		return map[string]any{}, nil
	}
	translated, err := e.translate(attributes)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(names))
	for _, n := range names {
		if v, ok := translated[n]; ok {
			out[n] = v
		}
	}
	return out, nil
}

func (e *TranslatorExtractor) translate(attributes map[string][]string) (map[string]any, error) {
	out := make(map[string]any, len(e.translations))
	for claim, tr := range e.translations {
		v, ok, err := e.translateOne(claim, tr, attributes)
		if err != nil {
			return nil, err
		}
		if ok {
			out[claim] = v
		}
	}
	return out, nil
}

func (e *TranslatorExtractor) translateOne(claim string, tr Translation, attributes map[string][]string) (any, bool, error) {
	if tr.Type == TypeJSON {
		nested := make(map[string]any)
		for sub, subTr := range tr.Claims {
			v, ok, err := e.translateOne(claim+"."+sub, subTr, attributes)
			if err != nil {
				return nil, false, err
			}
			if ok {
				nested[sub] = v
			}
		}
		return nested, len(nested) > 0, nil
	}

	for _, attr := range tr.Attributes {
		values := attributes[attr]
		if len(values) == 0 {
			continue
		}
		converted := make([]any, 0, len(values))
		for _, raw := range values {
			v, err := convert(tr.Type, raw)
			if err != nil {
				return nil, false, dErrors.Wrap(err, dErrors.CodeInvariantViolation,
					"claim "+claim+" cannot be read from attribute "+attr)
			}
			converted = append(converted, v)
		}
		if e.multiValued[claim] && len(converted) > 1 {
			return converted, true, nil
		}
		return converted[0], true, nil
	}
	return nil, false, nil
}

func convert(t Type, raw string) (any, error) {
	switch t {
	case TypeInt:
		return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	case TypeBool:
		return strconv.ParseBool(strings.TrimSpace(raw))
	default:
		return raw, nil
	}
}

func validateTranslation(claim string, tr Translation) error {
	switch tr.Type {
	case TypeString, TypeInt, TypeBool:
		if len(tr.Claims) > 0 {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "claim %q: nested claims require type json", claim)
		}
	case TypeJSON:
		for sub, subTr := range tr.Claims {
			if subTr.Type == TypeJSON {
				return dErrors.Newf(dErrors.CodeInvariantViolation, "claim %q: json claims cannot nest", claim+"."+sub)
			}
			if err := validateTranslation(claim+"."+sub, subTr); err != nil {
				return err
			}
		}
	default:
		return dErrors.Newf(dErrors.CodeInvariantViolation, "claim %q: unknown type %q", claim, tr.Type)
	}
	return nil
}
