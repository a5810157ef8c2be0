package rules

import (
	"time"

	"oidcop/internal/oidc/pkce"
	"oidcop/internal/oidc/ports"
)

// Dependencies are the collaborators of the rules that need them.
type Dependencies struct {
	Clients    ports.ClientRepository
	Scopes     ports.ScopeRepository
	Session    ports.Session
	ClaimSets  ClaimSetSource
	Verifiers  *pkce.Registry
	HintParser IDTokenHintParser
	Now        func() time.Time
}

// DefaultRules returns one instance of every rule.
func DefaultRules(d Dependencies) []Rule {
	verifiers := d.Verifiers
	if verifiers == nil {
		verifiers = pkce.NewRegistry()
	}
	return []Rule{
		StateRule{},
		NewClientIDRule(d.Clients),
		RedirectURIRule{},
		ResponseTypeRule{},
		RequestParameterRule{},
		NewIDTokenHintRule(d.HintParser),
		NewPromptRule(d.Session),
		NewMaxAgeRule(d.Session, d.Now),
		NewScopeRule(d.Scopes),
		RequiredOpenIDScopeRule{},
		CodeChallengeRule{},
		NewCodeChallengeMethodRule(verifiers),
		NewRequestedClaimsRule(d.ClaimSets),
		AddClaimsToIDTokenRule{},
		RequiredNonceRule{},
		ScopeOfflineAccessRule{},
		UILocalesRule{},
		ACRValuesRule{},
	}
}
