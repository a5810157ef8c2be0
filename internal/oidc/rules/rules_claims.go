package rules

import (
	"context"
	"maps"
	"strings"

	"oidcop/internal/oidc/claims"
	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/oautherr"
)

// ClaimSetSource looks up the claims a scope authorizes.
type ClaimSetSource interface {
	ClaimSet(scope string) (models.ClaimSet, bool)
}

// RequestedClaimsRule parses the `claims` parameter and silently drops every
// requested claim the client's registered scopes do not authorize.
type RequestedClaimsRule struct {
	claimSets ClaimSetSource
}

func NewRequestedClaimsRule(claimSets ClaimSetSource) *RequestedClaimsRule {
	return &RequestedClaimsRule{claimSets: claimSets}
}

func (*RequestedClaimsRule) Key() Key { return KeyRequestedClaims }

func (*RequestedClaimsRule) Dependencies() []Key { return []Key{KeyClientID} }

func (r *RequestedClaimsRule) CheckRule(_ context.Context, req *Request, bag *ResultBag, data Data) (*Result, error) {
	client, err := ValueOf[*models.Client](bag, KeyClientID)
	if err != nil {
		return nil, err
	}
	requested, err := models.ParseClaimsRequest(req.Param("claims", data.AllowedMethods))
	if err != nil {
		return nil, redirectable(oautherr.InvalidRequest("claims", "Claims parameter is not valid JSON").WithCause(err), bag, data)
	}
	if requested == nil {
		return NewResult(KeyRequestedClaims, (*models.ClaimsRequest)(nil)), nil
	}

	authorized := make(map[string]bool)
	for _, c := range claims.RegisteredClaims {
		authorized[c] = true
	}
	for _, scope := range client.Scopes {
		if cs, ok := r.claimSets.ClaimSet(scope); ok {
			for _, c := range cs.Claims {
				authorized[c] = true
			}
		}
	}
	filtered := &models.ClaimsRequest{
		UserInfo: filterClaims(requested.UserInfo, authorized),
		IDToken:  filterClaims(requested.IDToken, authorized),
	}
	return NewResult(KeyRequestedClaims, filtered), nil
}

func filterClaims(in map[string]*models.ClaimRequest, authorized map[string]bool) map[string]*models.ClaimRequest {
	if len(in) == 0 {
		return nil
	}
	out := maps.Clone(in)
	maps.DeleteFunc(out, func(name string, _ *models.ClaimRequest) bool { return !authorized[name] })
	return out
}

// AddClaimsToIDTokenRule decides whether user claims go in the ID token. That
// is required when no access token is issued to fetch them from userinfo.
type AddClaimsToIDTokenRule struct{}

func (AddClaimsToIDTokenRule) Key() Key { return KeyAddClaimsToIDToken }

func (AddClaimsToIDTokenRule) Dependencies() []Key { return []Key{KeyResponseType} }

func (AddClaimsToIDTokenRule) CheckRule(_ context.Context, _ *Request, bag *ResultBag, data Data) (*Result, error) {
	rt, err := ValueOf[string](bag, KeyResponseType)
	if err != nil {
		return nil, err
	}
	return NewResult(KeyAddClaimsToIDToken, data.AlwaysAddClaimsToIDToken || rt == models.ResponseTypeIDToken), nil
}

// ACRValuesRule merges `acr_values` with an `acr` id_token claim request.
type ACRValuesRule struct{}

func (ACRValuesRule) Key() Key { return KeyACRValues }

func (ACRValuesRule) Dependencies() []Key { return []Key{KeyRequestedClaims} }

func (ACRValuesRule) CheckRule(_ context.Context, req *Request, bag *ResultBag, data Data) (*Result, error) {
	requested, err := ValueOf[*models.ClaimsRequest](bag, KeyRequestedClaims)
	if err != nil {
		return nil, err
	}
	acr := &models.ACRValues{Values: strings.Fields(req.Param("acr_values", data.AllowedMethods))}

	if requested != nil {
		if cr := requested.IDToken["acr"]; cr != nil {
			acr.Essential = cr.Essential
			if s, ok := cr.Value.(string); ok && s != "" {
				acr.Values = append([]string{s}, acr.Values...)
			}
			for _, v := range cr.Values {
				if s, ok := v.(string); ok && s != "" {
					acr.Values = append(acr.Values, s)
				}
			}
		}
	}
	if len(acr.Values) == 0 {
		return nil, nil
	}
	return NewResult(KeyACRValues, acr), nil
}
