package models

import (
	"encoding/json"
	"maps"
	"slices"
)

// ClaimRequest is a single entry of an OpenID Connect claims request. A JSON
// null entry decodes to a nil *ClaimRequest.
type ClaimRequest struct {
	Essential bool  `json:"essential,omitempty"`
	Value     any   `json:"value,omitempty"`
	Values    []any `json:"values,omitempty"`
}

// ClaimsRequest is the decoded `claims` authorization parameter.
type ClaimsRequest struct {
	UserInfo map[string]*ClaimRequest `json:"userinfo,omitempty"`
	IDToken  map[string]*ClaimRequest `json:"id_token,omitempty"`
}

func (c *ClaimsRequest) IsEmpty() bool {
	return c == nil || (len(c.UserInfo) == 0 && len(c.IDToken) == 0)
}

// IDTokenClaimNames returns the requested id_token claim names, sorted.
func (c *ClaimsRequest) IDTokenClaimNames() []string {
	if c == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(c.IDToken))
}

// UserInfoClaimNames returns the requested userinfo claim names, sorted.
func (c *ClaimsRequest) UserInfoClaimNames() []string {
	if c == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(c.UserInfo))
}

// ParseClaimsRequest decodes the `claims` parameter. Empty input yields nil.
func ParseClaimsRequest(raw string) (*ClaimsRequest, error) {
	if raw == "" || raw == "null" || raw == "[]" {
		return nil, nil
	}
	var cr ClaimsRequest
	if err := json.Unmarshal([]byte(raw), &cr); err != nil {
		return nil, err
	}
	return &cr, nil
}

// ACRValues is the combined result of acr_values and an id_token acr claim request.
type ACRValues struct {
	Essential bool
	Values    []string
}

// Satisfies reports whether an authentication performed at acr meets the
// request. Voluntary requests are always met.
func (a *ACRValues) Satisfies(acr string) bool {
	if a == nil || !a.Essential || len(a.Values) == 0 {
		return true
	}
	return slices.Contains(a.Values, acr)
}
