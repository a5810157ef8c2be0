package models

import "time"

// Stage is the position of an authorization request in its grant's state machine.
type Stage string

const (
	StageReceived  Stage = "received"
	StageValidated Stage = "validated"
	StageApproved  Stage = "approved"
	StageDenied    Stage = "denied"
)

// AuthorizationRequest is the validated, not yet completed, authorization
// request. It is a value: transitions return modified copies and never touch
// the receiver.
type AuthorizationRequest struct {
	GrantType           GrantType
	Client              *Client
	RedirectURI         string
	Scopes              []Scope
	ResponseType        string
	State               string
	Nonce               string
	Claims              *ClaimsRequest
	CodeChallenge       string
	CodeChallengeMethod string
	ACRValues           *ACRValues
	UILocales           string
	AddClaimsToIDToken  bool
	OfflineAccess       bool

	User     *User
	AuthTime time.Time
	ACR      string

	approved bool
	stage    Stage
}

// Stage returns StageReceived for a zero value.
func (r AuthorizationRequest) Stage() Stage {
	if r.stage == "" {
		return StageReceived
	}
	return r.stage
}

func (r AuthorizationRequest) IsApproved() bool { return r.approved }

// Validated marks the request as having passed the rule chain.
func (r AuthorizationRequest) Validated() AuthorizationRequest {
	r.stage = StageValidated
	return r
}

// WithUser attaches the authenticated subject.
func (r AuthorizationRequest) WithUser(u *User, authTime time.Time, acr string) AuthorizationRequest {
	r.User = u
	r.AuthTime = authTime
	r.ACR = acr
	return r
}

// WithApproval records the end user's decision.
func (r AuthorizationRequest) WithApproval(approved bool) AuthorizationRequest {
	r.approved = approved
	if approved {
		r.stage = StageApproved
	} else {
		r.stage = StageDenied
	}
	return r
}

func (r AuthorizationRequest) ScopeIdentifiers() []string {
	return ScopeIdentifiers(r.Scopes)
}
