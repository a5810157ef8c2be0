package rules

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"oidcop/internal/oidc/claims"
	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/oautherr"
	"oidcop/internal/oidc/pkce"
	"oidcop/internal/oidc/ports/mocks"
	dErrors "oidcop/pkg/domain-errors"
	"oidcop/pkg/platform/sentinel"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type RulesSuite struct {
	suite.Suite
	ctx     context.Context
	data    Data
	clients *mocks.MockClientRepository
}

func TestRulesSuite(t *testing.T) {
	suite.Run(t, new(RulesSuite))
}

func (s *RulesSuite) SetupTest() {
	s.ctx = context.Background()
	s.data = DefaultData()
	s.clients = mocks.NewMockClientRepository(gomock.NewController(s.T()))
}

func (s *RulesSuite) requireOAuthError(err error, code string) *oautherr.Error {
	s.T().Helper()
	s.Require().Error(err)
	oe, ok := oautherr.As(err)
	s.Require().True(ok, "expected oauth error, got %v", err)
	s.Equal(code, oe.Code)
	return oe
}

// redirected is a bag in which client_id, redirect_uri and state have run.
func (s *RulesSuite) redirected(extra ...*Result) *ResultBag {
	base := []*Result{
		NewResult(KeyState, "xyz"),
		NewResult(KeyClientID, testClient()),
		NewResult(KeyRedirectURI, "https://rp.example.com/cb"),
	}
	return bagWith(append(base, extra...)...)
}

func (s *RulesSuite) TestStateRule() {
	res, err := StateRule{}.CheckRule(s.ctx, getRequest(map[string]string{"state": " a b "}), NewResultBag(), s.data)
	s.Require().NoError(err)
	s.Equal(" a b ", res.Value(), "state is passed through verbatim")
}

func (s *RulesSuite) TestClientIDRule() {
	rule := NewClientIDRule(s.clients)

	s.Run("resolves from query", func() {
		s.clients.EXPECT().FindByID(gomock.Any(), "client-1").Return(testClient(), nil)
		res, err := rule.CheckRule(s.ctx, getRequest(map[string]string{"client_id": "client-1"}), NewResultBag(), s.data)
		s.Require().NoError(err)
		s.Equal("client-1", res.Value().(*models.Client).ID)
	})

	s.Run("falls back to basic auth user", func() {
		s.clients.EXPECT().FindByID(gomock.Any(), "client-1").Return(testClient(), nil)
		req := NewRequest(http.MethodPost, nil, url.Values{}).WithBasicAuth("client-1", "secret")
		res, err := rule.CheckRule(s.ctx, req, NewResultBag(), Data{AllowedMethods: []string{http.MethodPost}})
		s.Require().NoError(err)
		s.Equal("client-1", res.Value().(*models.Client).ID)
	})

	s.Run("missing", func() {
		_, err := rule.CheckRule(s.ctx, getRequest(nil), NewResultBag(), s.data)
		s.requireOAuthError(err, oautherr.CodeInvalidClient)
	})

	s.Run("unknown", func() {
		s.clients.EXPECT().FindByID(gomock.Any(), "nope").Return(nil, fmt.Errorf("client: %w", sentinel.ErrNotFound))
		_, err := rule.CheckRule(s.ctx, getRequest(map[string]string{"client_id": "nope"}), NewResultBag(), s.data)
		s.requireOAuthError(err, oautherr.CodeInvalidClient)
	})

	s.Run("disabled", func() {
		c := testClient()
		c.Enabled = false
		s.clients.EXPECT().FindByID(gomock.Any(), "client-1").Return(c, nil)
		_, err := rule.CheckRule(s.ctx, getRequest(map[string]string{"client_id": "client-1"}), NewResultBag(), s.data)
		s.requireOAuthError(err, oautherr.CodeInvalidClient)
	})

	s.Run("store failure is a server error", func() {
		boom := errors.New("connection reset")
		s.clients.EXPECT().FindByID(gomock.Any(), "client-1").Return(nil, boom)
		_, err := rule.CheckRule(s.ctx, getRequest(map[string]string{"client_id": "client-1"}), NewResultBag(), s.data)
		s.requireOAuthError(err, oautherr.CodeServerError)
		s.ErrorIs(err, boom)
	})
}

func (s *RulesSuite) TestRedirectURIRule() {
	bag := bagWith(NewResult(KeyState, "xyz"), NewResult(KeyClientID, testClient()))

	s.Run("registered uri", func() {
		res, err := RedirectURIRule{}.CheckRule(s.ctx, getRequest(map[string]string{"redirect_uri": "https://rp.example.com/alt"}), bag, s.data)
		s.Require().NoError(err)
		s.Equal("https://rp.example.com/alt", res.Value())
	})

	s.Run("missing is invalid_request", func() {
		_, err := RedirectURIRule{}.CheckRule(s.ctx, getRequest(nil), bag, s.data)
		oe := s.requireOAuthError(err, oautherr.CodeInvalidRequest)
		s.False(oe.IsRedirectable())
	})

	s.Run("mismatch is invalid_client and never redirected", func() {
		_, err := RedirectURIRule{}.CheckRule(s.ctx, getRequest(map[string]string{"redirect_uri": "https://evil.example.com/cb"}), bag, s.data)
		oe := s.requireOAuthError(err, oautherr.CodeInvalidClient)
		s.False(oe.IsRedirectable())
	})

	s.Run("missing client result is a configuration error", func() {
		_, err := RedirectURIRule{}.CheckRule(s.ctx, getRequest(nil), NewResultBag(), s.data)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *RulesSuite) TestRequestParameterRule() {
	_, err := RequestParameterRule{}.CheckRule(s.ctx, getRequest(map[string]string{"request": "eyJ..."}), s.redirected(), s.data)
	oe := s.requireOAuthError(err, oautherr.CodeRequestNotSupported)
	s.Equal("https://rp.example.com/cb", oe.RedirectURI)
	s.Equal("xyz", oe.State)

	res, err := RequestParameterRule{}.CheckRule(s.ctx, getRequest(nil), s.redirected(), s.data)
	s.Require().NoError(err)
	s.Nil(res)
}

func (s *RulesSuite) TestResponseTypeRule() {
	data := s.data
	data.ResponseTypes = []string{models.ResponseTypeCode}

	res, err := ResponseTypeRule{}.CheckRule(s.ctx, getRequest(map[string]string{"response_type": "code"}), s.redirected(), data)
	s.Require().NoError(err)
	s.Equal("code", res.Value())

	_, err = ResponseTypeRule{}.CheckRule(s.ctx, getRequest(nil), s.redirected(), data)
	s.requireOAuthError(err, oautherr.CodeInvalidRequest)

	_, err = ResponseTypeRule{}.CheckRule(s.ctx, getRequest(map[string]string{"response_type": "token"}), s.redirected(), data)
	s.requireOAuthError(err, oautherr.CodeUnsupportedResponseType)
}

func (s *RulesSuite) TestScopeRule() {
	rule := NewScopeRule(defaultScopes())

	s.Run("resolves scopes and drops duplicates", func() {
		res, err := rule.CheckRule(s.ctx, getRequest(map[string]string{"scope": "openid email openid"}), s.redirected(), s.data)
		s.Require().NoError(err)
		s.Equal([]string{"openid", "email"}, models.ScopeIdentifiers(res.Value().([]models.Scope)))
	})

	s.Run("falls back to the default scope", func() {
		data := s.data
		data.DefaultScope = "openid"
		res, err := rule.CheckRule(s.ctx, getRequest(nil), s.redirected(), data)
		s.Require().NoError(err)
		s.Equal([]string{"openid"}, models.ScopeIdentifiers(res.Value().([]models.Scope)))
	})

	s.Run("custom delimiter", func() {
		data := s.data
		data.ScopeDelimiter = ","
		res, err := rule.CheckRule(s.ctx, getRequest(map[string]string{"scope": "openid,profile"}), s.redirected(), data)
		s.Require().NoError(err)
		s.Equal([]string{"openid", "profile"}, models.ScopeIdentifiers(res.Value().([]models.Scope)))
	})

	s.Run("unknown scope names the offending token", func() {
		_, err := rule.CheckRule(s.ctx, getRequest(map[string]string{"scope": "openid admin"}), s.redirected(), s.data)
		oe := s.requireOAuthError(err, oautherr.CodeInvalidScope)
		s.Contains(oe.Hint, "admin")
		s.True(oe.IsRedirectable())
	})

	s.Run("empty delimiter is a configuration error", func() {
		data := s.data
		data.ScopeDelimiter = ""
		_, err := rule.CheckRule(s.ctx, getRequest(map[string]string{"scope": "openid"}), s.redirected(), data)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *RulesSuite) TestRequiredOpenIDScopeRule() {
	bag := s.redirected(NewResult(KeyScope, []models.Scope{{Identifier: "email"}}))
	_, err := RequiredOpenIDScopeRule{}.CheckRule(s.ctx, getRequest(nil), bag, s.data)
	oe := s.requireOAuthError(err, oautherr.CodeInvalidRequest)
	s.Contains(oe.Hint, "`scope`")

	bag = s.redirected(NewResult(KeyScope, []models.Scope{{Identifier: "openid"}}))
	_, err = RequiredOpenIDScopeRule{}.CheckRule(s.ctx, getRequest(nil), bag, s.data)
	s.NoError(err)
}

func (s *RulesSuite) TestScopeOfflineAccessRule() {
	offline := []models.Scope{{Identifier: "openid"}, {Identifier: "offline_access"}}

	s.Run("not requested", func() {
		bag := s.redirected(NewResult(KeyScope, []models.Scope{{Identifier: "openid"}}))
		res, err := ScopeOfflineAccessRule{}.CheckRule(s.ctx, getRequest(nil), bag, s.data)
		s.Require().NoError(err)
		s.Equal(false, res.Value())
	})

	s.Run("requested but not registered", func() {
		bag := s.redirected(NewResult(KeyScope, offline))
		_, err := ScopeOfflineAccessRule{}.CheckRule(s.ctx, getRequest(nil), bag, s.data)
		s.requireOAuthError(err, oautherr.CodeInvalidRequest)
	})

	s.Run("requested and registered", func() {
		c := testClient()
		c.Scopes = append(c.Scopes, "offline_access")
		bag := bagWith(NewResult(KeyClientID, c), NewResult(KeyScope, offline))
		res, err := ScopeOfflineAccessRule{}.CheckRule(s.ctx, getRequest(nil), bag, s.data)
		s.Require().NoError(err)
		s.Equal(true, res.Value())
	})

	s.Run("always issue overrides the check", func() {
		data := s.data
		data.AlwaysIssueRefreshToken = true
		bag := s.redirected(NewResult(KeyScope, offline))
		res, err := ScopeOfflineAccessRule{}.CheckRule(s.ctx, getRequest(nil), bag, data)
		s.Require().NoError(err)
		s.Equal(true, res.Value())
	})
}

func (s *RulesSuite) TestCodeChallengeRules() {
	challenge := pkce.S256Challenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk")

	s.Run("valid challenge", func() {
		res, err := CodeChallengeRule{}.CheckRule(s.ctx, getRequest(map[string]string{"code_challenge": challenge}), s.redirected(), s.data)
		s.Require().NoError(err)
		s.Equal(challenge, res.Value())
	})

	s.Run("missing challenge", func() {
		_, err := CodeChallengeRule{}.CheckRule(s.ctx, getRequest(nil), s.redirected(), s.data)
		s.requireOAuthError(err, oautherr.CodeInvalidRequest)
	})

	method := NewCodeChallengeMethodRule(pkce.NewRegistry())

	s.Run("method defaults to plain", func() {
		res, err := method.CheckRule(s.ctx, getRequest(nil), s.redirected(), s.data)
		s.Require().NoError(err)
		s.Equal(pkce.MethodPlain, res.Value())
	})

	s.Run("unregistered method", func() {
		_, err := method.CheckRule(s.ctx, getRequest(map[string]string{"code_challenge_method": "S512"}), s.redirected(), s.data)
		oe := s.requireOAuthError(err, oautherr.CodeInvalidRequest)
		s.Contains(oe.Hint, "S256, plain")
	})
}

func (s *RulesSuite) TestPromptRule() {
	s.Run("none combined with other values", func() {
		rule := NewPromptRule(&fakeSession{authenticated: true})
		_, err := rule.CheckRule(s.ctx, getRequest(map[string]string{"prompt": "none login"}), s.redirected(), s.data)
		s.requireOAuthError(err, oautherr.CodeInvalidRequest)
	})

	s.Run("none while unauthenticated", func() {
		rule := NewPromptRule(&fakeSession{})
		_, err := rule.CheckRule(s.ctx, getRequest(map[string]string{"prompt": "none"}), s.redirected(), s.data)
		oe := s.requireOAuthError(err, oautherr.CodeLoginRequired)
		s.True(oe.IsRedirectable())
	})

	s.Run("login while authenticated forces re-authentication", func() {
		session := &fakeSession{authenticated: true}
		rule := NewPromptRule(session)
		res, err := rule.CheckRule(s.ctx, getRequest(map[string]string{"prompt": "login consent"}), s.redirected(), s.data)
		s.Require().NoError(err)
		s.Equal([]string{"login", "consent"}, res.Value())
		s.Equal(1, session.reauthCalls)
	})

	s.Run("login while unauthenticated", func() {
		session := &fakeSession{}
		_, err := NewPromptRule(session).CheckRule(s.ctx, getRequest(map[string]string{"prompt": "login"}), s.redirected(), s.data)
		s.Require().NoError(err)
		s.Zero(session.reauthCalls)
	})
}

func (s *RulesSuite) TestMaxAgeRule() {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	s.Run("malformed", func() {
		rule := NewMaxAgeRule(&fakeSession{}, clock)
		for _, v := range []string{"abc", "-1", "1.5"} {
			_, err := rule.CheckRule(s.ctx, getRequest(map[string]string{"max_age": v}), s.redirected(), s.data)
			s.requireOAuthError(err, oautherr.CodeInvalidRequest)
		}
	})

	s.Run("recent authentication is kept", func() {
		session := &fakeSession{authenticated: true, authInstant: now.Add(-time.Minute)}
		res, err := NewMaxAgeRule(session, clock).CheckRule(s.ctx, getRequest(map[string]string{"max_age": "300"}), s.redirected(), s.data)
		s.Require().NoError(err)
		s.Equal(now.Add(-time.Minute), res.Value())
		s.Zero(session.reauthCalls)
	})

	s.Run("stale authentication forces re-authentication", func() {
		session := &fakeSession{authenticated: true, authInstant: now.Add(-time.Hour)}
		_, err := NewMaxAgeRule(session, clock).CheckRule(s.ctx, getRequest(map[string]string{"max_age": "300"}), s.redirected(), s.data)
		s.Require().NoError(err)
		s.Equal(1, session.reauthCalls)
	})
}

type hintParser struct{ sub string }

func (h hintParser) ParseIDTokenHint(token string) (*jwt.RegisteredClaims, error) {
	if token != "good" {
		return nil, errors.New("bad signature")
	}
	return &jwt.RegisteredClaims{Subject: h.sub}, nil
}

func (s *RulesSuite) TestIDTokenHintRule() {
	rule := NewIDTokenHintRule(hintParser{sub: "alice"})

	res, err := rule.CheckRule(s.ctx, getRequest(map[string]string{"id_token_hint": "good"}), s.redirected(), s.data)
	s.Require().NoError(err)
	s.Equal("alice", res.Value())

	_, err = rule.CheckRule(s.ctx, getRequest(map[string]string{"id_token_hint": "forged"}), s.redirected(), s.data)
	s.requireOAuthError(err, oautherr.CodeInvalidRequest)

	res, err = rule.CheckRule(s.ctx, getRequest(nil), s.redirected(), s.data)
	s.Require().NoError(err)
	s.Nil(res)
}

func (s *RulesSuite) TestRequestedClaimsRule() {
	extractor, err := claims.New("uid")
	s.Require().NoError(err)
	rule := NewRequestedClaimsRule(extractor)

	s.Run("filters to the client's scopes", func() {
		raw := `{"id_token":{"email":{"essential":true},"name":null,"acr":{"values":["loa1"]}},"userinfo":{"phone_number":null,"email_verified":null}}`
		res, err := rule.CheckRule(s.ctx, getRequest(map[string]string{"claims": raw}), s.redirected(), s.data)
		s.Require().NoError(err)

		cr := res.Value().(*models.ClaimsRequest)
		s.Equal([]string{"acr", "email"}, cr.IDTokenClaimNames(), "name needs profile, which the client does not have")
		s.Equal([]string{"email_verified"}, cr.UserInfoClaimNames())
		s.True(cr.IDToken["email"].Essential)
	})

	s.Run("absent parameter", func() {
		res, err := rule.CheckRule(s.ctx, getRequest(nil), s.redirected(), s.data)
		s.Require().NoError(err)
		s.Nil(res.Value().(*models.ClaimsRequest))
	})

	s.Run("malformed JSON", func() {
		_, err := rule.CheckRule(s.ctx, getRequest(map[string]string{"claims": "{"}), s.redirected(), s.data)
		s.requireOAuthError(err, oautherr.CodeInvalidRequest)
	})
}

func (s *RulesSuite) TestAddClaimsToIDTokenRule() {
	for rt, want := range map[string]bool{
		models.ResponseTypeIDToken:      true,
		models.ResponseTypeIDTokenToken: false,
		models.ResponseTypeCode:         false,
	} {
		res, err := AddClaimsToIDTokenRule{}.CheckRule(s.ctx, getRequest(nil), bagWith(NewResult(KeyResponseType, rt)), s.data)
		s.Require().NoError(err)
		s.Equal(want, res.Value(), rt)
	}

	data := s.data
	data.AlwaysAddClaimsToIDToken = true
	res, err := AddClaimsToIDTokenRule{}.CheckRule(s.ctx, getRequest(nil), bagWith(NewResult(KeyResponseType, "code")), data)
	s.Require().NoError(err)
	s.Equal(true, res.Value())
}

func (s *RulesSuite) TestRequiredNonceRule() {
	_, err := RequiredNonceRule{}.CheckRule(s.ctx, getRequest(nil), s.redirected(), s.data)
	s.requireOAuthError(err, oautherr.CodeInvalidRequest)

	res, err := RequiredNonceRule{}.CheckRule(s.ctx, getRequest(map[string]string{"nonce": "n-0S6"}), s.redirected(), s.data)
	s.Require().NoError(err)
	s.Equal("n-0S6", res.Value())
}

func (s *RulesSuite) TestACRValuesRule() {
	s.Run("merges acr_values and the acr claim request", func() {
		cr := &models.ClaimsRequest{IDToken: map[string]*models.ClaimRequest{
			"acr": {Essential: true, Value: "loa3", Values: []any{"loa2"}},
		}}
		bag := bagWith(NewResult(KeyRequestedClaims, cr))
		res, err := ACRValuesRule{}.CheckRule(s.ctx, getRequest(map[string]string{"acr_values": "loa1"}), bag, s.data)
		s.Require().NoError(err)
		s.Equal(&models.ACRValues{Essential: true, Values: []string{"loa3", "loa1", "loa2"}}, res.Value())
	})

	s.Run("nothing requested", func() {
		bag := bagWith(NewResult(KeyRequestedClaims, (*models.ClaimsRequest)(nil)))
		res, err := ACRValuesRule{}.CheckRule(s.ctx, getRequest(nil), bag, s.data)
		s.Require().NoError(err)
		s.Nil(res)
	})
}

func (s *RulesSuite) TestParamRespectsAllowedMethods() {
	req := NewRequest(http.MethodPost, url.Values{"state": {"from-query"}}, url.Values{"state": {"from-body"}})
	s.Equal("from-body", req.Param("state", []string{http.MethodGet, http.MethodPost}))
	s.Empty(req.Param("state", []string{http.MethodGet}))
}
