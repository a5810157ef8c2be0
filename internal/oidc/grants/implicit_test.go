package grants

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/suite"

	"oidcop/internal/oidc/idtoken"
	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/oautherr"
	"oidcop/pkg/platform/audit"
)

type ImplicitSuite struct {
	suite.Suite
	h *harness
	g *ImplicitGrant
}

func TestImplicitSuite(t *testing.T) {
	suite.Run(t, new(ImplicitSuite))
}

func (s *ImplicitSuite) SetupTest() {
	s.h = newHarness(s.T())
	s.g = s.h.implicitGrant()
}

func (s *ImplicitSuite) validate(responseType string, extra map[string]string) (models.AuthorizationRequest, error) {
	params := map[string]string{
		"client_id":     publicClientID,
		"redirect_uri":  redirectURI,
		"response_type": responseType,
		"scope":         "openid email",
		"state":         "st-1",
		"nonce":         "n-1",
	}
	for k, v := range extra {
		if v == "" {
			delete(params, k)
			continue
		}
		params[k] = v
	}
	return s.g.ValidateAuthorizationRequest(context.Background(), authorizeRequest(params))
}

func (s *ImplicitSuite) fragment(raw string) url.Values {
	u, err := url.Parse(raw)
	s.Require().NoError(err)
	s.Empty(u.RawQuery, "implicit responses travel in the fragment")
	frag, err := url.ParseQuery(u.Fragment)
	s.Require().NoError(err)
	return frag
}

func (s *ImplicitSuite) TestIDTokenAndAccessToken() {
	ar, err := s.validate(models.ResponseTypeIDTokenToken, nil)
	s.Require().NoError(err)

	resp, err := s.h.approve(s.g, ar, true)
	s.Require().NoError(err)

	frag := s.fragment(resp.URL)
	s.Equal("st-1", frag.Get("state"))
	s.Equal(models.TokenTypeBearer, frag.Get("token_type"))
	s.Equal("3600", frag.Get("expires_in"))
	s.Require().NotEmpty(frag.Get("access_token"))

	idt := s.h.parseIDToken(frag.Get("id_token"))
	s.Equal("n-1", idt["nonce"])
	s.Equal(idtoken.AccessTokenHash(frag.Get("access_token")), idt["at_hash"])
	s.NotContains(idt, "email", "claims are fetched from userinfo when an access token is issued")

	at, err := s.h.jwt.ValidateAccessToken(frag.Get("access_token"))
	s.Require().NoError(err)
	stored, err := s.h.accessTokens.FindByID(context.Background(), at.ID)
	s.Require().NoError(err)
	s.Empty(stored.AuthCodeID)
	s.Len(s.h.auditEvents(audit.EventTokenIssued), 1)
}

func (s *ImplicitSuite) TestIDTokenOnly() {
	ar, err := s.validate(models.ResponseTypeIDToken, nil)
	s.Require().NoError(err)
	s.True(ar.AddClaimsToIDToken)

	resp, err := s.h.approve(s.g, ar, true)
	s.Require().NoError(err)

	frag := s.fragment(resp.URL)
	s.Empty(frag.Get("access_token"))
	idt := s.h.parseIDToken(frag.Get("id_token"))
	s.Equal("alice@example.org", idt["email"])
	s.NotContains(idt, "at_hash")
	s.Equal(publicClientID, idt["azp"])
}

func (s *ImplicitSuite) TestMissingNonce() {
	_, err := s.validate(models.ResponseTypeIDToken, map[string]string{"nonce": ""})
	s.Require().Error(err)
	oe, ok := oautherr.As(err)
	s.Require().True(ok)
	s.Equal(oautherr.CodeInvalidRequest, oe.Code)
	s.True(oe.UseFragment)

	raw, err := oe.RedirectURL()
	s.Require().NoError(err)
	frag := s.fragment(raw)
	s.Equal("st-1", frag.Get("state"))
}

func (s *ImplicitSuite) TestDenied() {
	ar, err := s.validate(models.ResponseTypeIDTokenToken, nil)
	s.Require().NoError(err)

	resp, err := s.h.approve(s.g, ar, false)
	s.Require().NoError(err)

	frag := s.fragment(resp.URL)
	s.Equal(url.Values{"state": {"st-1"}}, frag)
	s.Len(s.h.auditEvents(audit.EventAuthorizationDenied), 1)
}

func (s *ImplicitSuite) TestCodeResponseTypeRejected() {
	_, err := s.validate(models.ResponseTypeCode, nil)
	s.Require().Error(err)
	oe, ok := oautherr.As(err)
	s.Require().True(ok)
	s.Equal(oautherr.CodeUnsupportedResponseType, oe.Code)
}
