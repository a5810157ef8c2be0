package rules

import (
	"context"
	"errors"

	"oidcop/internal/oidc/models"
	"oidcop/internal/oidc/oautherr"
	"oidcop/internal/oidc/ports"
	"oidcop/pkg/platform/sentinel"
)

// ClientIDRule resolves the client from `client_id` or the basic-auth user.
type ClientIDRule struct {
	base
	clients ports.ClientRepository
}

func NewClientIDRule(clients ports.ClientRepository) *ClientIDRule {
	return &ClientIDRule{clients: clients}
}

func (*ClientIDRule) Key() Key { return KeyClientID }

func (r *ClientIDRule) CheckRule(ctx context.Context, req *Request, _ *ResultBag, data Data) (*Result, error) {
	id := req.Param("client_id", data.AllowedMethods)
	if id == "" {
		id, _, _ = req.BasicAuth()
	}
	if id == "" {
		return nil, oautherr.InvalidClient("Client ID is missing")
	}
	client, err := r.clients.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, oautherr.InvalidClient("Client not found").WithCause(err)
		}
		return nil, oautherr.ServerError("Client lookup failed").WithCause(err)
	}
	if client == nil || !client.Enabled {
		return nil, oautherr.InvalidClient("Client is not enabled")
	}
	return NewResult(KeyClientID, client), nil
}

// RedirectURIRule requires `redirect_uri` and matches it byte for byte against
// the client's registered URIs. Its errors are never redirected: an
// unvalidated URI is not a safe place to send anything.
type RedirectURIRule struct{}

func (RedirectURIRule) Key() Key { return KeyRedirectURI }

func (RedirectURIRule) Dependencies() []Key { return []Key{KeyClientID} }

func (RedirectURIRule) CheckRule(_ context.Context, req *Request, bag *ResultBag, data Data) (*Result, error) {
	client, err := ValueOf[*models.Client](bag, KeyClientID)
	if err != nil {
		return nil, err
	}
	uri := req.Param("redirect_uri", data.AllowedMethods)
	if uri == "" {
		return nil, oautherr.InvalidRequest("redirect_uri", "")
	}
	if client == nil || !client.HasRedirectURI(uri) {
		return nil, oautherr.InvalidClient("Redirect URI is not registered for the client")
	}
	return NewResult(KeyRedirectURI, uri), nil
}
