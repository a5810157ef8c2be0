package oautherr

import (
	"fmt"
	"net/http"
)

func InvalidRequest(param, hint string) *Error {
	if hint == "" {
		hint = fmt.Sprintf("Check the `%s` parameter", param)
	}
	return &Error{
		Code:        CodeInvalidRequest,
		Description: "The request is missing a required parameter, includes an invalid parameter value, includes a parameter more than once, or is otherwise malformed.",
		Hint:        hint,
		HTTPStatus:  http.StatusBadRequest,
	}
}

func InvalidClient(hint string) *Error {
	return &Error{
		Code:        CodeInvalidClient,
		Description: "Client authentication failed",
		Hint:        hint,
		HTTPStatus:  http.StatusUnauthorized,
	}
}

func InvalidScope(scope string) *Error {
	return &Error{
		Code:        CodeInvalidScope,
		Description: "The requested scope is invalid, unknown, or malformed",
		Hint:        fmt.Sprintf("Check the `%s` scope", scope),
		HTTPStatus:  http.StatusBadRequest,
	}
}

func InvalidGrant(hint string) *Error {
	return &Error{
		Code:        CodeInvalidGrant,
		Description: "The provided authorization grant (e.g., authorization code, resource owner credentials) or refresh token is invalid, expired, revoked, does not match the redirection URI used in the authorization request, or was issued to another client.",
		Hint:        hint,
		HTTPStatus:  http.StatusBadRequest,
	}
}

func UnsupportedGrantType() *Error {
	return &Error{
		Code:        CodeUnsupportedGrantType,
		Description: "The authorization grant type is not supported by the authorization server.",
		Hint:        "Check that all required parameters have been provided",
		HTTPStatus:  http.StatusBadRequest,
	}
}

func UnsupportedResponseType(responseType string) *Error {
	return &Error{
		Code:        CodeUnsupportedResponseType,
		Description: "The authorization server does not support obtaining a response using this method.",
		Hint:        fmt.Sprintf("Response type `%s` is not supported", responseType),
		HTTPStatus:  http.StatusBadRequest,
	}
}

func AccessDenied(hint string) *Error {
	return &Error{
		Code:        CodeAccessDenied,
		Description: "The resource owner or authorization server denied the request.",
		Hint:        hint,
		HTTPStatus:  http.StatusUnauthorized,
	}
}

func ServerError(hint string) *Error {
	return &Error{
		Code:        CodeServerError,
		Description: "The authorization server encountered an unexpected condition which prevented it from fulfilling the request.",
		Hint:        hint,
		HTTPStatus:  http.StatusInternalServerError,
	}
}

func LoginRequired(hint string) *Error {
	return &Error{
		Code:        CodeLoginRequired,
		Description: "End-User is not already authenticated.",
		Hint:        hint,
		HTTPStatus:  http.StatusBadRequest,
	}
}

func InteractionRequired(hint string) *Error {
	return &Error{
		Code:        CodeInteractionRequired,
		Description: "End-User interaction is required.",
		Hint:        hint,
		HTTPStatus:  http.StatusBadRequest,
	}
}

func RequestNotSupported(hint string) *Error {
	return &Error{
		Code:        CodeRequestNotSupported,
		Description: "Request object not supported.",
		Hint:        hint,
		HTTPStatus:  http.StatusBadRequest,
	}
}

// InvalidToken is the bearer token error of protected resources such as the
// userinfo endpoint.
func InvalidToken(hint string) *Error {
	return &Error{
		Code:        CodeInvalidToken,
		Description: "The access token provided is expired, revoked, malformed, or invalid for other reasons.",
		Hint:        hint,
		HTTPStatus:  http.StatusUnauthorized,
	}
}
