package models

// AuthCodePayload is the self-describing content of an authorization code.
// It is sealed before it leaves the server and opened again on redemption.
type AuthCodePayload struct {
	ClientID            string         `json:"client_id"`
	RedirectURI         string         `json:"redirect_uri"`
	AuthCodeID          string         `json:"auth_code_id"`
	Scopes              []string       `json:"scopes"`
	UserID              string         `json:"user_id"`
	ExpireTime          int64          `json:"expire_time"`
	CodeChallenge       string         `json:"code_challenge"`
	CodeChallengeMethod string         `json:"code_challenge_method"`
	Nonce               string         `json:"nonce"`
	Claims              *ClaimsRequest `json:"claims,omitempty"`
	ACR                 string         `json:"acr,omitempty"`
	AuthTime            int64          `json:"auth_time,omitempty"`
	OfflineAccess       bool           `json:"offline_access,omitempty"`
}

// RefreshTokenPayload is the sealed content of a refresh token.
type RefreshTokenPayload struct {
	ClientID       string   `json:"client_id"`
	RefreshTokenID string   `json:"refresh_token_id"`
	AccessTokenID  string   `json:"access_token_id"`
	Scopes         []string `json:"scopes"`
	UserID         string   `json:"user_id"`
	ExpireTime     int64    `json:"expire_time"`
	AuthCodeID     string   `json:"auth_code_id,omitempty"`
}
