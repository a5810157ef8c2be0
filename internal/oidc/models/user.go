package models

import (
	"maps"
	"time"
)

// User is the authenticated subject as seen by the token layer: an identifier
// plus the attribute set released by the authentication source.
type User struct {
	ID         string
	Attributes map[string][]string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewUser(id string, attributes map[string][]string, now time.Time) *User {
	return &User{
		ID:         id,
		Attributes: maps.Clone(attributes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Subject is handed over by the authentication collaborator once the end user
// has logged in.
type Subject struct {
	ID          string
	Attributes  map[string][]string
	AuthInstant time.Time
	ACR         string
}
