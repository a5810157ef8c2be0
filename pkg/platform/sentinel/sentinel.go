// Package sentinel holds the errors stores return for facts about stored
// artifacts. Callers match them with errors.Is and decide the protocol error.
package sentinel

import "errors"

var (
	// ErrNotFound: no artifact with that identifier.
	ErrNotFound = errors.New("not found")
	// ErrConflict: the identifier is taken. Issuers retry with a fresh one.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyUsed: a single-use artifact was already consumed or revoked.
	ErrAlreadyUsed = errors.New("already used")
)
