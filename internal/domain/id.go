package domain

import (
	"github.com/google/uuid"
)

// NewID returns a fresh identifier for a stored record. Identifiers are
// UUIDv7, so their string form sorts in creation order.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ParseID normalizes id and reports ErrInvalidID when it is not a well-formed
// identifier.
func ParseID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", ErrInvalidID
	}
	return parsed.String(), nil
}
