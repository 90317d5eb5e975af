package idgen

import "github.com/google/uuid"

// NewID generates a new UUIDv7, falling back to v4 on the (effectively
// unreachable) entropy-read failure path.
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
