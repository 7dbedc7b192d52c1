package id

import "github.com/google/uuid"

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

// UUID generates random version 4 identifiers.
type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}
