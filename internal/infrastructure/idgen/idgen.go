// Package idgen produces entity identifiers and random payment keys.
package idgen

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates ULID-based IDs.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}

// UUIDKeyGenerator generates random payment keys.
type UUIDKeyGenerator struct{}

// NewUUIDKeyGenerator creates a new UUIDKeyGenerator.
func NewUUIDKeyGenerator() *UUIDKeyGenerator {
	return &UUIDKeyGenerator{}
}

// NewKey returns a random version 4 UUID.
func (g *UUIDKeyGenerator) NewKey() string {
	return uuid.NewString()
}
