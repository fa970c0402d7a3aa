package utils

import "github.com/google/uuid"

// UUIDGenerator produces time-ordered document identifiers. UUIDv7 keeps ids
// roughly sortable by creation time, which keeps sqlite index pages warm for
// recently created documents.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
