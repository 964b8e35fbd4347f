// Package id generates identifiers that are unique across runs.
package id

import "github.com/rs/xid"

// IDGenerator can generate IDs.
type IDGenerator interface {
	Generate() string
}

// NewGlobalIDGenerator returns a generator whose IDs are unique across runs.
func NewGlobalIDGenerator() IDGenerator {
	return globalIDGenerator{}
}

type globalIDGenerator struct {
}

func (g globalIDGenerator) Generate() string {
	return xid.New().String()
}
