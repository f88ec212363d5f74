// ABOUTME: Identifier and token generation for stored records
// ABOUTME: Record IDs are prefix plus ULID; upload tokens are random UUIDs
package db

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ID prefixes per table.
const (
	PrefixClient = "CLI"
	PrefixEntity = "ENT"
	PrefixTask   = "TSK"
)

// NewID returns a fresh identifier such as "TSK-01HZX3...".
func NewID(prefix string) string {
	return prefix + "-" + ulid.Make().String()
}

// NewUploadToken returns an opaque random token for a task's public portal.
func NewUploadToken() string {
	return uuid.NewString()
}
