// Package uuidutil converts between textual UUID identifiers and the 16-byte
// form kept in BINARY(16) columns.
package uuidutil

import (
	"strings"

	"github.com/google/uuid"
)

// Canonical returns the lower-case hyphenated form of a UUID given as text,
// raw 16 bytes or a uuid.UUID.
func Canonical(value any) (string, bool) {
	u, ok := parse(value)
	if !ok {
		return "", false
	}
	return u.String(), true
}

// ToColumn returns the RFC-order bytes to bind against a BINARY(16) column
// together with the canonical text form.
func ToColumn(value any) ([]byte, string, bool) {
	u, ok := parse(value)
	if !ok {
		return nil, "", false
	}
	out := make([]byte, len(u))
	copy(out, u[:])
	return out, u.String(), true
}

// FromColumn renders a BINARY(16) column value as canonical text. Values of any
// other length are returned unchanged with ok=false.
func FromColumn(raw []byte) (string, bool) {
	u, err := uuid.FromBytes(raw)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

func parse(value any) (uuid.UUID, bool) {
	switch v := value.(type) {
	case uuid.UUID:
		return v, true
	case string:
		u, err := uuid.Parse(strings.TrimSpace(v))
		return u, err == nil
	case []byte:
		if len(v) == 16 {
			u, err := uuid.FromBytes(v)
			return u, err == nil
		}
		u, err := uuid.ParseBytes(v)
		return u, err == nil
	default:
		return uuid.Nil, false
	}
}
