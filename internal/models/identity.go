package models

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-authgate/tokenstore/internal/util"
)

// ErrInvalidIdentity is returned when an identity is neither a string nor an integer.
var ErrInvalidIdentity = errors.New("identity must be a string or integer")

// IdentityKind tags the variant held by an Identity.
type IdentityKind uint8

const (
	IdentityNone IdentityKind = iota
	IdentityString
	IdentityInteger
)

func (k IdentityKind) String() string {
	switch k {
	case IdentityString:
		return "string"
	case IdentityInteger:
		return "integer"
	default:
		return "none"
	}
}

// Identity is the resource owner a token was issued for: either a string or
// an integer. Both variants share the same storage form, so StringIdentity("42")
// and IntegerIdentity(42) address the same tokens.
type Identity struct {
	kind  IdentityKind
	value string
}

// StringIdentity returns a string-valued identity.
func StringIdentity(s string) Identity {
	return Identity{kind: IdentityString, value: s}
}

// IntegerIdentity returns an integer-valued identity.
func IntegerIdentity(n int64) Identity {
	return Identity{kind: IdentityInteger, value: strconv.FormatInt(n, 10)}
}

// ParseIdentity converts a caller-supplied value into an Identity.
// Strings and every Go integer kind are accepted; anything else yields ErrInvalidIdentity.
func ParseIdentity(v any) (Identity, error) {
	switch id := v.(type) {
	case Identity:
		if id.kind == IdentityNone {
			return Identity{}, ErrInvalidIdentity
		}
		return id, nil
	case string:
		return StringIdentity(id), nil
	case int:
		return IntegerIdentity(int64(id)), nil
	case int8:
		return IntegerIdentity(int64(id)), nil
	case int16:
		return IntegerIdentity(int64(id)), nil
	case int32:
		return IntegerIdentity(int64(id)), nil
	case int64:
		return IntegerIdentity(id), nil
	case uint:
		return Identity{kind: IdentityInteger, value: strconv.FormatUint(uint64(id), 10)}, nil
	case uint8:
		return Identity{kind: IdentityInteger, value: strconv.FormatUint(uint64(id), 10)}, nil
	case uint16:
		return Identity{kind: IdentityInteger, value: strconv.FormatUint(uint64(id), 10)}, nil
	case uint32:
		return Identity{kind: IdentityInteger, value: strconv.FormatUint(uint64(id), 10)}, nil
	case uint64:
		return Identity{kind: IdentityInteger, value: strconv.FormatUint(id, 10)}, nil
	default:
		return Identity{}, fmt.Errorf("%w: got %T", ErrInvalidIdentity, v)
	}
}

// Kind returns the variant of the identity.
func (i Identity) Kind() IdentityKind {
	return i.kind
}

// String returns the storage form of the identity.
func (i Identity) String() string {
	return i.value
}

// GrantKey derives the unique key for an active (identity, client, scope) grant.
func GrantKey(identity Identity, clientID uint, scope string) string {
	return util.SHA256Hex(fmt.Sprintf("%s\x00%d\x00%s", identity.value, clientID, scope))
}
