/*
Package randx provides generators for unique identifiers.

It is used to label live connections, to mint anonymous identities for guests
that connect without a valid credential, and to produce Proof-of-Work nonces.
*/
package randx

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

const (
	// AnonymousPrefix is the prefix of every generated guest identity.
	AnonymousPrefix = "anonymous-"
)

// anonymousSeq is the process-wide counter behind AnonymousIdentity.
var anonymousSeq atomic.Uint64

// AnonymousIdentity returns a guest identity that has never been returned before
// in this process. Uniqueness comes from a monotonic counter, so two live
// connections can never collide in the registry.
func AnonymousIdentity() string {
	return AnonymousPrefix + strconv.FormatUint(anonymousSeq.Add(1), 10)
}

// IsAnonymousIdentity reports whether the identity was produced by AnonymousIdentity.
func IsAnonymousIdentity(identity string) bool {
	rest, ok := strings.CutPrefix(identity, AnonymousPrefix)
	if !ok || rest == "" {
		return false
	}

	_, err := strconv.ParseUint(rest, 10, 64)
	return err == nil
}

// IsReservedIdentity reports whether name falls in the namespace of generated
// guest identities, so no account may be registered or authenticated under it.
func IsReservedIdentity(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), AnonymousPrefix)
}

// ConnectionID generates a standard UUID v4 string identifying a single transport connection.
func ConnectionID() string {
	return uuid.New().String()
}

// Nonce generates a random UUID v4 string for challenge/response flows.
func Nonce() string {
	return uuid.New().String()
}
