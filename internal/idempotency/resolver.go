package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// Source records how a key was obtained, mostly for log lines.
type Source string

const (
	SourceClient  Source = "client"
	SourceDerived Source = "derived"
	SourceRandom  Source = "random"
)

// Resolution is the outcome of resolving a key for one upload attempt.
type Resolution struct {
	Key    string
	Source Source
}

// ErrInvalidKey indicates a client-supplied key failed shape validation.
type ErrInvalidKey struct {
	Reason string
}

func (e *ErrInvalidKey) Error() string {
	return fmt.Sprintf("invalid idempotency key: %s", e.Reason)
}

// keyPattern bounds length and restricts to characters that are safe inside
// object names and log lines.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{8,128}$`)

// Resolver produces a stable key for one logical upload attempt.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the idempotency key for an upload.
//
// If the client supplied a key it is validated and used verbatim; the client
// is trusted for deduplication purposes. Otherwise the key is derived from a
// SHA-256 over the payload bytes plus the (team, location) context, so an
// identical retry without a client key still converges on the same key.
//
// If the payload is not available for hashing (nil), a random key is issued;
// retries of such a call will not dedupe.
func (r *Resolver) Resolve(clientKey string, payload []byte, team, location string) (Resolution, error) {
	if clientKey != "" {
		if !keyPattern.MatchString(clientKey) {
			return Resolution{}, &ErrInvalidKey{Reason: "must be 8-128 chars of [A-Za-z0-9._-]"}
		}
		return Resolution{Key: clientKey, Source: SourceClient}, nil
	}

	if payload == nil {
		return Resolution{Key: uuid.NewString(), Source: SourceRandom}, nil
	}

	return Resolution{Key: Derive(payload, team, location), Source: SourceDerived}, nil
}

// Derive computes the deterministic key for a buffered payload. The context
// identifiers are length-prefixed into the hash input so ("ab","c") and
// ("a","bc") cannot collide.
func Derive(payload []byte, team, location string) string {
	h := sha256.New()
	h.Write(payload)
	fmt.Fprintf(h, "\x00%d:%s\x00%d:%s", len(team), team, len(location), location)
	return hex.EncodeToString(h.Sum(nil))
}
