// internal/pkg/token/token.go
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// sessionTokenBytes is the entropy of a session token. 32 bytes keeps the
// token comfortably unguessable; the token is the only credential a signer
// needs, so it must never be derivable from contract or signer data.
const sessionTokenBytes = 32

// NewSessionToken returns a URL-safe bearer token for a signing session.
func NewSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewSignatureID returns a ULID for a signature record. Signature ids are
// record identifiers, not capabilities, so sortable ULIDs are fine here.
func NewSignatureID() string {
	return ulid.Make().String()
}
