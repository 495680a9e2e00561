// internal/pkg/integrity/integrity.go
package integrity

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"
)

// Hasher computes and verifies the tamper-evidence digest stored with each
// signature. The digest binds the contract snapshot, the signature payload,
// the server-assigned completion time and the session id, keyed with a
// server-held secret that never appears in the stored record. Altering any
// bound field after the fact invalidates the digest.
type Hasher struct {
	key []byte
}

const hkdfInfo = "signroom/signature-integrity/v1"

// NewHasher derives the HMAC key from the configured master secret. The
// derivation is deterministic, so every process sharing the secret verifies
// the same digests.
func NewHasher(masterSecret []byte) (*Hasher, error) {
	if len(masterSecret) < 16 {
		return nil, fmt.Errorf("integrity secret too short: need at least 16 bytes, got %d", len(masterSecret))
	}
	r := hkdf.New(sha256.New, masterSecret, nil, []byte(hkdfInfo))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive integrity key: %w", err)
	}
	return &Hasher{key: key}, nil
}

// CanonicalTimestamp renders a completion time the one way the digest uses:
// RFC3339 with nanoseconds, always UTC with a trailing Z.
func CanonicalTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Compute returns the hex digest binding the given fields. Each field is
// length-prefixed before hashing so byte boundaries cannot be shifted
// between fields to forge a colliding input.
func (h *Hasher) Compute(contractSnapshot, signatureData []byte, timestamp time.Time, sessionID string) string {
	mac := hmac.New(sha256.New, h.key)
	writeField(mac, contractSnapshot)
	writeField(mac, signatureData)
	writeField(mac, []byte(CanonicalTimestamp(timestamp)))
	writeField(mac, []byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the digest and compares it against the stored value in
// constant time.
func (h *Hasher) Verify(contractSnapshot, signatureData []byte, timestamp time.Time, sessionID, storedHash string) bool {
	expected := h.Compute(contractSnapshot, signatureData, timestamp, sessionID)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(storedHash)) == 1
}

func writeField(w io.Writer, b []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	w.Write(n[:])
	w.Write(b)
}
