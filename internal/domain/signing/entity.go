// internal/domain/signing/entity.go
package signing

import (
	"encoding/json"
	"time"
)

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusSigned    SessionStatus = "signed"
	SessionStatusExpired   SessionStatus = "expired"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Terminal reports whether the status can never change again. A session moves
// forward through pending -> {signed|expired|cancelled} exactly once.
func (s SessionStatus) Terminal() bool {
	return s != SessionStatusPending
}

// SigningSession is a time-boxed, single-use capability granting one signer
// the ability to view and sign one contract snapshot. The ID doubles as the
// bearer token for the signer-facing path.
type SigningSession struct {
	ID               string          `json:"id" db:"id"`
	ContractID       string          `json:"contract_id" db:"contract_id"`
	SignerEmail      string          `json:"signer_email" db:"signer_email"`
	ContractSnapshot json.RawMessage `json:"contract_snapshot" db:"contract_snapshot"`
	Status           SessionStatus   `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`

	// Set exactly when status becomes signed, empty otherwise.
	CompletedSignatureID string `json:"completed_signature_id,omitempty" db:"completed_signature_id"`
}

// ExpiredAt reports whether the session's lifetime has elapsed as of now.
// The stored status may still say pending; expiration is enforced lazily on
// access, so callers check this on every read.
func (s *SigningSession) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Signature is the immutable legal record produced by completing a session.
// It is never updated or deleted; exactly one exists per signed session.
type Signature struct {
	ID            string          `json:"id" db:"id"`
	SessionID     string          `json:"session_id" db:"session_id"`
	ContractID    string          `json:"contract_id" db:"contract_id"`
	SignerEmail   string          `json:"signer_email" db:"signer_email"`
	SignatureData json.RawMessage `json:"signature_data" db:"signature_data"`

	// Server-assigned at completion, never client-supplied.
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	IPAddress string `json:"ip_address" db:"ip_address"`
	UserAgent string `json:"user_agent" db:"user_agent"`

	// Keyed digest over contractSnapshot, signatureData, timestamp and
	// sessionId. The key lives in server config, not in this record.
	IntegrityHash string `json:"integrity_hash" db:"integrity_hash"`
}
