// internal/domain/signing/dto.go
package signing

import (
	"encoding/json"
	"time"
)

type CreateSessionRequest struct {
	ContractID       string          `json:"contract_id" binding:"required"`
	SignerEmail      string          `json:"signer_email" binding:"required"`
	ContractSnapshot json.RawMessage `json:"contract_snapshot" binding:"required"`
}

type CompleteSignatureRequest struct {
	SignatureData json.RawMessage `json:"signature_data" binding:"required"`
}

// SessionView is the signer-facing projection of a session. It carries the
// snapshot (the signer must see what they agree to) but not internal fields.
type SessionView struct {
	ID               string          `json:"id"`
	ContractID       string          `json:"contract_id"`
	SignerEmail      string          `json:"signer_email"`
	ContractSnapshot json.RawMessage `json:"contract_snapshot"`
	Status           SessionStatus   `json:"status"`
	ExpiresAt        time.Time       `json:"expires_at"`
}

// SessionDescriptor is the staff-facing creation result: enough to build the
// signer link, without echoing the snapshot back.
type SessionDescriptor struct {
	ID          string        `json:"id"`
	ContractID  string        `json:"contract_id"`
	SignerEmail string        `json:"signer_email"`
	Status      SessionStatus `json:"status"`
	ExpiresAt   time.Time     `json:"expires_at"`
}

// SignatureReceipt is returned to the signer after a successful completion.
type SignatureReceipt struct {
	ID          string    `json:"id"`
	ContractID  string    `json:"contract_id"`
	SignerEmail string    `json:"signer_email"`
	Timestamp   time.Time `json:"timestamp"`
}

// SignatureView is the staff-facing audit listing entry.
type SignatureView struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	SignerEmail string    `json:"signer_email"`
	Timestamp   time.Time `json:"timestamp"`
	IPAddress   string    `json:"ip_address"`
	UserAgent   string    `json:"user_agent"`
}

// IntegrityResult is the outcome of re-validating a stored signature.
type IntegrityResult struct {
	Valid     bool       `json:"valid"`
	Signature *Signature `json:"signature,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

func (s *SigningSession) View() *SessionView {
	return &SessionView{
		ID:               s.ID,
		ContractID:       s.ContractID,
		SignerEmail:      s.SignerEmail,
		ContractSnapshot: s.ContractSnapshot,
		Status:           s.Status,
		ExpiresAt:        s.ExpiresAt,
	}
}

func (s *SigningSession) Descriptor() *SessionDescriptor {
	return &SessionDescriptor{
		ID:          s.ID,
		ContractID:  s.ContractID,
		SignerEmail: s.SignerEmail,
		Status:      s.Status,
		ExpiresAt:   s.ExpiresAt,
	}
}

func (sig *Signature) Receipt() *SignatureReceipt {
	return &SignatureReceipt{
		ID:          sig.ID,
		ContractID:  sig.ContractID,
		SignerEmail: sig.SignerEmail,
		Timestamp:   sig.Timestamp,
	}
}

func (sig *Signature) View() *SignatureView {
	return &SignatureView{
		ID:          sig.ID,
		SessionID:   sig.SessionID,
		SignerEmail: sig.SignerEmail,
		Timestamp:   sig.Timestamp,
		IPAddress:   sig.IPAddress,
		UserAgent:   sig.UserAgent,
	}
}
