// internal/service/signing/completion.go
package signing

import (
	"context"
	"encoding/json"

	"signroom-service/internal/domain/signing"
	xerrors "signroom-service/internal/pkg/errors"
	"signroom-service/internal/pkg/token"

	"go.uber.org/zap"
)

// CompleteSignature converts a pending session into an immutable signature
// record. The check-then-act is race-free: of N concurrent calls for the same
// session, exactly one wins the conditional pending->signed transition and
// produces a signature; every loser observes ErrAlreadyCompleted. The store's
// CompleteSession commits the transition and the signature append as one
// atomic unit, so a crash can never leave a signed session without its
// signature or vice versa.
func (s *Service) CompleteSignature(ctx context.Context, sessionID string, signatureData json.RawMessage, ipAddress, userAgent string) (*signing.Signature, error) {
	if len(signatureData) == 0 {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "signature_data is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case signing.SessionStatusExpired:
		return nil, xerrors.ErrExpired
	case signing.SessionStatusSigned:
		return nil, xerrors.ErrAlreadyCompleted
	case signing.SessionStatusCancelled:
		return nil, xerrors.ErrCancelled
	}

	if session.ExpiredAt(s.now()) {
		if err := s.expireLazily(ctx, session); err != nil {
			return nil, err
		}
		return nil, xerrors.ErrExpired
	}

	// The signature is fully built, hash included, before the store is asked
	// for the conditional transition: the digest is CPU work and must not sit
	// inside the store's exclusivity window.
	completedAt := s.now()
	sig := &signing.Signature{
		ID:            token.NewSignatureID(),
		SessionID:     session.ID,
		ContractID:    session.ContractID,
		SignerEmail:   session.SignerEmail,
		SignatureData: append(json.RawMessage(nil), signatureData...),
		Timestamp:     completedAt,
		IPAddress:     ipAddress,
		UserAgent:     userAgent,
	}
	sig.IntegrityHash = s.hasher.Compute(session.ContractSnapshot, sig.SignatureData, sig.Timestamp, session.ID)

	if err := s.sessions.CompleteSession(ctx, session.ID, sig); err != nil {
		if xerrors.Is(err, xerrors.ErrAlreadyCompleted) {
			s.logger.Info("completion lost race, signature already recorded",
				zap.String("session_id", session.ID),
			)
		}
		return nil, err
	}

	s.logger.Info("signature recorded",
		zap.String("signature_id", sig.ID),
		zap.String("session_id", session.ID),
		zap.String("contract_id", session.ContractID),
		zap.Time("timestamp", sig.Timestamp),
	)

	return sig, nil
}
