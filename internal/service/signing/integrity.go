// internal/service/signing/integrity.go
package signing

import (
	"context"

	"signroom-service/internal/domain/signing"
	xerrors "signroom-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// ValidateSignatureIntegrity recomputes the tamper-evidence digest for a
// stored signature and compares it against the recorded one. Read-only: no
// session or signature state changes. A mismatch reports which record is
// suspect without exposing the recomputation or the key.
func (s *Service) ValidateSignatureIntegrity(ctx context.Context, signatureID string) (*signing.IntegrityResult, error) {
	sig, err := s.signatures.Get(ctx, signatureID)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Get(ctx, sig.SessionID)
	if err != nil {
		if !xerrors.Is(err, xerrors.ErrNotFound) {
			return nil, err
		}
		// The signature points at a session that no longer resolves; the
		// bound contract snapshot cannot be checked, so the record cannot be
		// vouched for.
		s.logger.Warn("signature references unresolvable session",
			zap.String("signature_id", sig.ID),
			zap.String("session_id", sig.SessionID),
		)
		return &signing.IntegrityResult{
			Valid:  false,
			Reason: "bound session record is missing",
		}, nil
	}

	if !s.hasher.Verify(session.ContractSnapshot, sig.SignatureData, sig.Timestamp, sig.SessionID, sig.IntegrityHash) {
		s.logger.Warn("signature integrity check failed",
			zap.String("signature_id", sig.ID),
			zap.String("contract_id", sig.ContractID),
		)
		return &signing.IntegrityResult{
			Valid:  false,
			Reason: "stored integrity hash does not match the bound fields",
		}, nil
	}

	return &signing.IntegrityResult{
		Valid:     true,
		Signature: sig,
	}, nil
}
