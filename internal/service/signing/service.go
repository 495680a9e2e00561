// internal/service/signing/service.go
package signing

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"signroom-service/internal/domain/signing"
	xerrors "signroom-service/internal/pkg/errors"
	"signroom-service/internal/pkg/integrity"
	"signroom-service/internal/pkg/token"

	"go.uber.org/zap"
)

// DefaultSessionLifetime is used when the config does not override it.
const DefaultSessionLifetime = 7 * 24 * time.Hour

var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service issues signing sessions, completes them into signatures, and
// re-validates stored signatures on demand.
type Service struct {
	sessions   SessionStore
	signatures SignatureStore
	hasher     *integrity.Hasher
	lifetime   time.Duration
	logger     *zap.Logger

	// injectable for deterministic expiry tests
	now func() time.Time
}

func NewService(sessions SessionStore, signatures SignatureStore, hasher *integrity.Hasher, lifetime time.Duration, logger *zap.Logger) *Service {
	if lifetime <= 0 {
		lifetime = DefaultSessionLifetime
	}
	return &Service{
		sessions:   sessions,
		signatures: signatures,
		hasher:     hasher,
		lifetime:   lifetime,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateSession mints a new pending session for a contract. The returned
// record carries the bearer token the caller turns into a signer-facing link;
// delivering that link (email etc.) is the caller's job, not this service's.
func (s *Service) CreateSession(ctx context.Context, req *signing.CreateSessionRequest) (*signing.SigningSession, error) {
	contractID := strings.TrimSpace(req.ContractID)
	if contractID == "" {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "contract_id is required")
	}

	signerEmail := strings.ToLower(strings.TrimSpace(req.SignerEmail))
	if !emailShape.MatchString(signerEmail) {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "signer_email is not a valid email address")
	}

	if len(req.ContractSnapshot) == 0 {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "contract_snapshot is required")
	}

	id, err := token.NewSessionToken()
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to generate session token")
	}

	now := s.now()
	session := &signing.SigningSession{
		ID:               id,
		ContractID:       contractID,
		SignerEmail:      signerEmail,
		ContractSnapshot: append(json.RawMessage(nil), req.ContractSnapshot...),
		Status:           signing.SessionStatusPending,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.lifetime),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		s.logger.Error("failed to persist signing session",
			zap.String("contract_id", contractID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("signing session created",
		zap.String("session_id", session.ID),
		zap.String("contract_id", session.ContractID),
		zap.Time("expires_at", session.ExpiresAt),
	)

	return session, nil
}

// GetSession returns the session for a bearer token. A pending session past
// its lifetime is expired lazily: the terminal status is persisted before the
// Expired error is returned, so expiry is always consistent with the time of
// this call rather than some sweeper's schedule.
func (s *Service) GetSession(ctx context.Context, id string) (*signing.SigningSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.Status == signing.SessionStatusExpired {
		return nil, xerrors.ErrExpired
	}

	if session.Status == signing.SessionStatusPending && session.ExpiredAt(s.now()) {
		if err := s.expireLazily(ctx, session); err != nil {
			return nil, err
		}
		return nil, xerrors.ErrExpired
	}

	return session, nil
}

// CancelSession is the staff-side terminal transition. Cancelling an already
// cancelled session is a no-op; signed and expired sessions report their own
// terminal state.
func (s *Service) CancelSession(ctx context.Context, id string) error {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return err
	}

	switch session.Status {
	case signing.SessionStatusSigned:
		return xerrors.ErrAlreadyCompleted
	case signing.SessionStatusExpired:
		return xerrors.ErrExpired
	case signing.SessionStatusCancelled:
		return nil
	}

	if session.ExpiredAt(s.now()) {
		if err := s.expireLazily(ctx, session); err != nil {
			return err
		}
		return xerrors.ErrExpired
	}

	if err := s.sessions.MarkCancelled(ctx, id); err != nil {
		return err
	}

	s.logger.Info("signing session cancelled",
		zap.String("session_id", id),
		zap.String("contract_id", session.ContractID),
	)
	return nil
}

// GetContractSignatures returns every signature recorded for a contract, in
// no guaranteed order. No signatures is an empty list, not an error.
func (s *Service) GetContractSignatures(ctx context.Context, contractID string) ([]*signing.Signature, error) {
	if strings.TrimSpace(contractID) == "" {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "contract_id is required")
	}
	sigs, err := s.signatures.ListByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if sigs == nil {
		sigs = []*signing.Signature{}
	}
	return sigs, nil
}

func (s *Service) expireLazily(ctx context.Context, session *signing.SigningSession) error {
	if err := s.sessions.MarkExpired(ctx, session.ID); err != nil {
		s.logger.Error("failed to persist lazy expiration",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
		return err
	}
	s.logger.Info("signing session expired lazily",
		zap.String("session_id", session.ID),
		zap.Time("expired_at", session.ExpiresAt),
	)
	return nil
}
