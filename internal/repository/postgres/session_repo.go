// internal/repository/postgres/session_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"signroom-service/internal/domain/signing"
	xerrors "signroom-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create persists a new pending session
func (r *SessionRepository) Create(ctx context.Context, s *signing.SigningSession) error {
	query := `
		INSERT INTO signing_sessions (
			id, contract_id, signer_email, contract_snapshot,
			status, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		s.ID, s.ContractID, s.SignerEmail, []byte(s.ContractSnapshot),
		s.Status, s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		return unavailable("failed to create signing session", err)
	}
	return nil
}

// Get retrieves a session by its bearer token
func (r *SessionRepository) Get(ctx context.Context, id string) (*signing.SigningSession, error) {
	query := `
		SELECT id, contract_id, signer_email, contract_snapshot,
		       status, created_at, expires_at, COALESCE(completed_signature_id, '')
		FROM signing_sessions
		WHERE id = $1
	`

	var s signing.SigningSession
	var snapshot []byte

	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.ContractID, &s.SignerEmail, &snapshot,
		&s.Status, &s.CreatedAt, &s.ExpiresAt, &s.CompletedSignatureID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("failed to fetch signing session", err)
	}

	s.ContractSnapshot = snapshot
	return &s, nil
}

// MarkExpired applies the lazy pending -> expired transition. The conditional
// WHERE keeps it from ever moving a terminal session; zero rows affected
// means another transition won, which is fine.
func (r *SessionRepository) MarkExpired(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE signing_sessions SET status = $2 WHERE id = $1 AND status = $3`,
		id, signing.SessionStatusExpired, signing.SessionStatusPending,
	)
	if err != nil {
		return unavailable("failed to expire signing session", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the session is gone or already terminal; distinguish only
		// the missing case.
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// MarkCancelled applies pending -> cancelled, reporting the stored terminal
// state when the conditional update does not apply.
func (r *SessionRepository) MarkCancelled(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE signing_sessions SET status = $2 WHERE id = $1 AND status = $3`,
		id, signing.SessionStatusCancelled, signing.SessionStatusPending,
	)
	if err != nil {
		return unavailable("failed to cancel signing session", err)
	}
	if tag.RowsAffected() == 0 {
		return r.terminalStateError(ctx, id)
	}
	return nil
}

// CompleteSession commits pending -> signed and the signature insert in one
// transaction. The conditional UPDATE is the compare-and-swap: of any number
// of racing completions exactly one sees RowsAffected == 1; everyone else is
// told the session is already terminal and nothing is written.
func (r *SessionRepository) CompleteSession(ctx context.Context, id string, sig *signing.Signature) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return unavailable("failed to begin completion transaction", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE signing_sessions
		 SET status = $2, completed_signature_id = $3
		 WHERE id = $1 AND status = $4`,
		id, signing.SessionStatusSigned, sig.ID, signing.SessionStatusPending,
	)
	if err != nil {
		return unavailable("failed to transition signing session", err)
	}
	if tag.RowsAffected() == 0 {
		return r.terminalStateError(ctx, id)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO signatures (
			id, session_id, contract_id, signer_email, signature_data,
			signed_at, ip_address, user_agent, integrity_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sig.ID, sig.SessionID, sig.ContractID, sig.SignerEmail, []byte(sig.SignatureData),
		sig.Timestamp, sig.IPAddress, sig.UserAgent, sig.IntegrityHash,
	)
	if err != nil {
		return unavailable("failed to insert signature", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return unavailable("failed to commit completion", err)
	}
	return nil
}

func (r *SessionRepository) terminalStateError(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	switch s.Status {
	case signing.SessionStatusSigned:
		return xerrors.ErrAlreadyCompleted
	case signing.SessionStatusExpired:
		return xerrors.ErrExpired
	case signing.SessionStatusCancelled:
		return xerrors.ErrCancelled
	}
	// Pending again should be impossible; transitions never move backwards.
	return fmt.Errorf("conditional update on session %s did not apply: %w", id, xerrors.ErrInternal)
}

func unavailable(message string, err error) error {
	return fmt.Errorf("%w: %s: %v", xerrors.ErrUnavailable, message, err)
}
