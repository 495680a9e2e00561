// internal/repository/postgres/signature_repo.go
package postgres

import (
	"context"
	"errors"

	"signroom-service/internal/domain/signing"
	xerrors "signroom-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SignatureRepository reads the append-only signature records. Inserts happen
// only inside SessionRepository.CompleteSession, together with the session's
// terminal transition.
type SignatureRepository struct {
	db *pgxpool.Pool
}

func NewSignatureRepository(db *pgxpool.Pool) *SignatureRepository {
	return &SignatureRepository{db: db}
}

// Get retrieves a signature by ID
func (r *SignatureRepository) Get(ctx context.Context, id string) (*signing.Signature, error) {
	query := `
		SELECT id, session_id, contract_id, signer_email, signature_data,
		       signed_at, ip_address, user_agent, integrity_hash
		FROM signatures
		WHERE id = $1
	`

	var sig signing.Signature
	var data []byte

	err := r.db.QueryRow(ctx, query, id).Scan(
		&sig.ID, &sig.SessionID, &sig.ContractID, &sig.SignerEmail, &data,
		&sig.Timestamp, &sig.IPAddress, &sig.UserAgent, &sig.IntegrityHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("failed to fetch signature", err)
	}

	sig.SignatureData = data
	return &sig, nil
}

// ListByContract retrieves all signatures for a contract, oldest first
func (r *SignatureRepository) ListByContract(ctx context.Context, contractID string) ([]*signing.Signature, error) {
	query := `
		SELECT id, session_id, contract_id, signer_email, signature_data,
		       signed_at, ip_address, user_agent, integrity_hash
		FROM signatures
		WHERE contract_id = $1
		ORDER BY signed_at
	`

	rows, err := r.db.Query(ctx, query, contractID)
	if err != nil {
		return nil, unavailable("failed to list signatures", err)
	}
	defer rows.Close()

	out := make([]*signing.Signature, 0)
	for rows.Next() {
		var sig signing.Signature
		var data []byte
		if err := rows.Scan(
			&sig.ID, &sig.SessionID, &sig.ContractID, &sig.SignerEmail, &data,
			&sig.Timestamp, &sig.IPAddress, &sig.UserAgent, &sig.IntegrityHash,
		); err != nil {
			return nil, unavailable("failed to scan signature", err)
		}
		sig.SignatureData = data
		out = append(out, &sig)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("failed to iterate signatures", err)
	}
	return out, nil
}
