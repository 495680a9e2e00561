// internal/service/signing/store.go
package signing

import (
	"context"

	"signroom-service/internal/domain/signing"
)

// SessionStore is the durable home of SigningSession records. Implementations
// must make the conditional transitions atomic: a transition applies only if
// the stored record still shows status=pending, and two racing callers must
// never both observe success.
type SessionStore interface {
	Create(ctx context.Context, session *signing.SigningSession) error
	Get(ctx context.Context, id string) (*signing.SigningSession, error)

	// MarkExpired applies the lazy pending->expired transition. Losing a race
	// against another transition is not an error; the caller re-reads if it
	// needs the winning state.
	MarkExpired(ctx context.Context, id string) error

	// MarkCancelled applies pending->cancelled. Returns ErrAlreadyCompleted,
	// ErrExpired or ErrCancelled when the session is already terminal.
	MarkCancelled(ctx context.Context, id string) error

	// CompleteSession commits the pending->signed transition and appends the
	// signature record as one atomic unit. On a lost race or a terminal
	// session it returns the sentinel matching the stored status and writes
	// nothing.
	CompleteSession(ctx context.Context, id string, sig *signing.Signature) error
}

// SignatureStore reads the append-only signature records. Writes happen only
// through SessionStore.CompleteSession, which is what keeps "exactly one
// signature per signed session" enforceable.
type SignatureStore interface {
	Get(ctx context.Context, id string) (*signing.Signature, error)
	ListByContract(ctx context.Context, contractID string) ([]*signing.Signature, error)
}
