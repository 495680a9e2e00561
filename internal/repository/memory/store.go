// internal/repository/memory/store.go
package memory

import (
	"context"
	"sort"
	"sync"

	"signroom-service/internal/domain/signing"
	xerrors "signroom-service/internal/pkg/errors"
)

// Store is the in-memory reference implementation of the session and
// signature stores. It mirrors the guarantees the postgres repositories get
// from conditional UPDATEs: every state transition is a compare-and-swap
// under a per-session lock, and completion appends the signature inside the
// same critical section.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*signing.SigningSession
	signatures map[string]*signing.Signature
	byContract map[string][]string

	locks sync.Map // session id -> *sync.Mutex
}

func NewStore() *Store {
	return &Store{
		sessions:   make(map[string]*signing.SigningSession),
		signatures: make(map[string]*signing.Signature),
		byContract: make(map[string][]string),
	}
}

func (s *Store) sessionLock(id string) *sync.Mutex {
	l, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return l.(*sync.Mutex)
}

func (s *Store) Create(ctx context.Context, session *signing.SigningSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "session id already exists")
	}
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*signing.SigningSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *session
	return &cp, nil
}

func (s *Store) MarkExpired(ctx context.Context, id string) error {
	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	// Losing the race to another transition is fine; the record is terminal
	// either way.
	if session.Status == signing.SessionStatusPending {
		session.Status = signing.SessionStatusExpired
	}
	return nil
}

func (s *Store) MarkCancelled(ctx context.Context, id string) error {
	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	switch session.Status {
	case signing.SessionStatusSigned:
		return xerrors.ErrAlreadyCompleted
	case signing.SessionStatusExpired:
		return xerrors.ErrExpired
	case signing.SessionStatusCancelled:
		return xerrors.ErrCancelled
	}
	session.Status = signing.SessionStatusCancelled
	return nil
}

func (s *Store) CompleteSession(ctx context.Context, id string, sig *signing.Signature) error {
	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	switch session.Status {
	case signing.SessionStatusSigned:
		return xerrors.ErrAlreadyCompleted
	case signing.SessionStatusExpired:
		return xerrors.ErrExpired
	case signing.SessionStatusCancelled:
		return xerrors.ErrCancelled
	}

	// pending -> signed and the signature append, one critical section.
	session.Status = signing.SessionStatusSigned
	session.CompletedSignatureID = sig.ID

	cp := *sig
	s.signatures[sig.ID] = &cp
	s.byContract[sig.ContractID] = append(s.byContract[sig.ContractID], sig.ID)
	return nil
}

func (s *Store) GetSignature(ctx context.Context, id string) (*signing.Signature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig, ok := s.signatures[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *sig
	return &cp, nil
}

func (s *Store) ListByContract(ctx context.Context, contractID string) ([]*signing.Signature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byContract[contractID]
	out := make([]*signing.Signature, 0, len(ids))
	for _, id := range ids {
		cp := *s.signatures[id]
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Signatures adapts the store to the read-only signature interface so the
// same instance can back both store dependencies.
func (s *Store) Signatures() *SignatureReader {
	return &SignatureReader{store: s}
}

type SignatureReader struct {
	store *Store
}

func (r *SignatureReader) Get(ctx context.Context, id string) (*signing.Signature, error) {
	return r.store.GetSignature(ctx, id)
}

func (r *SignatureReader) ListByContract(ctx context.Context, contractID string) ([]*signing.Signature, error) {
	return r.store.ListByContract(ctx, contractID)
}
