package signing

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	domain "signroom-service/internal/domain/signing"
	xerrors "signroom-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tamperableStore holds records as raw pointers so tests can alter stored
// bytes out-of-band, the way a compromised datastore would.
type tamperableStore struct {
	sessions   map[string]*domain.SigningSession
	signatures map[string]*domain.Signature
}

func newTamperableStore() *tamperableStore {
	return &tamperableStore{
		sessions:   make(map[string]*domain.SigningSession),
		signatures: make(map[string]*domain.Signature),
	}
}

func (f *tamperableStore) Create(ctx context.Context, s *domain.SigningSession) error {
	f.sessions[s.ID] = s
	return nil
}

func (f *tamperableStore) Get(ctx context.Context, id string) (*domain.SigningSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return s, nil
}

func (f *tamperableStore) MarkExpired(ctx context.Context, id string) error {
	f.sessions[id].Status = domain.SessionStatusExpired
	return nil
}

func (f *tamperableStore) MarkCancelled(ctx context.Context, id string) error {
	f.sessions[id].Status = domain.SessionStatusCancelled
	return nil
}

func (f *tamperableStore) CompleteSession(ctx context.Context, id string, sig *domain.Signature) error {
	s, ok := f.sessions[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	if s.Status != domain.SessionStatusPending {
		return xerrors.ErrAlreadyCompleted
	}
	s.Status = domain.SessionStatusSigned
	s.CompletedSignatureID = sig.ID
	f.signatures[sig.ID] = sig
	return nil
}

func (f *tamperableStore) GetSignature(ctx context.Context, id string) (*domain.Signature, error) {
	sig, ok := f.signatures[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return sig, nil
}

func (f *tamperableStore) ListByContract(ctx context.Context, contractID string) ([]*domain.Signature, error) {
	var out []*domain.Signature
	for _, sig := range f.signatures {
		if sig.ContractID == contractID {
			out = append(out, sig)
		}
	}
	return out, nil
}

type tamperableSignatures struct{ store *tamperableStore }

func (r tamperableSignatures) Get(ctx context.Context, id string) (*domain.Signature, error) {
	return r.store.GetSignature(ctx, id)
}

func (r tamperableSignatures) ListByContract(ctx context.Context, contractID string) ([]*domain.Signature, error) {
	return r.store.ListByContract(ctx, contractID)
}

func newTamperableService(t *testing.T) (*Service, *tamperableStore) {
	t.Helper()
	store := newTamperableStore()
	svc, _ := newTestService(t)
	svc.sessions = store
	svc.signatures = tamperableSignatures{store: store}
	return svc, store
}

func completeOne(t *testing.T, svc *Service) *domain.Signature {
	t.Helper()
	ctx := context.Background()
	session, err := svc.CreateSession(ctx, validCreateRequest())
	require.NoError(t, err)
	sig, err := svc.CompleteSignature(ctx, session.ID, []byte(`"A. Signer"`), "203.0.113.7", "ua")
	require.NoError(t, err)
	return sig
}

func TestValidateSignatureIntegrityValid(t *testing.T) {
	svc, _ := newTamperableService(t)
	sig := completeOne(t, svc)

	result, err := svc.ValidateSignatureIntegrity(context.Background(), sig.ID)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	require.NotNil(t, result.Signature)
	assert.Equal(t, sig.ID, result.Signature.ID)
	assert.Empty(t, result.Reason)
}

func TestValidateSignatureIntegrityNotFound(t *testing.T) {
	svc, _ := newTamperableService(t)

	_, err := svc.ValidateSignatureIntegrity(context.Background(), "missing")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestValidateSignatureIntegrityDetectsTampering(t *testing.T) {
	tests := []struct {
		name   string
		tamper func(store *tamperableStore, sig *domain.Signature)
	}{
		{
			name: "altered contract snapshot",
			tamper: func(store *tamperableStore, sig *domain.Signature) {
				store.sessions[sig.SessionID].ContractSnapshot = json.RawMessage(`{"total":"$999999"}`)
			},
		},
		{
			name: "altered signature data",
			tamper: func(store *tamperableStore, sig *domain.Signature) {
				store.signatures[sig.ID].SignatureData = json.RawMessage(`"Someone Else"`)
			},
		},
		{
			name: "altered timestamp",
			tamper: func(store *tamperableStore, sig *domain.Signature) {
				store.signatures[sig.ID].Timestamp = sig.Timestamp.Add(-24 * time.Hour)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTamperableService(t)
			sig := completeOne(t, svc)
			tt.tamper(store, sig)

			result, err := svc.ValidateSignatureIntegrity(context.Background(), sig.ID)
			require.NoError(t, err)
			assert.False(t, result.Valid)
			assert.NotEmpty(t, result.Reason)
			assert.NotContains(t, result.Reason, "hmac")
		})
	}
}

func TestValidateSignatureIntegrityMissingSession(t *testing.T) {
	svc, store := newTamperableService(t)
	sig := completeOne(t, svc)

	delete(store.sessions, sig.SessionID)

	result, err := svc.ValidateSignatureIntegrity(context.Background(), sig.ID)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Reason)
}
