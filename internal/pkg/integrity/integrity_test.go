package integrity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestComputeVerifyRoundTrip(t *testing.T) {
	h, err := NewHasher(testSecret)
	require.NoError(t, err)

	snapshot := []byte(`{"total":"$100"}`)
	sigData := []byte("A. Signer")
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)

	digest := h.Compute(snapshot, sigData, ts, "sess-1")
	assert.Len(t, digest, 64)
	assert.True(t, h.Verify(snapshot, sigData, ts, "sess-1", digest))
}

func TestVerifyDetectsTampering(t *testing.T) {
	h, err := NewHasher(testSecret)
	require.NoError(t, err)

	snapshot := []byte(`{"total":"$100"}`)
	sigData := []byte("A. Signer")
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	digest := h.Compute(snapshot, sigData, ts, "sess-1")

	tests := []struct {
		name     string
		snapshot []byte
		sigData  []byte
		ts       time.Time
		session  string
	}{
		{"altered snapshot", []byte(`{"total":"$900"}`), sigData, ts, "sess-1"},
		{"altered signature data", snapshot, []byte("B. Signer"), ts, "sess-1"},
		{"altered timestamp", snapshot, sigData, ts.Add(time.Second), "sess-1"},
		{"spliced onto another session", snapshot, sigData, ts, "sess-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, h.Verify(tt.snapshot, tt.sigData, tt.ts, tt.session, digest))
		})
	}
}

func TestFieldBoundariesAreFramed(t *testing.T) {
	h, err := NewHasher(testSecret)
	require.NoError(t, err)

	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	// Moving a byte across the snapshot/signature boundary must change the digest.
	a := h.Compute([]byte("abc"), []byte("def"), ts, "s")
	b := h.Compute([]byte("abcd"), []byte("ef"), ts, "s")
	assert.NotEqual(t, a, b)
}

func TestCanonicalTimestampIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	ts := time.Date(2026, 6, 1, 15, 0, 0, 120000000, loc)
	assert.Equal(t, "2026-06-01T12:00:00.12Z", CanonicalTimestamp(ts))
}

func TestNewHasherRejectsShortSecret(t *testing.T) {
	_, err := NewHasher([]byte("short"))
	assert.Error(t, err)
}

func TestSameSecretSameDigest(t *testing.T) {
	h1, err := NewHasher(testSecret)
	require.NoError(t, err)
	h2, err := NewHasher(testSecret)
	require.NoError(t, err)

	ts := time.Now()
	assert.Equal(t,
		h1.Compute([]byte("snap"), []byte("sig"), ts, "s"),
		h2.Compute([]byte("snap"), []byte("sig"), ts, "s"),
	)
}
