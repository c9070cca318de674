package oauthflow

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte { return []byte(strings.Repeat("k", 32)) }

func TestStateSigner_RoundTrip(t *testing.T) {
	s, err := NewStateSigner(testKey(), time.Minute)
	require.NoError(t, err)

	tok, err := s.Seal("HubSpot", "nonce-1")
	require.NoError(t, err)

	claims, err := s.Verify(tok, "hubspot")
	require.NoError(t, err)
	assert.Equal(t, "hubspot", claims.Provider)
	assert.Equal(t, "nonce-1", claims.Nonce)
}

func TestStateSigner_ProviderMismatch(t *testing.T) {
	s, _ := NewStateSigner(testKey(), time.Minute)
	tok, _ := s.Seal("hubspot", "n")
	_, err := s.Verify(tok, "google")
	assert.ErrorIs(t, err, ErrStateProvider)
}

func TestStateSigner_Expired(t *testing.T) {
	s, _ := NewStateSigner(testKey(), time.Minute)
	tok, _ := s.Seal("hubspot", "n")

	s.now = func() time.Time { return time.Now().Add(5 * time.Minute) }
	_, err := s.Parse(tok)
	assert.ErrorIs(t, err, ErrStateExpired)
}

func TestStateSigner_Tampered(t *testing.T) {
	s, _ := NewStateSigner(testKey(), time.Minute)
	other, _ := NewStateSigner([]byte(strings.Repeat("z", 32)), time.Minute)
	tok, _ := other.Seal("hubspot", "n")

	_, err := s.Parse(tok)
	assert.ErrorIs(t, err, ErrStateInvalid)

	_, err = s.Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrStateInvalid)
}

func TestStateSigner_ProviderHint(t *testing.T) {
	s, _ := NewStateSigner(testKey(), time.Minute)
	tok, _ := s.Seal("HubSpot", "n")

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.Equal(t, "hubspot", s.ProviderHint(tok))

	other, _ := NewStateSigner([]byte(strings.Repeat("z", 32)), time.Minute)
	forged, _ := other.Seal("hubspot", "n")
	assert.Empty(t, s.ProviderHint(forged))
	assert.Empty(t, s.ProviderHint("not-a-jwt"))
	assert.Empty(t, s.ProviderHint(""))
}

func TestNewStateSigner_ShortKey(t *testing.T) {
	_, err := NewStateSigner([]byte("short"), time.Minute)
	assert.Error(t, err)
}
