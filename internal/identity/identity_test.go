package identity

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(Config{Secret: strings.Repeat("s", 32), Issuer: "app", CookieName: "sid"})
	require.NoError(t, err)
	return r
}

func TestFromRequest_Bearer(t *testing.T) {
	r := newResolver(t)
	tok, err := r.Issue("u1", nil, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	id, err := r.FromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
}

func TestFromRequest_Cookie(t *testing.T) {
	r := newResolver(t)
	tok, _ := r.Issue("u2", []string{"legacy-7"}, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: tok})

	id, err := r.FromRequest(req)
	require.NoError(t, err)
	assert.True(t, id.Matches("u2"))
	assert.True(t, id.Matches("legacy-7"))
	assert.False(t, id.Matches("u3"))
	assert.False(t, id.Matches(""))
}

func TestFromRequest_NoCredentials(t *testing.T) {
	r := newResolver(t)
	_, err := r.FromRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestParse_Rejects(t *testing.T) {
	r := newResolver(t)

	tok, _ := r.Issue("u1", nil, time.Hour)
	r.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err := r.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, _ := NewResolver(Config{Secret: strings.Repeat("x", 32), Issuer: "app"})
	forged, _ := other.Issue("u1", nil, time.Hour)
	r.now = time.Now
	_, err = r.Parse(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMatches_NilIdentity(t *testing.T) {
	var id *Identity
	assert.False(t, id.Matches("u1"))
}

func TestUserIDs(t *testing.T) {
	id := &Identity{UserID: "u2", Aliases: []string{"legacy-7", "u2", "", "legacy-7"}}
	assert.Equal(t, []string{"u2", "legacy-7"}, id.UserIDs())

	var none *Identity
	assert.Nil(t, none.UserIDs())
	assert.Nil(t, (&Identity{}).UserIDs())
}
