// Package identity resolves the signed-in user from the application session.
//
// Sessions are HS256 JWTs issued by the host application, presented either as
// Authorization: Bearer or as the session cookie. The canonical user id is
// "sub"; a re-issued session may carry the previous ids in "aliases" so that a
// flow started before the refresh still matches.
package identity

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoCredentials = errors.New("identity: no session credentials")
	ErrInvalidToken  = errors.New("identity: invalid session token")
)

// Identity is the resolved session user.
type Identity struct {
	UserID    string
	Aliases   []string
	Email     string
	ExpiresAt time.Time
}

// Matches reports whether userID is this identity's canonical id or an alias.
func (i *Identity) Matches(userID string) bool {
	if i == nil || userID == "" {
		return false
	}
	if i.UserID == userID {
		return true
	}
	return slices.Contains(i.Aliases, userID)
}

// UserIDs returns the canonical id followed by the aliases, without repeats.
func (i *Identity) UserIDs() []string {
	if i == nil || i.UserID == "" {
		return nil
	}
	out := []string{i.UserID}
	for _, a := range i.Aliases {
		if a != "" && !slices.Contains(out, a) {
			out = append(out, a)
		}
	}
	return out
}

// SessionClaims are the claims of a session token.
type SessionClaims struct {
	Email   string   `json:"email,omitempty"`
	Aliases []string `json:"aliases,omitempty"`
	jwtv5.RegisteredClaims
}

// Config configures a Resolver.
type Config struct {
	Secret     string
	Issuer     string // optional
	Audience   string // optional
	CookieName string
}

// Resolver validates session tokens.
type Resolver struct {
	key        []byte
	issuer     string
	audience   string
	cookieName string
	now        func() time.Time
}

// NewResolver creates a Resolver.
func NewResolver(cfg Config) (*Resolver, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("identity: session secret must be at least 32 bytes")
	}
	cookie := cfg.CookieName
	if cookie == "" {
		cookie = "session"
	}
	return &Resolver{
		key:        []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		cookieName: cookie,
		now:        time.Now,
	}, nil
}

// FromRequest resolves the identity from the bearer token or, failing that,
// the session cookie.
func (r *Resolver) FromRequest(req *http.Request) (*Identity, error) {
	if ah := strings.TrimSpace(req.Header.Get("Authorization")); ah != "" {
		if len(ah) > 7 && strings.EqualFold(ah[:7], "bearer ") {
			return r.Parse(strings.TrimSpace(ah[7:]))
		}
	}
	if c, err := req.Cookie(r.cookieName); err == nil && c.Value != "" {
		return r.Parse(c.Value)
	}
	return nil, ErrNoCredentials
}

// Parse validates raw and returns its identity.
func (r *Resolver) Parse(raw string) (*Identity, error) {
	claims := &SessionClaims{}
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithTimeFunc(r.now),
		jwtv5.WithLeeway(30 * time.Second),
	}
	if r.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(r.issuer))
	}
	if r.audience != "" {
		opts = append(opts, jwtv5.WithAudience(r.audience))
	}
	tk, err := jwtv5.ParseWithClaims(raw, claims, func(*jwtv5.Token) (any, error) { return r.key, nil }, opts...)
	if err != nil || !tk.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}

	id := &Identity{
		UserID:  claims.Subject,
		Aliases: claims.Aliases,
		Email:   claims.Email,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// Issue signs a session token. Used by tooling and tests; the host
// application issues real sessions.
func (r *Resolver) Issue(userID string, aliases []string, ttl time.Duration) (string, error) {
	now := r.now().UTC()
	claims := SessionClaims{
		Aliases: aliases,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   userID,
			Issuer:    r.issuer,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
		},
	}
	if r.audience != "" {
		claims.Audience = jwtv5.ClaimStrings{r.audience}
	}
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(r.key)
}
