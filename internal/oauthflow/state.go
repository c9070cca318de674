package oauthflow

import (
	"errors"
	"slices"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// StateClaims are the claims of the state token round-tripped through the
// provider. They carry no user data.
type StateClaims struct {
	Provider string `json:"provider"`
	Nonce    string `json:"nonce"`
	jwtv5.RegisteredClaims
}

const (
	// StateAudience is the expected audience for state tokens.
	StateAudience = "oauth-connect-state"
	// StateIssuer identifies this service as the signer.
	StateIssuer = "hellojohn-connect"

	stateLeeway = 30 * time.Second
)

// StateSigner signs and verifies state tokens with HS256.
type StateSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewStateSigner creates a signer. key must come from keys.Derive.
func NewStateSigner(key []byte, ttl time.Duration) (*StateSigner, error) {
	if len(key) < 32 {
		return nil, errors.New("oauthflow: state signing key must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &StateSigner{key: key, ttl: ttl, now: time.Now}, nil
}

// Seal signs a state token for provider and nonce. It satisfies flowstate.Sealer.
func (s *StateSigner) Seal(provider, nonce string) (string, error) {
	now := s.now().UTC()
	claims := StateClaims{
		Provider: strings.ToLower(provider),
		Nonce:    nonce,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    StateIssuer,
			Audience:  jwtv5.ClaimStrings{StateAudience},
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(s.key)
}

// Parse validates a state token and returns its claims.
// Expired tokens return ErrStateExpired; anything else invalid returns ErrStateInvalid.
func (s *StateSigner) Parse(token string) (*StateClaims, error) {
	claims := &StateClaims{}
	tk, err := jwtv5.ParseWithClaims(token, claims,
		func(*jwtv5.Token) (any, error) { return s.key, nil },
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithAudience(StateAudience),
		jwtv5.WithIssuer(StateIssuer),
		jwtv5.WithLeeway(stateLeeway),
		jwtv5.WithTimeFunc(s.now),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrStateExpired
		}
		return nil, ErrStateInvalid
	}
	if !tk.Valid || claims.Nonce == "" {
		return nil, ErrStateInvalid
	}
	return claims, nil
}

// Verify parses token and checks it was issued for provider.
func (s *StateSigner) Verify(token, provider string) (*StateClaims, error) {
	claims, err := s.Parse(token)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(claims.Provider, provider) {
		return nil, ErrStateProvider
	}
	return claims, nil
}

// ProviderHint returns the provider named by a state token signed with this
// key, expired or not. It returns "" for anything else. Only used to label a
// failure whose flow is gone; never as proof of a flow.
func (s *StateSigner) ProviderHint(token string) string {
	if token == "" {
		return ""
	}
	claims := &StateClaims{}
	_, err := jwtv5.ParseWithClaims(token, claims,
		func(*jwtv5.Token) (any, error) { return s.key, nil },
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithoutClaimsValidation(),
	)
	if err != nil || claims.Issuer != StateIssuer || !slices.Contains(claims.Audience, StateAudience) {
		return ""
	}
	return claims.Provider
}
