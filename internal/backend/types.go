package backend

import "time"

// ExchangeRequest is the body sent to POST {base}/oauth/{provider}/exchange.
type ExchangeRequest struct {
	Code          string `json:"code"`
	State         string `json:"state"`
	UserID        string `json:"userId"`
	RedirectURI   string `json:"redirectUri"`
	Provider      string `json:"provider"`
	CodeVerifier  string `json:"codeVerifier,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Credentials are the provider tokens returned by the backend, when it
// chooses to return them. They are opaque to the orchestrator.
type Credentials struct {
	AccessToken       string     `json:"accessToken,omitempty"`
	RefreshToken      string     `json:"refreshToken,omitempty"`
	ExpiresAt         *time.Time `json:"expiresAt,omitempty"`
	Scopes            []string   `json:"scopes,omitempty"`
	ExternalAccountID string     `json:"externalAccountId,omitempty"`
}

// ExchangeResponse is either a success
// {success, provider, integrationId, connectedAt, correlationId, credentials?}
// or a rejection {success:false, error, errorCode, correlationId}.
type ExchangeResponse struct {
	Success       bool         `json:"success"`
	Provider      string       `json:"provider,omitempty"`
	IntegrationID string       `json:"integrationId,omitempty"`
	ConnectedAt   *time.Time   `json:"connectedAt,omitempty"`
	CorrelationID string       `json:"correlationId,omitempty"`
	Credentials   *Credentials `json:"credentials,omitempty"`
	Error         string       `json:"error,omitempty"`
	ErrorCode     string       `json:"errorCode,omitempty"`
}

// SyncResponse is the answer of POST {base}/integrations/{id}/sync.
type SyncResponse struct {
	Success     bool       `json:"success"`
	SyncedAt    *time.Time `json:"syncedAt,omitempty"`
	ItemsSynced int        `json:"itemsSynced,omitempty"`
	Error       string     `json:"error,omitempty"`
	ErrorCode   string     `json:"errorCode,omitempty"`
}
