// Package integrations contiene DTOs para /v2/integrations.
package integrations

import "time"

// StartRequest es el body opcional de POST /v2/integrations/oauth/{provider}/start.
type StartRequest struct {
	Mode           string `json:"mode,omitempty"` // "redirect" | "popup"
	ReturnTo       string `json:"returnTo,omitempty"`
	CorrelationID  string `json:"correlationId,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}

// PopupFeatures dimensiona la ventana que abre el caller en modo popup.
type PopupFeatures struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// StartResponse es la respuesta de un inicio de flujo. El state viaja
// únicamente dentro de AuthorizationURL.
type StartResponse struct {
	Provider         string         `json:"provider"`
	AuthorizationURL string         `json:"authorizationUrl"`
	Mode             string         `json:"mode"`
	Popup            *PopupFeatures `json:"popup,omitempty"`
}

// PendingResponse describe el flujo en curso del contexto de navegación.
type PendingResponse struct {
	Pending        bool       `json:"pending"`
	Provider       string     `json:"provider,omitempty"`
	Mode           string     `json:"mode,omitempty"`
	ReturnTo       string     `json:"returnTo,omitempty"`
	CorrelationID  string     `json:"correlationId,omitempty"`
	ConversationID string     `json:"conversationId,omitempty"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
}

// ProviderItem es un provider conectable.
type ProviderItem struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"displayName"`
	Category     string   `json:"category"`
	Scopes       []string `json:"scopes"`
	SupportsTest bool     `json:"supportsTest"`
	Connected    bool     `json:"connected"`
}

// ProvidersResponse lista los providers habilitados en el deployment.
type ProvidersResponse struct {
	Providers []ProviderItem `json:"providers"`
}

// IntegrationItem es la vista pública de una integración; nunca incluye credenciales.
type IntegrationItem struct {
	ID                string     `json:"id"`
	Provider          string     `json:"provider"`
	Status            string     `json:"status"`
	ExternalAccountID string     `json:"externalAccountId,omitempty"`
	Scopes            []string   `json:"scopes,omitempty"`
	ConnectedAt       *time.Time `json:"connectedAt,omitempty"`
	LastSyncAt        *time.Time `json:"lastSyncAt,omitempty"`
	LastError         string     `json:"lastError,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// ListResponse es la respuesta de GET /v2/integrations.
type ListResponse struct {
	Integrations []IntegrationItem `json:"integrations"`
}

// TestRequest prueba un access token contra el probe del provider.
type TestRequest struct {
	Provider    string `json:"provider"`
	AccessToken string `json:"accessToken"`
}
