// Package handoff returns a callback outcome to the context that started the
// flow: a postMessage to the opener for popups, a page navigation for
// same-tab redirects.
package handoff

import (
	"time"

	"github.com/dropDatabas3/hellojohn-connect/internal/oauthflow"
)

// MessageType is the type tag of the cross-window message.
const MessageType = "oauth:completed"

// Message is posted to window.opener when a popup flow finishes.
type Message struct {
	Type           string     `json:"type"`
	Provider       string     `json:"provider"`
	Status         string     `json:"status"`
	IntegrationID  string     `json:"integrationId,omitempty"`
	ConnectedAt    *time.Time `json:"connectedAt,omitempty"`
	ErrorCode      string     `json:"errorCode,omitempty"`
	Error          string     `json:"error,omitempty"`
	CorrelationID  string     `json:"correlationId,omitempty"`
	ConversationID string     `json:"conversationId,omitempty"`
}

// MessageFromResult builds the message for r.
func MessageFromResult(r *oauthflow.Result) Message {
	return Message{
		Type:           MessageType,
		Provider:       r.Provider,
		Status:         string(r.Status),
		IntegrationID:  r.IntegrationID,
		ConnectedAt:    r.ConnectedAt,
		ErrorCode:      r.ErrorCode,
		Error:          r.ErrorMessage,
		CorrelationID:  r.CorrelationID,
		ConversationID: r.ConversationID,
	}
}
