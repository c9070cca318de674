// Package flowstate is the correlation store of in-flight OAuth flows.
//
// One browsing context (identified by an opaque scope) owns exactly one slot.
// Begin overwrites the slot atomically, Consume reads and clears it atomically,
// and nothing else mutates it. Consume is the idempotency primitive of the
// callback: the second call for the same flow returns nil.
package flowstate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode is how the provider consent screen was opened.
type Mode string

const (
	ModeRedirect Mode = "redirect"
	ModePopup    Mode = "popup"
)

// ParseMode validates a mode string. Empty means redirect.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeRedirect:
		return ModeRedirect, nil
	case ModePopup:
		return ModePopup, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Session-scoped storage keys. All of them are written by Begin and cleared
// together by Consume.
const (
	KeyState          = "oauth_state"
	KeyProvider       = "oauth_provider"
	KeyUserID         = "oauth_user_id"
	KeyReturnTo       = "oauth_return_to"
	KeyFlow           = "oauth_flow"
	KeyConversationID = "oauth_flow_conversation_id"
	KeyCorrelationID  = "oauth_correlation_id"
	KeyCodeVerifier   = "oauth_code_verifier"
	KeyStartedAt      = "oauth_started_at"
)

var slotKeys = []string{
	KeyState, KeyProvider, KeyUserID, KeyReturnTo, KeyFlow,
	KeyConversationID, KeyCorrelationID, KeyCodeVerifier, KeyStartedAt,
}

// FlowState is the ephemeral record linking an initiated flow to its callback.
type FlowState struct {
	Provider       string
	State          string
	UserID         string
	ReturnTo       string
	Mode           Mode
	ConversationID string
	CorrelationID  string
	CodeVerifier   string // PKCE, empty when the provider does not use it
	StartedAt      time.Time
}

// Options are the caller-supplied parts of a new flow.
type Options struct {
	Mode           Mode
	ReturnTo       string
	CorrelationID  string
	ConversationID string
	PKCE           bool
}

var (
	ErrScopeRequired    = errors.New("flowstate: scope is required")
	ErrUserRequired     = errors.New("flowstate: user id is required")
	ErrProviderRequired = errors.New("flowstate: provider is required")
	ErrInvalidMode      = errors.New("flowstate: invalid flow mode")
)

func (f *FlowState) encode() map[string]string {
	return map[string]string{
		KeyState:          f.State,
		KeyProvider:       f.Provider,
		KeyUserID:         f.UserID,
		KeyReturnTo:       f.ReturnTo,
		KeyFlow:           string(f.Mode),
		KeyConversationID: f.ConversationID,
		KeyCorrelationID:  f.CorrelationID,
		KeyCodeVerifier:   f.CodeVerifier,
		KeyStartedAt:      f.StartedAt.UTC().Format(time.RFC3339Nano),
	}
}

// decode rebuilds a FlowState from raw slot values. Missing mandatory keys
// or an unknown mode mean the slot is corrupted.
func decode(raw map[string]string) (*FlowState, error) {
	f := &FlowState{
		State:          raw[KeyState],
		Provider:       raw[KeyProvider],
		UserID:         raw[KeyUserID],
		ReturnTo:       raw[KeyReturnTo],
		ConversationID: raw[KeyConversationID],
		CorrelationID:  raw[KeyCorrelationID],
		CodeVerifier:   raw[KeyCodeVerifier],
	}
	if f.State == "" || f.Provider == "" || f.UserID == "" {
		return nil, errors.New("flowstate: slot is missing mandatory keys")
	}
	mode, err := ParseMode(raw[KeyFlow])
	if err != nil || raw[KeyFlow] == "" {
		return nil, fmt.Errorf("flowstate: slot has invalid mode %q", raw[KeyFlow])
	}
	f.Mode = mode
	if ts := raw[KeyStartedAt]; ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			f.StartedAt = t
		}
	}
	return f, nil
}
