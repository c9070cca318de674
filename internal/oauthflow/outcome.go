package oauthflow

import (
	"time"

	"github.com/dropDatabas3/hellojohn-connect/internal/flowstate"
)

// Status is the terminal status of a callback.
type Status string

const (
	StatusConnected Status = "connected"
	StatusFailed    Status = "failed"
)

// Result is the terminal outcome of one callback visit. It is handed to the
// handoff and then discarded.
type Result struct {
	Status         Status
	Provider       string
	IntegrationID  string
	ConnectedAt    *time.Time
	ErrorCode      string
	ErrorMessage   string
	CorrelationID  string
	ConversationID string

	// Rendering hints for the handoff.
	Mode     flowstate.Mode
	ReturnTo string
}

// OK reports whether the flow connected.
func (r *Result) OK() bool { return r != nil && r.Status == StatusConnected }

func failed(flow *flowstate.FlowState, provider, code, message, defaultReturnTo string) *Result {
	if message == "" {
		message = MessageFor(code)
	}
	r := &Result{
		Status:       StatusFailed,
		Provider:     provider,
		ErrorCode:    code,
		ErrorMessage: message,
		Mode:         flowstate.ModeRedirect,
		ReturnTo:     defaultReturnTo,
	}
	applyFlow(r, flow)
	return r
}

func applyFlow(r *Result, flow *flowstate.FlowState) {
	if flow == nil {
		return
	}
	if r.Provider == "" {
		r.Provider = flow.Provider
	}
	r.Mode = flow.Mode
	if flow.ReturnTo != "" {
		r.ReturnTo = flow.ReturnTo
	}
	r.CorrelationID = flow.CorrelationID
	r.ConversationID = flow.ConversationID
}
