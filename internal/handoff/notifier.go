package handoff

import (
	"context"
	"errors"
	"sync"

	"github.com/dropDatabas3/hellojohn-connect/internal/observability/logger"
)

// ErrAlreadyNotified is returned by a notifier that already delivered.
var ErrAlreadyNotified = errors.New("handoff: message already delivered")

// Notifier delivers an outcome to an external context.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
	IsAvailable() bool
}

// PopupNotifier queues one message for the popup page script, which posts it
// to window.opener restricted to TargetOrigin. It delivers at most once.
type PopupNotifier struct {
	TargetOrigin string

	mu  sync.Mutex
	msg *Message
}

// NewPopupNotifier creates a notifier bound to the application origin.
func NewPopupNotifier(targetOrigin string) *PopupNotifier {
	return &PopupNotifier{TargetOrigin: targetOrigin}
}

// IsAvailable reports whether a message can still be delivered.
func (n *PopupNotifier) IsAvailable() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.TargetOrigin != "" && n.msg == nil
}

func (n *PopupNotifier) Notify(_ context.Context, msg Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.TargetOrigin == "" {
		return errors.New("handoff: no target origin")
	}
	if n.msg != nil {
		return ErrAlreadyNotified
	}
	n.msg = &msg
	return nil
}

// Pending returns the queued message, or nil.
func (n *PopupNotifier) Pending() *Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.msg
}

// LogNotifier records the outcome in the log when no external context exists.
type LogNotifier struct{}

func (LogNotifier) IsAvailable() bool { return true }

func (LogNotifier) Notify(ctx context.Context, msg Message) error {
	logger.From(ctx).Info("oauth outcome without opener",
		logger.Component("handoff"),
		logger.Provider(msg.Provider),
		logger.String("status", msg.Status),
		logger.ErrorCode(msg.ErrorCode),
		logger.CorrelationID(msg.CorrelationID),
	)
	return nil
}
