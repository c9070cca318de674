// Package oauth contiene los controllers del flujo de conexión OAuth:
// inicio, flujo pendiente y callback.
package oauth

import (
	"context"
	"time"

	"github.com/dropDatabas3/hellojohn-connect/internal/flowstate"
	"github.com/dropDatabas3/hellojohn-connect/internal/handoff"
	"github.com/dropDatabas3/hellojohn-connect/internal/oauthflow"
)

// PendingReader lee el flujo en curso sin consumirlo. *flowstate.Store lo implementa.
type PendingReader interface {
	Peek(ctx context.Context, scope string) *flowstate.FlowState
	TTL() time.Duration
}

// Deliverer convierte el resultado del callback en la página de handoff.
// *handoff.Handoff lo implementa.
type Deliverer interface {
	Deliver(ctx context.Context, r *oauthflow.Result) (*handoff.Page, error)
}

// Deps contiene las dependencias de los controllers OAuth.
type Deps struct {
	Initiator oauthflow.Initiator
	Pending   PendingReader
	Processor oauthflow.ProcessorDeps
	Handoff   Deliverer
}

// Controllers agrupa todos los controllers del dominio oauth.
type Controllers struct {
	Start    *StartController
	Pending  *PendingController
	Callback *CallbackController
}

// NewControllers crea el agregador de controllers oauth.
func NewControllers(d Deps) *Controllers {
	return &Controllers{
		Start:    NewStartController(d.Initiator),
		Pending:  NewPendingController(d.Pending),
		Callback: NewCallbackController(d.Processor, d.Handoff),
	}
}
