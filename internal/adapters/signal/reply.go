package signal

import (
	"fmt"

	"github.com/dkeye/SharedAlarm/internal/domain"
)

// Result is the single outcome of a request. The boundary decides whether it
// becomes an ack frame or a named event.
type Result struct {
	// Event is emitted on success when the request carried no ack id.
	// Empty means the success is visible through broadcasts only.
	Event string
	Data  any
	Err   error
	// Silent failures are not surfaced unless the request carried an ack id.
	Silent bool
}

func errUnknownType(t string) error {
	return fmt.Errorf("unknown request type %q", t)
}

func (ctl *SignalWSController) respond(c *WsSignalConn, env envelope, res Result) {
	if res.Err != nil {
		kind := domain.KindOf(res.Err)
		ctl.Metrics.Reject(kind)
		if env.Ack != "" {
			ctl.sendJSON(c, ackFrame{
				Type:  domain.EventAck,
				Ack:   env.Ack,
				Error: &errorBody{Kind: kind, Message: res.Err.Error(), Request: env.Type},
			})
			return
		}
		if !res.Silent {
			ctl.sendEvent(c, domain.EventError, errorBody{Kind: kind, Message: res.Err.Error(), Request: env.Type})
		}
		return
	}

	if env.Ack != "" {
		ctl.sendJSON(c, ackFrame{Type: domain.EventAck, Ack: env.Ack, OK: true, Data: res.Data})
		return
	}
	if res.Event != "" {
		ctl.sendEvent(c, res.Event, res.Data)
	}
}
