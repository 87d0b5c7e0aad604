package signal

import "github.com/dkeye/SharedAlarm/internal/domain"

func (ctl *SignalWSController) handlePing() Result {
	return Result{Event: domain.EventPong}
}
