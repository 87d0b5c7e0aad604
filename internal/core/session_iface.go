package core

import "github.com/dkeye/SharedAlarm/internal/domain"

// Notifier receives room events produced by the coordination core.
// Implementations must not block and must not call back into the core.
type Notifier interface {
	// Notify delivers ev to every listed connection that is currently live.
	Notify(to []domain.ConnectionID, ev domain.Event)
	// Released reports that conn's grace period ran out and its slot is gone.
	Released(conn domain.ConnectionID)
}

// NopNotifier drops everything.
type NopNotifier struct{}

func (NopNotifier) Notify([]domain.ConnectionID, domain.Event) {}
func (NopNotifier) Released(domain.ConnectionID)               {}
