package app

import "github.com/dkeye/SharedAlarm/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what happens to a connection whose outbound buffer is full.
type Policy interface {
	OnBackPressure(conn domain.ConnectionID, ev domain.Event) BackpressureAction
}

// SimplePolicy drops user-count updates, which the next count supersedes, and
// kicks the connection for anything else so the client resyncs on resume.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(_ domain.ConnectionID, ev domain.Event) BackpressureAction {
	if ev.Type == domain.EventUserCount {
		return DropFrame
	}
	return KickMember
}
