// Package metrics exposes prometheus collectors for the room core and gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dkeye/SharedAlarm/internal/domain"
)

const namespace = "sharedalarm"

// Metrics is nil-safe: every method on a nil *Metrics is a no-op.
type Metrics struct {
	Rooms          prometheus.Gauge
	Members        prometheus.Gauge
	Connections    prometheus.Gauge
	AlarmsAdded    prometheus.Counter
	AlarmsDeleted  prometheus.Counter
	GraceStarted   prometheus.Counter
	GraceExpired   prometheus.Counter
	GraceRecovered prometheus.Counter
	Rejected       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "rooms", Help: "Live rooms.",
		}),
		Members: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "members", Help: "Membership slots across all rooms, grace included.",
		}),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "connections", Help: "Open WebSocket connections.",
		}),
		AlarmsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "alarms_added_total", Help: "Alarms added.",
		}),
		AlarmsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "alarms_deleted_total", Help: "Alarms deleted.",
		}),
		GraceStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "grace_started_total", Help: "Disconnects that entered the grace period.",
		}),
		GraceExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "grace_expired_total", Help: "Grace periods that ended in removal.",
		}),
		GraceRecovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "grace_recovered_total", Help: "Grace periods ended by a reconnect.",
		}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rejected_total", Help: "Requests that failed, by failure kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		m.Rooms, m.Members, m.Connections,
		m.AlarmsAdded, m.AlarmsDeleted,
		m.GraceStarted, m.GraceExpired, m.GraceRecovered,
		m.Rejected,
	)
	return m
}

func (m *Metrics) RoomCreated() {
	if m != nil {
		m.Rooms.Inc()
	}
}

func (m *Metrics) RoomDeleted() {
	if m != nil {
		m.Rooms.Dec()
	}
}

func (m *Metrics) MemberAdded() {
	if m != nil {
		m.Members.Inc()
	}
}

func (m *Metrics) MemberRemoved() {
	if m != nil {
		m.Members.Dec()
	}
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.Connections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.Connections.Dec()
	}
}

func (m *Metrics) AlarmAdded() {
	if m != nil {
		m.AlarmsAdded.Inc()
	}
}

func (m *Metrics) AlarmDeleted() {
	if m != nil {
		m.AlarmsDeleted.Inc()
	}
}

func (m *Metrics) GraceStart() {
	if m != nil {
		m.GraceStarted.Inc()
	}
}

func (m *Metrics) GraceExpire() {
	if m != nil {
		m.GraceExpired.Inc()
	}
}

func (m *Metrics) GraceRecover() {
	if m != nil {
		m.GraceRecovered.Inc()
	}
}

func (m *Metrics) Reject(kind domain.Kind) {
	if m != nil {
		m.Rejected.WithLabelValues(string(kind)).Inc()
	}
}
