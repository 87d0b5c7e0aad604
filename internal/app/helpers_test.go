package app

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dkeye/SharedAlarm/internal/domain"
	"github.com/dkeye/SharedAlarm/internal/metrics"
)

type delivery struct {
	to []domain.ConnectionID
	ev domain.Event
}

type recorder struct {
	mu       sync.Mutex
	events   []delivery
	released []domain.ConnectionID
}

func (r *recorder) Notify(to []domain.ConnectionID, ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, delivery{to: slices.Clone(to), ev: ev})
}

func (r *recorder) Released(conn domain.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = append(r.released, conn)
}

func (r *recorder) ofType(t string) []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []delivery
	for _, d := range r.events {
		if d.ev.Type == t {
			out = append(out, d)
		}
	}
	return out
}

func (r *recorder) releasedConns() []domain.ConnectionID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.released)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.released = nil
}

func newTestRegistry(t *testing.T, grace time.Duration) (*Registry, *recorder, *metrics.Metrics) {
	t.Helper()
	rec := &recorder{}
	m := metrics.New(prometheus.NewRegistry())
	r := NewRegistry(Options{GracePeriod: grace, Notifier: rec, Metrics: m})
	t.Cleanup(r.Close)
	return r, rec, m
}

func futureDraft(name string) domain.AlarmDraft {
	return domain.AlarmDraft{Name: name, Time: time.Now().Add(time.Hour).Format(time.RFC3339)}
}
