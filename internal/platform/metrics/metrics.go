// Package metrics registers prometheus collectors for the introhub service.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the service collectors behind one prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	transitions *prometheus.CounterVec
	httpStatus  *prometheus.CounterVec
	notifyDrops prometheus.Counter
}

// New creates a metrics registry with introhub collectors registered.
func New() *Registry {
	registry := prometheus.NewRegistry()

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "introhub",
		Subsystem: "workflow",
		Name:      "transitions_total",
		Help:      "Successful workflow transitions by resulting event kind.",
	}, []string{"event"})
	httpStatus := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "introhub",
		Subsystem: "http",
		Name:      "responses_total",
		Help:      "HTTP responses by route and status class.",
	}, []string{"route", "status"})
	notifyDrops := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "introhub",
		Subsystem: "notify",
		Name:      "dropped_total",
		Help:      "Notifications dropped after exhausting dispatcher retries.",
	})

	registry.MustRegister(transitions, httpStatus, notifyDrops)
	return &Registry{
		registry:    registry,
		transitions: transitions,
		httpStatus:  httpStatus,
		notifyDrops: notifyDrops,
	}
}

// ObserveTransition counts one successful workflow transition.
func (r *Registry) ObserveTransition(event string) {
	if r == nil || r.transitions == nil {
		return
	}
	r.transitions.WithLabelValues(event).Inc()
}

// ObserveHTTP counts one HTTP response for a route.
func (r *Registry) ObserveHTTP(route string, status int) {
	if r == nil || r.httpStatus == nil {
		return
	}
	r.httpStatus.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// ObserveNotifyDrop counts one dropped notification.
func (r *Registry) ObserveNotifyDrop() {
	if r == nil || r.notifyDrops == nil {
		return
	}
	r.notifyDrops.Inc()
}

// Handler exposes the registry over HTTP for scraping.
func (r *Registry) Handler() http.Handler {
	if r == nil || r.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
