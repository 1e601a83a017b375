// Package metrics exposes the daemon's optional Prometheus endpoint. It is
// purely observational: nothing in internal/router reads these values back,
// and a router with no metrics-port configured never starts this package's
// HTTP server.
package metrics

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the set of counters and gauges the router core updates as it
// runs.
type Metrics struct {
	Routes           prometheus.Gauge
	PacketsSent      *prometheus.CounterVec
	PacketsReceived  *prometheus.CounterVec
	RouteTransitions *prometheus.CounterVec
	SendFailures     prometheus.Counter
	DecodeFailures   prometheus.Counter
	UnknownNeighbor  prometheus.Counter

	registry *prometheus.Registry
}

// New creates a fresh, unregistered-with-default-registry Metrics bundle
// backed by its own registry, so multiple routers in the same test binary
// never collide on metric names.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Routes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ripd_routes",
			Help: "Current number of destinations held in the forwarding table.",
		}),
		PacketsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ripd_packets_sent_total",
			Help: "Advertisement packets sent, by neighbor id.",
		}, []string{"neighbor"}),
		PacketsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ripd_packets_received_total",
			Help: "Advertisement packets received, by neighbor id.",
		}, []string{"neighbor"}),
		RouteTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ripd_route_transitions_total",
			Help: "Forwarding table transitions, by kind.",
		}, []string{"kind"}),
		SendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ripd_send_failures_total",
			Help: "Outbound sends that failed.",
		}),
		DecodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ripd_decode_failures_total",
			Help: "Inbound datagrams dropped for failing to decode.",
		}),
		UnknownNeighbor: factory.NewCounter(prometheus.CounterOpts{
			Name: "ripd_unknown_neighbor_total",
			Help: "Inbound packets dropped for an unrecognized sender id.",
		}),
		registry: reg,
	}
}

// Serve starts the /metrics HTTP endpoint on port and blocks until ctx is
// canceled, then shuts the server down. Call this in its own goroutine.
func (m *Metrics) Serve(ctx context.Context, port uint16) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:    net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port))),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Close()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
