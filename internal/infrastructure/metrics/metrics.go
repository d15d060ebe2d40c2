// Package metrics exposes internal bridge counters in Prometheus format.
package metrics

import (
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mqtt_bridge"

// Recorder accounts the events of a bridge session.
type Recorder interface {
	MessageLogged(direction string)
	ConnectAttempt(success bool)
	ConnectionLost()
	SetConnected(connected bool)
	SetWebSocketClients(n int)
	PeriodicPublish(success bool)
}

type noopRecorder struct{}

func (noopRecorder) MessageLogged(string)    {}
func (noopRecorder) ConnectAttempt(bool)     {}
func (noopRecorder) ConnectionLost()         {}
func (noopRecorder) SetConnected(bool)       {}
func (noopRecorder) SetWebSocketClients(int) {}
func (noopRecorder) PeriodicPublish(bool)    {}

// Noop returns a Recorder that discards everything.
func Noop() Recorder {
	return noopRecorder{}
}

// Prometheus is a Recorder backed by its own registry, so tests and
// multiple instances never collide on the global default registry.
type Prometheus struct {
	registry        *prometheus.Registry
	messages        *prometheus.CounterVec
	connectAttempts *prometheus.CounterVec
	connectionLost  prometheus.Counter
	connected       prometheus.Gauge
	wsClients       prometheus.Gauge
	periodic        *prometheus.CounterVec
	buildInfo       prometheus.Gauge
}

// NewPrometheus creates and registers the bridge collectors together with
// the Go runtime and process collectors.
func NewPrometheus(version string) *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages recorded in the session logs, by direction",
		}, []string{"direction"}),
		connectAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Broker connect attempts, by result",
		}, []string{"result"}),
		connectionLost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_lost_total",
			Help:      "How many established broker connections dropped",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 while the session has an active broker connection",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected live traffic WebSocket clients",
		}),
		periodic: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "periodic_publishes_total",
			Help:      "Periodic publisher attempts, by result",
		}, []string{"result"}),
		buildInfo: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "A metric with a constant '1' value labeled by version and Go runtime.",
			ConstLabels: map[string]string{
				"version":   version,
				"goversion": runtime.Version(),
			},
		}),
	}
	p.buildInfo.Set(1)

	p.registry.MustRegister(
		p.messages,
		p.connectAttempts,
		p.connectionLost,
		p.connected,
		p.wsClients,
		p.periodic,
		p.buildInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

func (p *Prometheus) MessageLogged(direction string) {
	p.messages.WithLabelValues(direction).Inc()
}

func (p *Prometheus) ConnectAttempt(success bool) {
	p.connectAttempts.WithLabelValues(result(success)).Inc()
}

func (p *Prometheus) ConnectionLost() {
	p.connectionLost.Inc()
}

func (p *Prometheus) SetConnected(connected bool) {
	if connected {
		p.connected.Set(1)
		return
	}
	p.connected.Set(0)
}

func (p *Prometheus) SetWebSocketClients(n int) {
	p.wsClients.Set(float64(n))
}

func (p *Prometheus) PeriodicPublish(success bool) {
	p.periodic.WithLabelValues(result(success)).Inc()
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
