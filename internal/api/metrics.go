package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/mqtt-bridge/internal/publisher"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string            `json:"timestamp"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Runtime       RuntimeMetrics    `json:"runtime"`
	WebSocket     WSMetrics         `json:"websocket"`
	MQTT          MQTTMetrics       `json:"mqtt"`
	Periodic      *publisher.Status `json:"periodic,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// MQTTMetrics contains session statistics.
type MQTTMetrics struct {
	Connected      bool   `json:"connected"`
	Broker         string `json:"broker,omitempty"`
	Subscriptions  int    `json:"subscriptions"`
	SentLogged     int    `json:"sent_logged"`
	ReceivedLogged int    `json:"received_logged"`
	LogCapacity    int    `json:"log_capacity"`
}

// handleSystemMetrics returns a JSON summary for the UI. Prometheus scrapes
// the exposition endpoint instead.
func (s *Server) handleSystemMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := s.session.Status()
	sent, received := s.session.LogCounts()

	m := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		MQTT: MQTTMetrics{
			Connected:      status.Connected,
			Broker:         status.Broker,
			Subscriptions:  len(status.Subscriptions),
			SentLogged:     sent,
			ReceivedLogged: received,
			LogCapacity:    s.session.LogCapacity(),
		},
	}

	if s.publisher != nil {
		st := s.publisher.Status()
		m.Periodic = &st
	}

	writeJSON(w, http.StatusOK, m)
}
