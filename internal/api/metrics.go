package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/iris/internal/hub"
	"github.com/nerrad567/iris/internal/rtu"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	WebSocket     WSMetrics      `json:"websocket"`
	MQTT          *MQTTMetrics   `json:"mqtt,omitempty"`
	Poller        *hub.PollStats `json:"poller,omitempty"`
	Devices       DeviceMetrics  `json:"devices"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains client registry statistics.
type WSMetrics struct {
	RegisteredClients int `json:"registered_clients"`
	ConnectedClients  int `json:"connected_clients"`
}

// MQTTMetrics contains MQTT mirror statistics.
type MQTTMetrics struct {
	Connected bool `json:"connected"`
}

// DeviceMetrics summarises the stored RTU.
type DeviceMetrics struct {
	Total        int            `json:"total"`
	On           int            `json:"on"`
	ByController map[string]int `json:"by_controller"`
}

// handleMetrics returns runtime, client, poller and device statistics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
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
			RegisteredClients: s.hub.Registry().Count(),
			ConnectedClients:  s.hub.Registry().Connected(),
		},
		Devices: deviceMetrics(s.hub.Snapshot()),
	}

	if s.mqtt != nil {
		metrics.MQTT = &MQTTMetrics{
			Connected: s.mqtt.HealthCheck(context.Background()) == nil,
		}
	}

	if s.poller != nil {
		stats := s.poller.Stats()
		metrics.Poller = &stats
	}

	writeJSON(w, http.StatusOK, metrics)
}

func deviceMetrics(r *rtu.RTU) DeviceMetrics {
	m := DeviceMetrics{
		Total:        len(r.Devices),
		ByController: make(map[string]int),
	}
	for i := range r.Devices {
		d := &r.Devices[i]
		m.ByController[string(d.Controller)]++
		if d.State.IsOn() {
			m.On++
		}
	}
	return m
}
