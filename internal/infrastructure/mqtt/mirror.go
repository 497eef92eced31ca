package mqtt

import (
	"encoding/json"
	"fmt"

	"github.com/nerrad567/iris/internal/rtu"
)

// Lock state payloads.
const (
	LockedPayload   = "locked"
	UnlockedPayload = "unlocked"
)

// Publisher is the subset of Client the mirror needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Mirror republishes hub state to the broker as retained messages so
// out-of-band consumers (dashboards, loggers) can follow the RTU without
// holding a websocket.
type Mirror struct {
	pub    Publisher
	topics Topics
	qos    byte
}

// NewMirror creates a Mirror publishing through pub.
func NewMirror(pub Publisher, topics Topics, qos byte) *Mirror {
	return &Mirror{pub: pub, topics: topics, qos: qos}
}

// deviceState is the retained per-device payload.
type deviceState struct {
	Name       string         `json:"name"`
	Controller rtu.Controller `json:"controller"`
	State      rtu.State      `json:"state"`
	PV         *float64       `json:"pv,omitempty"`
	SV         *float64       `json:"sv,omitempty"`
}

// PublishSnapshot publishes the full RTU and then each device's state.
// It stops at the first failed publish.
func (m *Mirror) PublishSnapshot(r *rtu.RTU) error {
	if r == nil {
		return nil
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := m.pub.Publish(m.topics.Snapshot(r.ID), data, m.qos, true); err != nil {
		return fmt.Errorf("publishing snapshot: %w", err)
	}

	for i := range r.Devices {
		d := &r.Devices[i]
		payload, err := json.Marshal(deviceState{
			Name:       d.Name,
			Controller: d.Controller,
			State:      d.State,
			PV:         d.PV,
			SV:         d.SV,
		})
		if err != nil {
			return fmt.Errorf("encoding device %q: %w", d.ID, err)
		}
		if err := m.pub.Publish(m.topics.DeviceState(r.ID, d.ID), payload, m.qos, true); err != nil {
			return fmt.Errorf("publishing device %q: %w", d.ID, err)
		}
	}
	return nil
}

// PublishLock publishes the hub's lock state for rtuID.
func (m *Mirror) PublishLock(rtuID string, locked bool) error {
	payload := UnlockedPayload
	if locked {
		payload = LockedPayload
	}
	if err := m.pub.Publish(m.topics.Lock(rtuID), []byte(payload), m.qos, true); err != nil {
		return fmt.Errorf("publishing lock state: %w", err)
	}
	return nil
}
