package hub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/iris/internal/rtu"
)

// EventType names an inbound command on the wire.
type EventType string

// Inbound event types.
const (
	EventDeviceUpdate EventType = "DeviceUpdate"
	EventDeviceEnact  EventType = "DeviceEnact"
	EventRTUEnact     EventType = "RTUEnact"
	EventRTUReset     EventType = "RTUReset"
)

// DefaultTimeBetween is the pacing delay between device writes, in milliseconds.
const DefaultTimeBetween = 300

// InboundEvent is the wire form of a client command.
type InboundEvent struct {
	EventType   EventType    `json:"event_type"`
	Devices     []rtu.Device `json:"devices"`
	RTU         *rtu.RTU     `json:"RTU"`
	TimeBetween uint64       `json:"time_between"`
	HaltIfError bool         `json:"halt_if_error"`
}

// Command is a decoded inbound event. The concrete types are DeviceUpdate,
// DeviceEnact, RTUEnact and RTUReset; no other package can add one.
type Command interface {
	Type() EventType
	command()
}

// DeviceUpdate reads the listed devices from hardware.
type DeviceUpdate struct {
	Devices []rtu.Device
}

// DeviceEnact writes the listed devices to hardware in order, waiting Pace
// between consecutive writes.
type DeviceEnact struct {
	Devices     []rtu.Device
	Pace        time.Duration
	HaltOnError bool
}

// RTUEnact writes every device of an attached RTU snapshot.
type RTUEnact struct {
	RTU *rtu.RTU
}

// RTUReset regenerates the RTU from configuration and enacts it.
type RTUReset struct{}

func (DeviceUpdate) Type() EventType { return EventDeviceUpdate }
func (DeviceEnact) Type() EventType  { return EventDeviceEnact }
func (RTUEnact) Type() EventType     { return EventRTUEnact }
func (RTUReset) Type() EventType     { return EventRTUReset }

func (DeviceUpdate) command() {}
func (DeviceEnact) command()  {}
func (RTUEnact) command()     {}
func (RTUReset) command()     {}

// DecodeInbound parses a raw client message into a Command, applying
// wire defaults for omitted fields.
func DecodeInbound(data []byte) (Command, error) {
	ev := InboundEvent{
		Devices:     []rtu.Device{},
		TimeBetween: DefaultTimeBetween,
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decoding inbound event: %w", err)
	}
	return ev.Command()
}

// Command converts the wire form into its typed command.
func (ev InboundEvent) Command() (Command, error) {
	devices := ev.Devices
	if devices == nil {
		devices = []rtu.Device{}
	}

	switch ev.EventType {
	case EventDeviceUpdate:
		return DeviceUpdate{Devices: devices}, nil
	case EventDeviceEnact:
		return DeviceEnact{
			Devices:     devices,
			Pace:        time.Duration(ev.TimeBetween) * time.Millisecond,
			HaltOnError: ev.HaltIfError,
		}, nil
	case EventRTUEnact:
		return RTUEnact{RTU: ev.RTU}, nil
	case EventRTUReset:
		return RTUReset{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.EventType)
	}
}

// ResponseType names an outbound event on the wire.
type ResponseType string

// Outbound response types.
const (
	ResponseError              ResponseType = "Error"
	ResponseLock               ResponseType = "Lock"
	ResponseUnlock             ResponseType = "Unlock"
	ResponseDeviceUpdateResult ResponseType = "DeviceUpdateResult"
	ResponseDeviceEnactResult  ResponseType = "DeviceEnactResult"
	ResponseRTUEnactResult     ResponseType = "RTUEnactResult"
	ResponseRTUSnapshot        ResponseType = "RTUSnapshot"
)

// Payload is the data attached to an outbound event: DevicesPayload,
// RTUPayload, or nil for none.
type Payload interface {
	payload()
}

// DevicesPayload carries a device list. It encodes as {"devices":[...]}.
type DevicesPayload struct {
	Devices []rtu.Device `json:"devices"`
}

// RTUPayload carries a full RTU snapshot. It encodes as {"RTU":{...}}.
type RTUPayload struct {
	RTU *rtu.RTU `json:"RTU"`
}

func (DevicesPayload) payload() {}
func (RTUPayload) payload()     {}

// OutboundEvent is a message from the hub to clients.
type OutboundEvent struct {
	Type    ResponseType `json:"response_type"`
	Message *string      `json:"message"`
	Data    Payload      `json:"data"`
}

// LockEvent tells clients to suspend input while the store is mutated.
func LockEvent() OutboundEvent { return OutboundEvent{Type: ResponseLock} }

// UnlockEvent tells clients input may resume.
func UnlockEvent() OutboundEvent { return OutboundEvent{Type: ResponseUnlock} }

// SnapshotEvent carries the full current RTU.
func SnapshotEvent(r *rtu.RTU) OutboundEvent {
	return OutboundEvent{Type: ResponseRTUSnapshot, Data: RTUPayload{RTU: r}}
}

// ErrorEvent reports a recoverable failure with optional diagnostic data.
func ErrorEvent(msg string, data Payload) OutboundEvent {
	return OutboundEvent{Type: ResponseError, Message: &msg, Data: data}
}

// ResultEvent builds a success result. A nil device list encodes as
// "data": null.
func ResultEvent(t ResponseType, msg string, devices []rtu.Device) OutboundEvent {
	ev := OutboundEvent{Type: t, Message: &msg}
	if devices != nil {
		ev.Data = DevicesPayload{Devices: devices}
	}
	return ev
}

// Text returns the message or "" when absent.
func (e OutboundEvent) Text() string {
	if e.Message == nil {
		return ""
	}
	return *e.Message
}

// Devices returns the attached device list, if any.
func (e OutboundEvent) Devices() []rtu.Device {
	if p, ok := e.Data.(DevicesPayload); ok {
		return p.Devices
	}
	return nil
}

// Snapshot returns the attached RTU, if any.
func (e OutboundEvent) Snapshot() *rtu.RTU {
	if p, ok := e.Data.(RTUPayload); ok {
		return p.RTU
	}
	return nil
}

// Encode serialises the event for the wire.
func (e OutboundEvent) Encode() ([]byte, error) {
	if p, ok := e.Data.(DevicesPayload); ok && p.Devices == nil {
		e.Data = DevicesPayload{Devices: []rtu.Device{}}
	}
	return json.Marshal(e)
}

// UnmarshalJSON implements json.Unmarshaler so clients and tests can
// decode hub output back into typed payloads.
func (e *OutboundEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    ResponseType    `json:"response_type"`
		Message *string         `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.Type = raw.Type
	e.Message = raw.Message
	e.Data = nil

	if len(raw.Data) == 0 || string(raw.Data) == "null" {
		return nil
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw.Data, &keys); err != nil {
		return fmt.Errorf("decoding event data: %w", err)
	}
	switch {
	case keys["RTU"] != nil:
		var p RTUPayload
		if err := json.Unmarshal(raw.Data, &p); err != nil {
			return err
		}
		e.Data = p
	case keys["devices"] != nil:
		var p DevicesPayload
		if err := json.Unmarshal(raw.Data, &p); err != nil {
			return err
		}
		e.Data = p
	}
	return nil
}
