package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/iris/internal/rtu"
)

var errHardware = errors.New("relay board not responding")

// fakeDriver is a concurrency-safe rtu.Driver that records every call.
type fakeDriver struct {
	mu      sync.Mutex
	failOn  map[string]bool
	panicOn string
	calls   []string
}

func newFakeDriver(failing ...string) *fakeDriver {
	f := &fakeDriver{failOn: map[string]bool{}}
	for _, id := range failing {
		f.failOn[id] = true
	}
	return f
}

func (f *fakeDriver) Update(_ context.Context, d *rtu.Device) error {
	return f.record("update:"+d.ID, d.ID)
}

func (f *fakeDriver) Enact(_ context.Context, d *rtu.Device) error {
	return f.record("enact:"+d.ID, d.ID)
}

func (f *fakeDriver) record(call, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn == id {
		panic("driver exploded")
	}
	f.calls = append(f.calls, call)
	if f.failOn[id] {
		return errHardware
	}
	return nil
}

func (f *fakeDriver) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeDriver) setFailing(id string, failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[id] = failing
}

// recorder is a Broadcaster that keeps every event in order.
type recorder struct {
	mu     sync.Mutex
	events []OutboundEvent
	direct map[string][]OutboundEvent
}

func (r *recorder) Broadcast(ev OutboundEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) SendTo(id string, ev OutboundEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.direct == nil {
		r.direct = map[string][]OutboundEvent{}
	}
	r.direct[id] = append(r.direct[id], ev)
}

func (r *recorder) Types() []ResponseType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ResponseType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func device(id string, state rtu.State) rtu.Device {
	return rtu.Device{
		ID:             id,
		Name:           id,
		Port:           "/dev/ttyUSB0",
		Addr:           1,
		Controller:     rtu.ControllerSTR1,
		ControllerAddr: 254,
		State:          state,
	}
}

func testRTU(devices ...rtu.Device) *rtu.RTU {
	return &rtu.RTU{
		Name:    "Testing RTU",
		ID:      "testing-rtu",
		IPAddr:  "10.0.0.5",
		Devices: devices,
	}
}

// waitFor polls cond until it is true or the deadline passes.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}
