package rtu

import (
	"context"
	"errors"
)

var errHardware = errors.New("hardware unreachable")

// fakeDriver records calls and fails for configured device IDs.
type fakeDriver struct {
	failOn  map[string]bool
	updated []string
	enacted []string
	pv      float64
}

func (f *fakeDriver) Update(_ context.Context, d *Device) error {
	f.updated = append(f.updated, d.ID)
	if f.failOn[d.ID] {
		d.State = Stepped(99) // must not leak into the RTU
		return errHardware
	}
	pv := f.pv
	d.PV = &pv
	return nil
}

func (f *fakeDriver) Enact(_ context.Context, d *Device) error {
	f.enacted = append(f.enacted, d.ID)
	if f.failOn[d.ID] {
		return errHardware
	}
	return nil
}

func testDevice(id string, state State) Device {
	return Device{
		ID:             id,
		Name:           id,
		Port:           "/dev/ttyUSB0",
		Controller:     ControllerSTR1,
		ControllerAddr: 254,
		State:          state,
	}
}

func testRTU(devices ...Device) *RTU {
	return &RTU{
		Name:    "Testing RTU",
		ID:      "testing-rtu",
		IPAddr:  "10.0.0.5",
		Devices: devices,
	}
}
