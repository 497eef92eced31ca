package rtu

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRTU_Update_KeepsPreviousValuesOnFailure(t *testing.T) {
	r := testRTU(testDevice("pump", Off()), testDevice("valve", On()), testDevice("heater", Off()))
	drv := &fakeDriver{failOn: map[string]bool{"valve": true}, pv: 66.5}

	err := r.Update(context.Background(), drv)
	if !errors.Is(err, errHardware) {
		t.Fatalf("Update() error = %v, want errHardware", err)
	}

	if diff := cmp.Diff([]string{"pump", "valve", "heater"}, drv.updated); diff != "" {
		t.Errorf("update order mismatch (-want +got):\n%s", diff)
	}

	valve, _ := r.Device("valve")
	if !valve.State.Equal(On()) || valve.PV != nil {
		t.Errorf("failed device was modified: %+v", valve)
	}

	for _, id := range []string{"pump", "heater"} {
		d, _ := r.Device(id)
		if d.PV == nil || *d.PV != 66.5 {
			t.Errorf("device %s not refreshed: pv=%v", id, d.PV)
		}
	}
}

func TestRTU_Enact_StopsAtFirstFailure(t *testing.T) {
	r := testRTU(testDevice("a", On()), testDevice("b", On()), testDevice("c", On()))
	drv := &fakeDriver{failOn: map[string]bool{"b": true}}

	err := r.Enact(context.Background(), drv)
	if !errors.Is(err, errHardware) {
		t.Fatalf("Enact() error = %v, want errHardware", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, drv.enacted); diff != "" {
		t.Errorf("enacted mismatch (-want +got):\n%s", diff)
	}
}

func TestRTU_CloneIsIndependent(t *testing.T) {
	pv := 10.0
	orig := testRTU(testDevice("pid", On()))
	orig.Devices[0].PV = &pv

	cpy := orig.Clone()
	*cpy.Devices[0].PV = 20
	cpy.Devices[0].State = Off()

	if *orig.Devices[0].PV != 10 || !orig.Devices[0].State.IsOn() {
		t.Errorf("original changed through clone: %+v", orig.Devices[0])
	}
}

func TestRTU_DeviceAndMerge(t *testing.T) {
	r := testRTU(testDevice("pump", Off()), testDevice("valve", Off()))

	if _, err := r.Device("missing"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Device(missing) error = %v, want ErrDeviceNotFound", err)
	}

	n := r.Merge([]Device{testDevice("valve", On()), testDevice("ghost", On())})
	if n != 1 {
		t.Errorf("Merge() = %d, want 1", n)
	}
	valve, _ := r.Device("valve")
	if !valve.State.IsOn() {
		t.Error("Merge() did not apply valve state")
	}
	if len(r.Devices) != 2 {
		t.Errorf("Merge() changed device count to %d", len(r.Devices))
	}
}

func TestController(t *testing.T) {
	for _, c := range AllControllers() {
		if !c.Known() || !c.RequiresBinary() {
			t.Errorf("controller %s: Known=%v RequiresBinary=%v", c, c.Known(), c.RequiresBinary())
		}
	}
	if Controller("Relay9000").Known() {
		t.Error("unknown controller reported as known")
	}
}
