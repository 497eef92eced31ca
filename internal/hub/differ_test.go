package hub

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nerrad567/iris/internal/rtu"
)

func TestPlan(t *testing.T) {
	current := testRTU(device("pump", rtu.Off()), device("valve", rtu.On()), device("heater", rtu.Off()))

	tests := []struct {
		name     string
		incoming *rtu.RTU
		want     []int
	}{
		{
			name:     "identical",
			incoming: current.Clone(),
			want:     nil,
		},
		{
			name:     "one state differs",
			incoming: testRTU(device("pump", rtu.Off()), device("valve", rtu.Off()), device("heater", rtu.Off())),
			want:     []int{1},
		},
		{
			name:     "unknown device is written",
			incoming: testRTU(device("pump", rtu.Off()), device("chiller", rtu.Off())),
			want:     []int{1},
		},
		{
			name:     "order follows incoming",
			incoming: testRTU(device("heater", rtu.On()), device("pump", rtu.On())),
			want:     []int{0, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Plan(tt.incoming, current)); diff != "" {
				t.Errorf("Plan() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApply_NoChangesMeansNoWrites(t *testing.T) {
	current := testRTU(device("pump", rtu.Off()), device("valve", rtu.On()))
	drv := newFakeDriver()
	store := NewStore(current.Clone(), drv)

	var (
		writes int
		err    error
	)
	store.Locked(func(tx *Tx) { writes, err = Apply(context.Background(), tx, current) })

	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if writes != 0 || len(drv.Calls()) != 0 {
		t.Errorf("writes = %d calls = %v, want none", writes, drv.Calls())
	}
}

func TestApply_WritesOnlyTheChangedDevice(t *testing.T) {
	drv := newFakeDriver()
	store := NewStore(testRTU(device("pump", rtu.Off()), device("valve", rtu.Off())), drv)

	incoming := testRTU(device("pump", rtu.Off()), device("valve", rtu.On()))

	var writes int
	store.Locked(func(tx *Tx) { writes, _ = Apply(context.Background(), tx, incoming) })

	if writes != 1 {
		t.Errorf("writes = %d, want 1", writes)
	}
	if diff := cmp.Diff([]string{"enact:valve"}, drv.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(incoming, store.Snapshot()); diff != "" {
		t.Errorf("store not replaced (-want +got):\n%s", diff)
	}
}

func TestApply_AbortsOnFirstFailure(t *testing.T) {
	drv := newFakeDriver("valve")
	before := testRTU(device("pump", rtu.Off()), device("valve", rtu.Off()), device("heater", rtu.Off()))
	store := NewStore(before.Clone(), drv)

	incoming := testRTU(device("pump", rtu.On()), device("valve", rtu.On()), device("heater", rtu.On()))

	var err error
	store.Locked(func(tx *Tx) { _, err = Apply(context.Background(), tx, incoming) })

	if !errors.Is(err, errHardware) {
		t.Fatalf("Apply() error = %v, want errHardware", err)
	}
	if diff := cmp.Diff([]string{"enact:pump", "enact:valve"}, drv.Calls()); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, store.Snapshot()); diff != "" {
		t.Errorf("store changed after failed apply (-want +got):\n%s", diff)
	}
}

func TestPlan_SetpointOnlyChangeIsNotWritten(t *testing.T) {
	pid := func(sv float64) rtu.Device {
		return rtu.Device{
			ID:             "kettle",
			Name:           "Kettle PID",
			Port:           "/dev/ttyUSB0",
			Addr:           0,
			Controller:     rtu.ControllerCN7500,
			ControllerAddr: 22,
			State:          rtu.On(),
			SV:             &sv,
		}
	}

	current := testRTU(pid(150))
	incoming := testRTU(pid(172.5))

	if got := Plan(incoming, current); len(got) != 0 {
		t.Errorf("Plan() = %v, want no writes for an sv-only change", got)
	}

	drv := newFakeDriver()
	store := NewStore(current, drv)
	store.Locked(func(tx *Tx) {
		if _, err := Apply(context.Background(), tx, incoming); err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
	})

	if calls := drv.Calls(); len(calls) != 0 {
		t.Errorf("hardware calls = %v, want none", calls)
	}
	kettle, _ := store.Snapshot().Device("kettle")
	if kettle.SV == nil || *kettle.SV != 172.5 {
		t.Errorf("stored sv = %v, want 172.5 pending the next enact", kettle.SV)
	}
}
