package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nerrad567/iris/internal/rtu"
)

func TestWaveshare_EnactAndUpdate(t *testing.T) {
	bus := &modbusBus{slave: newFakeModbus()}
	ws := &Waveshare{open: bus.open, baud: 9600, logger: noopLogger{}}

	dev := &rtu.Device{ID: "valve", Port: "/dev/ttyUSB1", Addr: 5, Controller: rtu.ControllerWaveshare, ControllerAddr: 1, State: rtu.On()}
	if err := ws.Enact(context.Background(), dev); err != nil {
		t.Fatalf("Enact() error = %v", err)
	}
	if !bus.slave.coils[5] {
		t.Error("coil 5 not set")
	}
	if bus.lastID != 1 || bus.lastBaud != 9600 || bus.lastPort != "/dev/ttyUSB1" {
		t.Errorf("opened with port=%s id=%d baud=%d", bus.lastPort, bus.lastID, bus.lastBaud)
	}

	bus.slave.coils[5] = false
	if err := ws.Update(context.Background(), dev); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if dev.State.IsOn() {
		t.Error("Update() did not read coil off")
	}
	if bus.opens != 2 || bus.closes != 2 {
		t.Errorf("opens=%d closes=%d, want 2/2", bus.opens, bus.closes)
	}
}

func TestWaveshare_ReadError(t *testing.T) {
	slave := newFakeModbus()
	slave.failRead = true
	ws := &Waveshare{open: (&modbusBus{slave: slave}).open, logger: noopLogger{}}

	dev := &rtu.Device{ID: "valve", Controller: rtu.ControllerWaveshare}
	if err := ws.Update(context.Background(), dev); !errors.Is(err, errBus) {
		t.Errorf("Update() error = %v, want errBus", err)
	}
}

func TestCN7500_Enact(t *testing.T) {
	slave := newFakeModbus()
	slave.registers[cn7500RegPV] = 1234 // 123.4
	bus := &modbusBus{slave: slave}
	pid := &CN7500{open: bus.open, baud: 19200, logger: noopLogger{}}

	sv := 152.5
	dev := &rtu.Device{ID: "hlt", Controller: rtu.ControllerCN7500, ControllerAddr: 22, State: rtu.On(), SV: &sv}
	if err := pid.Enact(context.Background(), dev); err != nil {
		t.Fatalf("Enact() error = %v", err)
	}

	if diff := cmp.Diff([]string{"register", "coil"}, slave.writes); diff != "" {
		t.Errorf("write order mismatch (-want +got):\n%s", diff)
	}
	if slave.registers[cn7500RegSV] != 1525 {
		t.Errorf("SV register = %d, want 1525", slave.registers[cn7500RegSV])
	}
	if dev.PV == nil || *dev.PV != 123.4 {
		t.Errorf("PV = %v, want 123.4", dev.PV)
	}
	if dev.SV == nil || *dev.SV != 152.5 {
		t.Errorf("SV = %v, want 152.5", dev.SV)
	}
	if !dev.State.IsOn() {
		t.Error("State = Off, want On")
	}
}

func TestCN7500_EnactWithoutSetpointOnlyWritesRunFlag(t *testing.T) {
	slave := newFakeModbus()
	slave.coils[cn7500CoilRun] = true
	pid := &CN7500{open: (&modbusBus{slave: slave}).open, logger: noopLogger{}}

	dev := &rtu.Device{ID: "hlt", Controller: rtu.ControllerCN7500, State: rtu.Off()}
	if err := pid.Enact(context.Background(), dev); err != nil {
		t.Fatalf("Enact() error = %v", err)
	}
	if diff := cmp.Diff([]string{"coil"}, slave.writes); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
	if slave.coils[cn7500CoilRun] {
		t.Error("controller still running after stop")
	}
}

func TestCN7500_RejectsSteppedAndOutOfRange(t *testing.T) {
	pid := &CN7500{open: (&modbusBus{slave: newFakeModbus()}).open, logger: noopLogger{}}

	stepped := &rtu.Device{ID: "hlt", Controller: rtu.ControllerCN7500, State: rtu.Stepped(1)}
	if err := pid.Enact(context.Background(), stepped); !errors.Is(err, rtu.ErrStateMismatch) {
		t.Errorf("Enact(stepped) error = %v, want ErrStateMismatch", err)
	}

	hot := 9000.0
	tooHot := &rtu.Device{ID: "hlt", Controller: rtu.ControllerCN7500, State: rtu.On(), SV: &hot}
	if err := pid.Enact(context.Background(), tooHot); err == nil {
		t.Error("Enact() accepted an out of range setpoint")
	}
}

func TestDispatcher_Routes(t *testing.T) {
	slave := newFakeModbus()
	bus := &modbusBus{slave: slave}
	port := &fakePort{}
	port.replies.Write(reply(0x01))

	d := NewWithOpeners(Config{STR1Baud: 38400, WaveshareBaud: 9600, CN7500Baud: 19200},
		bus.open, newSTR1(port).open, nil)

	str1 := relayDevice(rtu.Off())
	if err := d.Update(context.Background(), str1); err != nil {
		t.Fatalf("Update(STR1) error = %v", err)
	}
	if !str1.State.IsOn() {
		t.Error("STR1 update not routed to serial driver")
	}

	pid := &rtu.Device{ID: "hlt", Controller: rtu.ControllerCN7500}
	if err := d.Update(context.Background(), pid); err != nil {
		t.Fatalf("Update(CN7500) error = %v", err)
	}
	if bus.lastBaud != 19200 {
		t.Errorf("CN7500 opened at %d baud, want 19200", bus.lastBaud)
	}

	unknown := &rtu.Device{ID: "x", Controller: "Relay9000"}
	if err := d.Enact(context.Background(), unknown); !errors.Is(err, rtu.ErrUnknownController) {
		t.Errorf("Enact(unknown) error = %v, want ErrUnknownController", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Enact(ctx, relayDevice(rtu.On())); !errors.Is(err, context.Canceled) {
		t.Errorf("Enact(cancelled) error = %v, want context.Canceled", err)
	}
}
