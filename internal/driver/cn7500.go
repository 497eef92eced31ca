package driver

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/goburrow/modbus"

	"github.com/nerrad567/iris/internal/rtu"
)

// CN7500 register map.
const (
	cn7500RegPV    uint16 = 0x1000
	cn7500RegSV    uint16 = 0x1001
	cn7500CoilRun  uint16 = 0x0814
	cn7500Scale           = 10.0
	cn7500MaxValue        = 6553.5
)

// CN7500 drives a PID controller. The device's state is its run/stop
// flag; PV and SV are read from holding registers in tenths of a degree.
type CN7500 struct {
	open   ModbusOpener
	baud   int
	logger Logger
}

// Update reads PV, SV and the run flag into dev.
func (p *CN7500) Update(_ context.Context, dev *rtu.Device) error {
	return p.with(dev, func(c modbus.Client) error {
		return p.read(c, dev)
	})
}

// Enact writes SV (when set) and the run flag, then reads everything back.
func (p *CN7500) Enact(_ context.Context, dev *rtu.Device) error {
	run, err := binaryState(dev)
	if err != nil {
		return err
	}
	return p.with(dev, func(c modbus.Client) error {
		if dev.SV != nil {
			if *dev.SV < 0 || *dev.SV > cn7500MaxValue {
				return fmt.Errorf("setpoint %.1f out of range for device %q", *dev.SV, dev.ID)
			}
			raw := uint16(math.Round(*dev.SV * cn7500Scale))
			if _, err := c.WriteSingleRegister(cn7500RegSV, raw); err != nil {
				return fmt.Errorf("writing setpoint: %w", err)
			}
		}
		if err := writeCoil(c, cn7500CoilRun, run); err != nil {
			return fmt.Errorf("writing run flag: %w", err)
		}
		p.logger.Debug("cn7500 enacted", "device_id", dev.ID, "run", run)
		return p.read(c, dev)
	})
}

func (p *CN7500) read(c modbus.Client, dev *rtu.Device) error {
	pv, err := readScaled(c, cn7500RegPV)
	if err != nil {
		return fmt.Errorf("reading process value: %w", err)
	}
	sv, err := readScaled(c, cn7500RegSV)
	if err != nil {
		return fmt.Errorf("reading setpoint: %w", err)
	}
	running, err := readCoil(c, cn7500CoilRun)
	if err != nil {
		return fmt.Errorf("reading run flag: %w", err)
	}

	dev.PV = &pv
	dev.SV = &sv
	dev.State = rtu.Binary(running)
	return nil
}

func (p *CN7500) with(dev *rtu.Device, fn func(modbus.Client) error) error {
	c, closeFn, err := p.open(dev.Port, dev.ControllerAddr, p.baud)
	if err != nil {
		return err
	}
	defer closeFn() //nolint:errcheck // port close errors are not actionable
	return fn(c)
}

func readScaled(c modbus.Client, reg uint16) (float64, error) {
	res, err := c.ReadHoldingRegisters(reg, 1)
	if err != nil {
		return 0, err
	}
	if len(res) < 2 {
		return 0, ErrShortResponse
	}
	return float64(binary.BigEndian.Uint16(res)) / cn7500Scale, nil
}
