package driver

import (
	"context"
	"fmt"

	"github.com/goburrow/modbus"

	"github.com/nerrad567/iris/internal/rtu"
)

// Coil values for Modbus function 0x05.
const (
	coilOn  uint16 = 0xFF00
	coilOff uint16 = 0x0000
)

// Waveshare drives a Modbus RTU relay board. Each relay is one coil,
// addressed by the device's Addr; the board's slave ID is ControllerAddr.
type Waveshare struct {
	open   ModbusOpener
	baud   int
	logger Logger
}

// Update reads the relay coil into dev.State.
func (w *Waveshare) Update(_ context.Context, dev *rtu.Device) error {
	return w.with(dev, func(c modbus.Client) error {
		on, err := readCoil(c, uint16(dev.Addr))
		if err != nil {
			return fmt.Errorf("reading relay %d: %w", dev.Addr, err)
		}
		dev.State = rtu.Binary(on)
		return nil
	})
}

// Enact sets the relay coil and reads it back.
func (w *Waveshare) Enact(_ context.Context, dev *rtu.Device) error {
	on, err := binaryState(dev)
	if err != nil {
		return err
	}
	return w.with(dev, func(c modbus.Client) error {
		if err := writeCoil(c, uint16(dev.Addr), on); err != nil {
			return fmt.Errorf("setting relay %d: %w", dev.Addr, err)
		}
		got, err := readCoil(c, uint16(dev.Addr))
		if err != nil {
			return fmt.Errorf("reading relay %d: %w", dev.Addr, err)
		}
		dev.State = rtu.Binary(got)
		w.logger.Debug("waveshare relay set", "device_id", dev.ID, "relay", dev.Addr, "on", got)
		return nil
	})
}

func (w *Waveshare) with(dev *rtu.Device, fn func(modbus.Client) error) error {
	c, closeFn, err := w.open(dev.Port, dev.ControllerAddr, w.baud)
	if err != nil {
		return err
	}
	defer closeFn() //nolint:errcheck // port close errors are not actionable
	return fn(c)
}

func readCoil(c modbus.Client, addr uint16) (bool, error) {
	res, err := c.ReadCoils(addr, 1)
	if err != nil {
		return false, err
	}
	if len(res) < 1 {
		return false, ErrShortResponse
	}
	return res[0]&0x01 == 0x01, nil
}

func writeCoil(c modbus.Client, addr uint16, on bool) error {
	v := coilOff
	if on {
		v = coilOn
	}
	_, err := c.WriteSingleCoil(addr, v)
	return err
}
