package driver

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goburrow/modbus"
	"github.com/goburrow/serial"

	"github.com/nerrad567/iris/internal/rtu"
)

// Logger is the logging surface drivers use.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Config holds serial line parameters for every controller.
type Config struct {
	Timeout       time.Duration
	STR1Baud      int
	WaveshareBaud int
	CN7500Baud    int
}

// ModbusOpener connects a Modbus RTU client to a serial port for one slave.
// The returned close function releases the port.
type ModbusOpener func(port string, slaveID byte, baud int) (modbus.Client, func() error, error)

// PortOpener opens a raw serial port.
type PortOpener func(port string, baud int) (io.ReadWriteCloser, error)

// SerialModbusOpener returns a ModbusOpener backed by real serial hardware.
func SerialModbusOpener(timeout time.Duration) ModbusOpener {
	return func(port string, slaveID byte, baud int) (modbus.Client, func() error, error) {
		h := modbus.NewRTUClientHandler(port)
		h.BaudRate = baud
		h.DataBits = 8
		h.Parity = "N"
		h.StopBits = 1
		h.SlaveId = slaveID
		h.Timeout = timeout

		if err := h.Connect(); err != nil {
			return nil, nil, fmt.Errorf("connect %s: %w", port, err)
		}
		return modbus.NewClient(h), h.Close, nil
	}
}

// SerialPortOpener returns a PortOpener backed by real serial hardware.
func SerialPortOpener(timeout time.Duration) PortOpener {
	return func(port string, baud int) (io.ReadWriteCloser, error) {
		p, err := serial.Open(&serial.Config{
			Address:  port,
			BaudRate: baud,
			DataBits: 8,
			StopBits: 1,
			Parity:   "N",
			Timeout:  timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", port, err)
		}
		return p, nil
	}
}

// Dispatcher routes devices to the driver for their controller.
// It implements rtu.Driver.
type Dispatcher struct {
	str1      *STR1
	waveshare *Waveshare
	cn7500    *CN7500
}

// New creates a Dispatcher that talks to real serial hardware.
func New(cfg Config, logger Logger) *Dispatcher {
	return NewWithOpeners(cfg, SerialModbusOpener(cfg.Timeout), SerialPortOpener(cfg.Timeout), logger)
}

// NewWithOpeners creates a Dispatcher over the given port openers.
func NewWithOpeners(cfg Config, openModbus ModbusOpener, openPort PortOpener, logger Logger) *Dispatcher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Dispatcher{
		str1:      &STR1{open: openPort, baud: cfg.STR1Baud, logger: logger},
		waveshare: &Waveshare{open: openModbus, baud: cfg.WaveshareBaud, logger: logger},
		cn7500:    &CN7500{open: openModbus, baud: cfg.CN7500Baud, logger: logger},
	}
}

// Update reads hardware state into d.
func (d *Dispatcher) Update(ctx context.Context, dev *rtu.Device) error {
	drv, err := d.pick(dev.Controller)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return drv.Update(ctx, dev)
}

// Enact writes d's desired state to hardware and reads it back.
func (d *Dispatcher) Enact(ctx context.Context, dev *rtu.Device) error {
	drv, err := d.pick(dev.Controller)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return drv.Enact(ctx, dev)
}

func (d *Dispatcher) pick(c rtu.Controller) (rtu.Driver, error) {
	switch c {
	case rtu.ControllerSTR1:
		return d.str1, nil
	case rtu.ControllerWaveshare:
		return d.waveshare, nil
	case rtu.ControllerCN7500:
		return d.cn7500, nil
	default:
		return nil, fmt.Errorf("%w: %q", rtu.ErrUnknownController, c)
	}
}

// binaryState returns the On/Off value of a device or ErrStateMismatch.
func binaryState(dev *rtu.Device) (bool, error) {
	if !dev.State.IsBinary() {
		return false, fmt.Errorf("%w: device %q uses a binary state, found %s",
			rtu.ErrStateMismatch, dev.ID, dev.State)
	}
	return dev.State.IsOn(), nil
}
