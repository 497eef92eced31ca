package driver

import (
	"context"
	"fmt"
	"io"

	"github.com/nerrad567/iris/internal/rtu"
)

// STR1 frame bytes.
const (
	str1Header0  byte = 0x55
	str1Header1  byte = 0xAA
	str1Reply    byte = 0xAA
	str1Trailer  byte = 0x77
	str1CmdGet   byte = 0x14
	str1CmdSet   byte = 0x17
	str1MaxReply      = 16
)

// STR1 drives a relay board over its framed serial protocol.
//
// Request:  55 AA <len> <cmd> <board> <relay> [state] <sum> 77
// Reply:    AA <len> <data...> <sum> 77
//
// len counts the bytes between itself and the checksum. The checksum is
// the low byte of the sum of every preceding byte in the frame.
type STR1 struct {
	open   PortOpener
	baud   int
	logger Logger
}

// Update reads the relay into dev.State.
func (s *STR1) Update(_ context.Context, dev *rtu.Device) error {
	return s.with(dev, func(port io.ReadWriter) error {
		on, err := s.getRelay(port, dev)
		if err != nil {
			return err
		}
		dev.State = rtu.Binary(on)
		return nil
	})
}

// Enact sets the relay and reads it back.
func (s *STR1) Enact(_ context.Context, dev *rtu.Device) error {
	on, err := binaryState(dev)
	if err != nil {
		return err
	}
	return s.with(dev, func(port io.ReadWriter) error {
		var state byte
		if on {
			state = 1
		}
		if _, err := roundTrip(port, str1CmdSet, dev.ControllerAddr, dev.Addr, state); err != nil {
			return fmt.Errorf("setting relay %d: %w", dev.Addr, err)
		}
		got, err := s.getRelay(port, dev)
		if err != nil {
			return err
		}
		dev.State = rtu.Binary(got)
		s.logger.Debug("str1 relay set", "device_id", dev.ID, "relay", dev.Addr, "on", got)
		return nil
	})
}

func (s *STR1) getRelay(port io.ReadWriter, dev *rtu.Device) (bool, error) {
	data, err := roundTrip(port, str1CmdGet, dev.ControllerAddr, dev.Addr)
	if err != nil {
		return false, fmt.Errorf("reading relay %d: %w", dev.Addr, err)
	}
	if len(data) < 1 {
		return false, fmt.Errorf("reading relay %d: %w", dev.Addr, ErrShortResponse)
	}
	return data[0] == 1, nil
}

func (s *STR1) with(dev *rtu.Device, fn func(io.ReadWriter) error) error {
	port, err := s.open(dev.Port, s.baud)
	if err != nil {
		return err
	}
	defer port.Close() //nolint:errcheck // port close errors are not actionable
	return fn(port)
}

// encodeSTR1 builds a request frame.
func encodeSTR1(cmd byte, params ...byte) []byte {
	frame := make([]byte, 0, 6+len(params))
	frame = append(frame, str1Header0, str1Header1, byte(1+len(params)), cmd)
	frame = append(frame, params...)
	frame = append(frame, checksum(frame), str1Trailer)
	return frame
}

// decodeSTR1 reads one reply frame and returns its data bytes.
func decodeSTR1(r io.Reader) ([]byte, error) {
	head := make([]byte, 2)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("reading reply header: %w", err)
	}
	if head[0] != str1Reply {
		return nil, fmt.Errorf("%w: unexpected start byte 0x%02X", ErrBadFrame, head[0])
	}
	n := int(head[1])
	if n > str1MaxReply {
		return nil, fmt.Errorf("%w: length %d too large", ErrBadFrame, n)
	}

	rest := make([]byte, n+2)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, fmt.Errorf("reading reply body: %w", err)
	}
	if rest[n+1] != str1Trailer {
		return nil, fmt.Errorf("%w: missing trailer", ErrBadFrame)
	}

	frame := append(head, rest[:n]...)
	if checksum(frame) != rest[n] {
		return nil, ErrChecksum
	}
	return rest[:n], nil
}

func roundTrip(port io.ReadWriter, cmd byte, params ...byte) ([]byte, error) {
	if _, err := port.Write(encodeSTR1(cmd, params...)); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}
	return decodeSTR1(port)
}

func checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum
}
