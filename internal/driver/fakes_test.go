package driver

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/goburrow/modbus"
)

var errBus = errors.New("bus timeout")

// fakeModbus is an in-memory slave. Unused Client methods panic via the
// nil embedded interface.
type fakeModbus struct {
	modbus.Client

	coils     map[uint16]bool
	registers map[uint16]uint16
	writes    []string
	failRead  bool
}

func newFakeModbus() *fakeModbus {
	return &fakeModbus{coils: map[uint16]bool{}, registers: map[uint16]uint16{}}
}

func (f *fakeModbus) ReadCoils(address, quantity uint16) ([]byte, error) {
	if f.failRead {
		return nil, errBus
	}
	if f.coils[address] {
		return []byte{0x01}, nil
	}
	return []byte{0x00}, nil
}

func (f *fakeModbus) WriteSingleCoil(address, value uint16) ([]byte, error) {
	f.writes = append(f.writes, "coil")
	f.coils[address] = value == coilOn
	return nil, nil
}

func (f *fakeModbus) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	if f.failRead {
		return nil, errBus
	}
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out, f.registers[address])
	return out, nil
}

func (f *fakeModbus) WriteSingleRegister(address, value uint16) ([]byte, error) {
	f.writes = append(f.writes, "register")
	f.registers[address] = value
	return nil, nil
}

// modbusBus hands out the same fake slave for every open and records the
// parameters it was opened with.
type modbusBus struct {
	slave    *fakeModbus
	opens    int
	closes   int
	lastPort string
	lastID   byte
	lastBaud int
	openErr  error
}

func (b *modbusBus) open(port string, slaveID byte, baud int) (modbus.Client, func() error, error) {
	if b.openErr != nil {
		return nil, nil, b.openErr
	}
	b.opens++
	b.lastPort, b.lastID, b.lastBaud = port, slaveID, baud
	return b.slave, func() error { b.closes++; return nil }, nil
}

// fakePort captures writes and replays queued replies.
type fakePort struct {
	written bytes.Buffer
	replies bytes.Buffer
	closed  bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.replies.Len() == 0 {
		return 0, io.EOF
	}
	return p.replies.Read(b)
}

func (p *fakePort) Write(b []byte) (int, error) { return p.written.Write(b) }

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

// reply builds a well-formed STR1 reply frame.
func reply(data ...byte) []byte {
	frame := []byte{str1Reply, byte(len(data))}
	frame = append(frame, data...)
	return append(frame, checksum(frame), str1Trailer)
}
