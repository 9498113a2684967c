// Package fake implements an in-memory I2C bus whose devices are plain register files.
package fake

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/mecadrive/components/board/genericlinux/buses"
)

// Transaction is one write observed on the fake bus.
type Transaction struct {
	Addr     byte
	Register byte
	Data     []byte
}

// I2C is a fake bus. Every address holds 256 registers; block accesses auto-increment the
// register pointer the way register based chips do.
type I2C struct {
	mu        sync.Mutex
	registers map[byte]*[256]byte
	pointer   map[byte]byte
	writes    []Transaction
	open      bool

	// FailWrites makes every write return an error, to exercise bus failure paths.
	FailWrites bool
}

var _ buses.I2C = &I2C{}

// NewI2C returns an empty fake bus.
func NewI2C() *I2C {
	return &I2C{
		registers: make(map[byte]*[256]byte),
		pointer:   make(map[byte]byte),
	}
}

// OpenHandle returns a handle on the device at addr. Like a real bus, only one handle may be
// open at a time.
func (bus *I2C) OpenHandle(addr byte) (buses.I2CHandle, error) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.open {
		return nil, errors.New("fake I2C bus already has an open handle")
	}
	bus.open = true
	return &i2cHandle{bus: bus, addr: addr}, nil
}

// Register returns the current value of a register without recording a transaction.
func (bus *I2C) Register(addr, register byte) byte {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	return bus.device(addr)[register]
}

// SetRegister presets a register, e.g. to emulate a chip's power-on value.
func (bus *I2C) SetRegister(addr, register, value byte) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.device(addr)[register] = value
}

// Writes returns a copy of every write seen so far, in order.
func (bus *I2C) Writes() []Transaction {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	out := make([]Transaction, len(bus.writes))
	copy(out, bus.writes)
	return out
}

// ResetWrites forgets the recorded writes but keeps register contents.
func (bus *I2C) ResetWrites() {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.writes = nil
}

// must hold bus.mu.
func (bus *I2C) device(addr byte) *[256]byte {
	regs, ok := bus.registers[addr]
	if !ok {
		regs = &[256]byte{}
		bus.registers[addr] = regs
	}
	return regs
}

func (bus *I2C) write(addr, register byte, data []byte) error {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if bus.FailWrites {
		return errors.Errorf("fake I2C write to %#x failed", addr)
	}
	regs := bus.device(addr)
	for i, b := range data {
		regs[register+byte(i)] = b
	}
	bus.pointer[addr] = register + byte(len(data))
	bus.writes = append(bus.writes, Transaction{Addr: addr, Register: register, Data: append([]byte(nil), data...)})
	return nil
}

func (bus *I2C) read(addr, register byte, count int) []byte {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	regs := bus.device(addr)
	out := make([]byte, count)
	for i := range out {
		out[i] = regs[register+byte(i)]
	}
	bus.pointer[addr] = register + byte(count)
	return out
}

type i2cHandle struct {
	bus    *I2C
	addr   byte
	closed bool
}

// Write treats the first byte as the register pointer, as a register based chip would.
func (h *i2cHandle) Write(ctx context.Context, tx []byte) error {
	if len(tx) == 0 {
		return nil
	}
	return h.bus.write(h.addr, tx[0], tx[1:])
}

func (h *i2cHandle) Read(ctx context.Context, count int) ([]byte, error) {
	h.bus.mu.Lock()
	register := h.bus.pointer[h.addr]
	h.bus.mu.Unlock()
	return h.bus.read(h.addr, register, count), nil
}

func (h *i2cHandle) ReadByteData(ctx context.Context, register byte) (byte, error) {
	return h.bus.read(h.addr, register, 1)[0], nil
}

func (h *i2cHandle) WriteByteData(ctx context.Context, register, data byte) error {
	return h.bus.write(h.addr, register, []byte{data})
}

func (h *i2cHandle) ReadBlockData(ctx context.Context, register byte, numBytes uint8) ([]byte, error) {
	return h.bus.read(h.addr, register, int(numBytes)), nil
}

func (h *i2cHandle) WriteBlockData(ctx context.Context, register byte, data []byte) error {
	return h.bus.write(h.addr, register, data)
}

func (h *i2cHandle) Close() error {
	h.bus.mu.Lock()
	defer h.bus.mu.Unlock()
	if !h.closed {
		h.closed = true
		h.bus.open = false
	}
	return nil
}
