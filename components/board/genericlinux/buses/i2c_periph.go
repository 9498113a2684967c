package buses

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var hostInitOnce = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// periphBus is an I2C bus opened through periph.io, e.g. "1" or "/dev/i2c-1".
type periphBus struct {
	mu   sync.Mutex
	name string
	bus  i2c.BusCloser
}

// NewI2cBus opens the named I2C bus. An empty name opens the first bus the host reports.
func NewI2cBus(name string) (I2C, error) {
	if err := hostInitOnce(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize periph host drivers")
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open I2C bus %q", name)
	}
	return &periphBus{name: name, bus: bus}, nil
}

// OpenHandle locks the bus until the returned handle is closed.
func (b *periphBus) OpenHandle(addr byte) (I2CHandle, error) {
	b.mu.Lock()
	return &periphHandle{parent: b, dev: &i2c.Dev{Bus: b.bus, Addr: uint16(addr)}}, nil
}

// Close releases the underlying bus.
func (b *periphBus) Close() error {
	return b.bus.Close()
}

type periphHandle struct {
	parent *periphBus
	dev    *i2c.Dev
	closed bool
}

func (h *periphHandle) Write(ctx context.Context, tx []byte) error {
	written, err := h.dev.Write(tx)
	if err != nil {
		return err
	}
	if written != len(tx) {
		return errors.Errorf("not all bytes were written to I2C address %#x on bus %q: had %d, wrote %d",
			h.dev.Addr, h.parent.name, len(tx), written)
	}
	return nil
}

func (h *periphHandle) Read(ctx context.Context, count int) ([]byte, error) {
	buffer := make([]byte, count)
	if err := h.dev.Tx(nil, buffer); err != nil {
		return nil, err
	}
	return buffer, nil
}

func (h *periphHandle) ReadByteData(ctx context.Context, register byte) (byte, error) {
	results, err := h.ReadBlockData(ctx, register, 1)
	if err != nil {
		return 0, err
	}
	return results[0], nil
}

func (h *periphHandle) WriteByteData(ctx context.Context, register, data byte) error {
	return h.Write(ctx, []byte{register, data})
}

func (h *periphHandle) ReadBlockData(ctx context.Context, register byte, numBytes uint8) ([]byte, error) {
	results := make([]byte, numBytes)
	if err := h.dev.Tx([]byte{register}, results); err != nil {
		return nil, errors.Wrapf(err, "failed to read %d bytes from register %#x at I2C address %#x",
			numBytes, register, h.dev.Addr)
	}
	return results, nil
}

// WriteBlockData sends the register followed by the data in one transaction.
func (h *periphHandle) WriteBlockData(ctx context.Context, register byte, data []byte) error {
	rawData := make([]byte, 0, len(data)+1)
	rawData = append(rawData, register)
	rawData = append(rawData, data...)
	return h.Write(ctx, rawData)
}

func (h *periphHandle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.parent.mu.Unlock()
	return nil
}
