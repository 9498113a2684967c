package fake

import (
	"context"
	"testing"

	"go.viam.com/test"
)

func TestRegisterFile(t *testing.T) {
	ctx := context.Background()
	bus := NewI2C()

	handle, err := bus.OpenHandle(0x40)
	test.That(t, err, test.ShouldBeNil)

	_, err = bus.OpenHandle(0x40)
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, handle.WriteByteData(ctx, 0x00, 0x21), test.ShouldBeNil)
	test.That(t, handle.WriteBlockData(ctx, 0x06, []byte{1, 2, 3, 4}), test.ShouldBeNil)

	value, err := handle.ReadByteData(ctx, 0x00)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value, test.ShouldEqual, byte(0x21))

	block, err := handle.ReadBlockData(ctx, 0x06, 4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, block, test.ShouldResemble, []byte{1, 2, 3, 4})

	// The pointer sits after the last register read.
	test.That(t, handle.Write(ctx, []byte{0x08}), test.ShouldBeNil)
	next, err := handle.Read(ctx, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, next, test.ShouldResemble, []byte{3, 4})

	test.That(t, handle.Close(), test.ShouldBeNil)
	test.That(t, bus.Register(0x40, 0x07), test.ShouldEqual, byte(2))

	writes := bus.Writes()
	test.That(t, writes, test.ShouldHaveLength, 3)
	test.That(t, writes[1], test.ShouldResemble, Transaction{Addr: 0x40, Register: 0x06, Data: []byte{1, 2, 3, 4}})

	bus.ResetWrites()
	test.That(t, bus.Writes(), test.ShouldBeEmpty)
}

func TestFailWrites(t *testing.T) {
	bus := NewI2C()
	bus.FailWrites = true

	handle, err := bus.OpenHandle(0x40)
	test.That(t, err, test.ShouldBeNil)
	defer handle.Close()

	test.That(t, handle.WriteByteData(context.Background(), 0, 1), test.ShouldNotBeNil)
	test.That(t, bus.Writes(), test.ShouldBeEmpty)
}
