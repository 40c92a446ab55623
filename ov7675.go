// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package ov7675 provides a driver for OV7675 image sensors.
//
// The sensor is controlled through its register file, accessed over a
// two-wire (SCCB) bus, and streams pixel data over an 8-bit parallel port.
// This package covers the register side: identity probing and output format
// selection. The parallel port is sampled by the capture package, and the two
// are combined by Camera.
//
// Example of use:
//
//  c, err := gpiocdev.NewChip("gpiochip0", gpiocdev.WithConsumer("ov7675"))
//  if err != nil {
//  	panic(err)
//  }
//  w := rpi.DefaultWiring
//  b, err := sccb.New(c, w.SDA, w.SCL)
//  if err != nil {
//  	panic(err)
//  }
//  d := ov7675.New(b)
//  defer d.Close()
//  id, err := d.Detect()
//  if err != nil {
//  	panic(err)
//  }
//  fmt.Printf("found PID 0x%02x VER 0x%02x\n", id.PID, id.Version)
//  err = d.ApplyFormat(ov7675.FormatRGB565)
package ov7675

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Bus is a two-wire bus that carries transactions to the sensor.
//
// Both methods return the number of bytes acknowledged, or transferred, on the
// bus. If stop is false the bus is held, without a stop condition, so the next
// transaction begins with a repeated start.
type Bus interface {
	Write(addr uint8, p []byte, stop bool) (int, error)
	Read(addr uint8, p []byte, stop bool) (int, error)
}

// Device is an OV7675 connected to a Bus.
//
// Transactions from concurrent callers are serialised.
type Device struct {
	// mutex covers the attributes below it.
	mu   sync.Mutex
	bus  Bus
	addr uint8
	regs RegisterMap
	log  *slog.Logger
}

// New creates a Device on the bus.
func New(bus Bus, options ...Option) *Device {
	d := Device{
		bus:  bus,
		addr: DefaultAddress,
		regs: DefaultRegisterMap,
	}
	for _, option := range options {
		option(&d)
	}
	if d.log == nil {
		d.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &d
}

// Close releases the bus.
//
// The bus is closed if it implements io.Closer.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bus == nil {
		return ErrClosed
	}
	var err error
	if c, ok := d.bus.(io.Closer); ok {
		err = c.Close()
	}
	d.bus = nil
	return err
}

// Address returns the 7-bit bus address of the device.
func (d *Device) Address() uint8 {
	return d.addr
}

// RegisterMap returns the register map used by the device.
func (d *Device) RegisterMap() RegisterMap {
	return d.regs
}

// ReadRegister returns the value of a single register.
//
// The register address is written without a stop, and the value read back
// following a repeated start.
func (d *Device) ReadRegister(reg Register) (uint8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readRegister(reg)
}

// WriteRegister sets the value of a single register.
func (d *Device) WriteRegister(reg Register, v uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeRegister(reg, v)
}

// Modify performs a read-modify-write of a register.
//
// The register is read, passed through fn, and the result written back. The
// bus is not released to other callers between the read and the write.
func (d *Device) Modify(reg Register, fn func(uint8) uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.modify(reg, fn)
}

// SetClear sets, then clears, bits in a register using read-modify-write.
func (d *Device) SetClear(reg Register, set, clear uint8) error {
	return d.Modify(reg, setClear(set, clear))
}

// Identity is the product identity read from the sensor.
type Identity struct {
	PID     uint8
	Version uint8

	// Present is true only if both PID and Version match the expected values.
	Present bool
}

func (id Identity) String() string {
	return fmt.Sprintf("PID=0x%02X VER=0x%02X", id.PID, id.Version)
}

// ProbeIdentity reads the identity registers.
//
// An error is returned if either read fails. There are no retries.
func (d *Device) ProbeIdentity() (Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var id Identity
	var err error
	id.PID, err = d.readRegister(d.regs.PID)
	if err != nil {
		return id, err
	}
	id.Version, err = d.readRegister(d.regs.VER)
	if err != nil {
		return id, err
	}
	id.Present = id.PID == d.regs.ExpectedPID && id.Version == d.regs.ExpectedVER
	return id, nil
}

// Detect probes the identity and returns an error if the sensor is not
// present.
//
// A sensor that responds with an unexpected identity is reported as an
// IdentityError, which matches ErrNotDetected.
func (d *Device) Detect() (Identity, error) {
	id, err := d.ProbeIdentity()
	if err != nil {
		return id, err
	}
	if !id.Present {
		return id, IdentityError{
			Have:    id,
			WantPID: d.regs.ExpectedPID,
			WantVER: d.regs.ExpectedVER,
		}
	}
	return id, nil
}

func (d *Device) readRegister(reg Register) (uint8, error) {
	if d.bus == nil {
		return 0, ErrClosed
	}
	n, err := d.bus.Write(d.addr, []byte{uint8(reg)}, false)
	if err != nil || n != 1 {
		return 0, &RegisterError{Op: "read", Reg: reg, Want: 1, Got: n, Err: err}
	}
	v := []byte{0}
	n, err = d.bus.Read(d.addr, v, true)
	if err != nil || n != 1 {
		return 0, &RegisterError{Op: "read", Reg: reg, Want: 1, Got: n, Err: err}
	}
	return v[0], nil
}

func (d *Device) writeRegister(reg Register, v uint8) error {
	if d.bus == nil {
		return ErrClosed
	}
	n, err := d.bus.Write(d.addr, []byte{uint8(reg), v}, true)
	if err != nil || n != 2 {
		return &RegisterError{Op: "write", Reg: reg, Want: 2, Got: n, Err: err}
	}
	return nil
}

func (d *Device) modify(reg Register, fn func(uint8) uint8) error {
	v, err := d.readRegister(reg)
	if err != nil {
		return err
	}
	nv := fn(v)
	if err = d.writeRegister(reg, nv); err != nil {
		return err
	}
	d.log.Debug("modified register", "reg", reg, "from", v, "to", nv)
	return nil
}

func setClear(set, clear uint8) func(uint8) uint8 {
	return func(v uint8) uint8 {
		return (v | set) &^ clear
	}
}

// Option specifies a construction option for the Device.
type Option func(*Device)

// WithAddress sets the 7-bit bus address of the device.
func WithAddress(addr uint8) Option {
	return func(d *Device) {
		d.addr = addr
	}
}

// WithRegisterMap sets the register map for the device.
func WithRegisterMap(m RegisterMap) Option {
	return func(d *Device) {
		d.regs = m
	}
}

// WithLogger sets the logger for the device.
//
// Failed format changes are logged at error level, and register changes at
// debug level. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) {
		d.log = l
	}
}

var (
	// ErrClosed indicates the device is closed.
	ErrClosed = errors.New("closed")

	// ErrNotDetected indicates the sensor identity does not match the expected
	// identity.
	ErrNotDetected = errors.New("sensor not detected")
)

// RegisterError indicates a register transaction failed to transfer the
// expected number of bytes.
type RegisterError struct {
	// Op is "read" or "write".
	Op   string
	Reg  Register
	Want int
	Got  int
	// The underlying bus error, if any.
	Err  error
}

func (e *RegisterError) Error() string {
	msg := fmt.Sprintf("%s %s: transferred %d of %d bytes", e.Op, e.Reg, e.Got, e.Want)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RegisterError) Unwrap() error {
	return e.Err
}

// IdentityError indicates the sensor responded with an unexpected identity.
type IdentityError struct {
	Have    Identity
	WantPID uint8
	WantVER uint8
}

func (e IdentityError) Error() string {
	return fmt.Sprintf("unexpected identity %s, want PID=0x%02X VER=0x%02X",
		e.Have, e.WantPID, e.WantVER)
}

// Is matches ErrNotDetected.
func (e IdentityError) Is(target error) bool {
	return target == ErrNotDetected
}
