// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// Package sccb provides a bit bashed SCCB (two-wire) bus using two GPIO lines.
//
// SCCB is the I2C compatible register bus of OmniVision sensors. Both lines
// are driven open drain by switching the line between output low and input,
// so both require pull-ups, either on the board or applied by the line bias.
//
// This is not related to the I2C device drivers provided by Linux. See the i2c
// package for those.
package sccb

import (
	"errors"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// wire is one line of the bus.
type wire interface {
	// level returns the level of the line.
	level() (int, error)

	// drive pulls the line low for 0 and releases it for 1.
	drive(v int) error

	close() error
}

// SCCB is a two-wire bus master on GPIO lines.
//
// An SCCB is not safe for concurrent use by multiple goroutines.
type SCCB struct {
	// time between clock edges (i.e. half the cycle time)
	Tclk time.Duration
	sda  wire
	scl  wire
	// bus held with SCL low after a transaction ended without a stop.
	held bool
}

// New creates an SCCB on the sda and scl lines of the chip.
func New(c *gpiocdev.Chip, sda, scl int, options ...Option) (*SCCB, error) {
	var err error
	var sdaw, sclw *gpioWire
	defer func() {
		if err != nil {
			if sdaw != nil {
				sdaw.close()
			}
			if sclw != nil {
				sclw.close()
			}
		}
	}()
	sclw, err = newGPIOWire(c, scl)
	if err != nil {
		return nil, err
	}
	sdaw, err = newGPIOWire(c, sda)
	if err != nil {
		return nil, err
	}
	return newSCCB(sdaw, sclw, options...), nil
}

func newSCCB(sda, scl wire, options ...Option) *SCCB {
	s := SCCB{sda: sda, scl: scl}
	for _, option := range options {
		option(&s)
	}
	if s.Tclk == 0 {
		// default to 100kHz full cycle.
		s.Tclk = 5 * time.Microsecond
	}
	return &s
}

// Close releases the lines.
func (s *SCCB) Close() error {
	if s.sda == nil {
		return ErrClosed
	}
	err := s.sda.close()
	if cerr := s.scl.close(); err == nil {
		err = cerr
	}
	s.sda = nil
	s.scl = nil
	return err
}

// Write writes p to the device at the 7-bit address.
//
// Returns the number of bytes of p acknowledged by the device. If stop is
// false the bus is held for a repeated start by the next transaction.
func (s *SCCB) Write(addr uint8, p []byte, stop bool) (int, error) {
	if s.sda == nil {
		return 0, ErrClosed
	}
	err := s.start()
	if err != nil {
		return 0, s.abort(err)
	}
	err = s.writeByte(addr << 1)
	if err != nil {
		return 0, s.abort(err)
	}
	for i, b := range p {
		err = s.writeByte(b)
		if err != nil {
			return i, s.abort(err)
		}
	}
	if stop {
		return len(p), s.stop()
	}
	s.held = true
	return len(p), nil
}

// Read reads len(p) bytes from the device at the 7-bit address.
//
// All bytes other than the last are acknowledged.
func (s *SCCB) Read(addr uint8, p []byte, stop bool) (int, error) {
	if s.sda == nil {
		return 0, ErrClosed
	}
	err := s.start()
	if err != nil {
		return 0, s.abort(err)
	}
	err = s.writeByte(addr<<1 | 1)
	if err != nil {
		return 0, s.abort(err)
	}
	for i := range p {
		p[i], err = s.readByte(i < len(p)-1)
		if err != nil {
			return i, s.abort(err)
		}
	}
	if stop {
		return len(p), s.stop()
	}
	s.held = true
	return len(p), nil
}

// abort releases the bus after a failed transfer and returns the error that
// caused the failure.
func (s *SCCB) abort(err error) error {
	s.stop()
	return err
}

// start issues a start, or a repeated start if the bus is held.
//
// Ends with SCL low.
func (s *SCCB) start() error {
	if s.held {
		err := s.sda.drive(1)
		if err != nil {
			return err
		}
		time.Sleep(s.Tclk)
		err = s.scl.drive(1)
		if err != nil {
			return err
		}
		time.Sleep(s.Tclk)
		s.held = false
	}
	err := s.sda.drive(0)
	if err != nil {
		return err
	}
	time.Sleep(s.Tclk)
	return s.scl.drive(0)
}

// stop issues a stop, leaving both lines released.
func (s *SCCB) stop() error {
	s.held = false
	err := s.sda.drive(0)
	if err != nil {
		return err
	}
	time.Sleep(s.Tclk)
	err = s.scl.drive(1)
	if err != nil {
		return err
	}
	time.Sleep(s.Tclk)
	err = s.sda.drive(1)
	if err != nil {
		return err
	}
	time.Sleep(s.Tclk)
	return nil
}

// clock pulses SCL and returns the level of SDA while SCL is high.
//
// Starts and ends with SCL low.
func (s *SCCB) clock() (int, error) {
	time.Sleep(s.Tclk)
	err := s.scl.drive(1)
	if err != nil {
		return 0, err
	}
	time.Sleep(s.Tclk)
	v, err := s.sda.level()
	if err != nil {
		return 0, err
	}
	return v, s.scl.drive(0)
}

// writeByte clocks out a byte, MSB first, and checks the acknowledge.
func (s *SCCB) writeByte(b uint8) error {
	for i := 7; i >= 0; i-- {
		err := s.sda.drive(int(b>>uint(i)) & 0x01)
		if err != nil {
			return err
		}
		_, err = s.clock()
		if err != nil {
			return err
		}
	}
	err := s.sda.drive(1)
	if err != nil {
		return err
	}
	v, err := s.clock()
	if err != nil {
		return err
	}
	if v != 0 {
		return ErrNack
	}
	return nil
}

// readByte clocks in a byte, MSB first, then acknowledges it if ack is set.
func (s *SCCB) readByte(ack bool) (uint8, error) {
	err := s.sda.drive(1)
	if err != nil {
		return 0, err
	}
	var d uint8
	for i := 0; i < 8; i++ {
		v, err := s.clock()
		if err != nil {
			return 0, err
		}
		d = d << 1
		if v != 0 {
			d = d | 0x01
		}
	}
	a := 1
	if ack {
		a = 0
	}
	err = s.sda.drive(a)
	if err != nil {
		return 0, err
	}
	_, err = s.clock()
	if err != nil {
		return 0, err
	}
	return d, s.sda.drive(1)
}

// Option specifies a construction option for the SCCB.
type Option func(*SCCB)

// WithTclk sets the clock period for the SCCB.
//
// Note that this is the half-cycle period.
func WithTclk(tclk time.Duration) Option {
	return func(s *SCCB) {
		s.Tclk = tclk
	}
}

var (
	// ErrClosed indicates the bus is closed.
	ErrClosed = errors.New("closed")

	// ErrNack indicates the device did not acknowledge a byte.
	ErrNack = errors.New("nack")
)

// gpioWire is a wire on a GPIO line.
//
// The line is released by switching it to an input, with pull-up, and driven
// low as an output.
type gpioWire struct {
	l *gpiocdev.Line
	v int
}

func newGPIOWire(c *gpiocdev.Chip, offset int) (*gpioWire, error) {
	l, err := c.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, err
	}
	return &gpioWire{l: l, v: 1}, nil
}

func (w *gpioWire) level() (int, error) {
	if w.v == 0 {
		return 0, nil
	}
	return w.l.Value()
}

func (w *gpioWire) drive(v int) error {
	if v != 0 {
		v = 1
	}
	if v == w.v {
		return nil
	}
	var err error
	if v == 0 {
		err = w.l.Reconfigure(gpiocdev.AsOutput(0))
	} else {
		err = w.l.Reconfigure(gpiocdev.AsInput)
	}
	if err != nil {
		return err
	}
	w.v = v
	return nil
}

func (w *gpioWire) close() error {
	return w.l.Close()
}
