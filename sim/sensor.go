// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package sim provides simulations of an OV7675 register file and video port.
//
// This is intended for testing of ov7675 and capture, but could also be used
// by users of those packages to test their own code without a sensor.
package sim

import (
	"errors"
	"sync"
)

// Reset values of the registers of interest.
var resetValues = map[uint8]uint8{
	0x0A: 0x76, // PID
	0x0B: 0x73, // VER
	0x12: 0x00, // COM7
	0x3A: 0x0C, // TSLB
	0x3D: 0x88, // COM13
	0x40: 0xC0, // COM15
	0x8C: 0x00, // RGB444
}

// Tx is a transaction seen by the Sensor.
type Tx struct {
	Read bool
	Addr uint8
	Data []byte
	Stop bool
}

// Sensor simulates the register file of a sensor behind a two-wire bus.
//
// Writes set the register pointer from the first byte, and any further bytes
// are written to successive registers. Reads return the register at the
// pointer.
type Sensor struct {
	// mutex covers the attributes below it.
	mu        sync.Mutex
	addr      uint8
	regs      [256]uint8
	ptr       uint8
	failRead  map[uint8]bool
	failWrite map[uint8]bool
	txs       []Tx
}

// NewSensor creates a Sensor at the 7-bit address, with the OV7675 reset
// values.
func NewSensor(addr uint8) *Sensor {
	s := Sensor{
		addr:      addr,
		failRead:  map[uint8]bool{},
		failWrite: map[uint8]bool{},
	}
	for r, v := range resetValues {
		s.regs[r] = v
	}
	return &s
}

// Register returns the value of a register.
func (s *Sensor) Register(reg uint8) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[reg]
}

// SetRegister sets the value of a register.
func (s *Sensor) SetRegister(reg, v uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[reg] = v
}

// FailRead causes reads of the register to fail, transferring no data.
func (s *Sensor) FailRead(reg uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRead[reg] = true
}

// FailWrite causes writes to the register to fail after the register address
// is acknowledged.
func (s *Sensor) FailWrite(reg uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrite[reg] = true
}

// Transactions returns the transactions seen by the Sensor.
func (s *Sensor) Transactions() []Tx {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Tx(nil), s.txs...)
}

// Writes returns the register values written, in order, as pairs of
// register and value.
func (s *Sensor) Writes() [][2]uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ww [][2]uint8
	for _, tx := range s.txs {
		if tx.Read || len(tx.Data) < 2 {
			continue
		}
		for i, v := range tx.Data[1:] {
			ww = append(ww, [2]uint8{tx.Data[0] + uint8(i), v})
		}
	}
	return ww
}

// Write performs a write transaction.
func (s *Sensor) Write(addr uint8, p []byte, stop bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr != s.addr {
		return 0, ErrNoDevice
	}
	if len(p) == 0 {
		return 0, nil
	}
	s.ptr = p[0]
	n := 1
	for _, v := range p[1:] {
		if s.failWrite[s.ptr] {
			break
		}
		s.regs[s.ptr] = v
		s.ptr++
		n++
	}
	s.txs = append(s.txs, Tx{Addr: addr, Data: append([]byte(nil), p[:n]...), Stop: stop})
	if n != len(p) {
		return n, ErrNack
	}
	return n, nil
}

// Read performs a read transaction.
func (s *Sensor) Read(addr uint8, p []byte, stop bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr != s.addr {
		return 0, ErrNoDevice
	}
	if s.failRead[s.ptr] {
		return 0, ErrNack
	}
	for i := range p {
		p[i] = s.regs[s.ptr]
	}
	s.txs = append(s.txs, Tx{Read: true, Addr: addr, Data: append([]byte(nil), p...), Stop: stop})
	return len(p), nil
}

var (
	// ErrNoDevice indicates the transaction was not addressed to the Sensor.
	ErrNoDevice = errors.New("no device at address")

	// ErrNack indicates the Sensor did not acknowledge a byte.
	ErrNack = errors.New("nack")
)
