// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// Package i2c provides register bus access via the Linux i2c-dev driver.
//
// It is an alternative to the sccb package for boards where the sensor is
// wired to a hardware I2C controller.
package i2c

import (
	"errors"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// IOCTL command codes from linux/i2c-dev.h
const (
	slaveIoctl = 0x0703
	rdwrIoctl  = 0x0707
)

// flagRead marks a message as a read from the device.
const flagRead = 0x0001

// msg is struct i2c_msg.
type msg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   *byte
}

// rdwrData is struct i2c_rdwr_ioctl_data.
type rdwrData struct {
	msgs  *msg
	nmsgs uint32
}

// Bus is an I2C adapter opened via its i2c-dev character device.
//
// A write that does not end with a stop is held and combined with the
// following read into a single transfer, with a repeated start between the
// two.
type Bus struct {
	// mutex covers the attributes below it.
	mu sync.Mutex
	f  *os.File
	// write awaiting a repeated start
	pending []byte
	paddr   uint8
	// performs the I2C_RDWR ioctl
	rdwr func(fd uintptr, mm []msg) error
}

// Open opens the I2C adapter device, such as /dev/i2c-1.
func Open(name string) (*Bus, error) {
	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &Bus{f: f, rdwr: rdwr}, nil
}

// Close releases the adapter.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.f == nil {
		return ErrClosed
	}
	err := b.f.Close()
	b.f = nil
	b.pending = nil
	return err
}

// SetAddress sets the default slave address of the adapter, as used by
// plain reads and writes of the device file.
func (b *Bus) SetAddress(addr uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.f == nil {
		return ErrClosed
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL,
		b.f.Fd(),
		uintptr(slaveIoctl),
		uintptr(addr))
	if errno != 0 {
		return errno
	}
	return nil
}

// Write writes p to the device at the 7-bit address.
//
// If stop is false the write is held until the next Read.
func (b *Bus) Write(addr uint8, p []byte, stop bool) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.f == nil {
		return 0, ErrClosed
	}
	if err := b.flush(); err != nil {
		return 0, err
	}
	if !stop {
		b.pending = append([]byte(nil), p...)
		b.paddr = addr
		return len(p), nil
	}
	if len(p) == 0 {
		return 0, nil
	}
	err := b.rdwr(b.f.Fd(), []msg{newMsg(addr, 0, p)})
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// Read reads len(p) bytes from the device at the 7-bit address.
//
// Any held write is transferred first, followed by a repeated start.
// The stop flag is ignored, as the driver always ends the transfer with a
// stop.
func (b *Bus) Read(addr uint8, p []byte, stop bool) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.f == nil {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, b.flush()
	}
	mm := make([]msg, 0, 2)
	if b.pending != nil {
		mm = append(mm, newMsg(b.paddr, 0, b.pending))
		b.pending = nil
	}
	mm = append(mm, newMsg(addr, flagRead, p))
	err := b.rdwr(b.f.Fd(), mm)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// flush transfers any held write.
func (b *Bus) flush() error {
	if b.pending == nil {
		return nil
	}
	p := b.pending
	b.pending = nil
	if len(p) == 0 {
		return nil
	}
	return b.rdwr(b.f.Fd(), []msg{newMsg(b.paddr, 0, p)})
}

func newMsg(addr uint8, flags uint16, p []byte) msg {
	return msg{
		addr:  uint16(addr),
		flags: flags,
		len:   uint16(len(p)),
		buf:   &p[0],
	}
}

func rdwr(fd uintptr, mm []msg) error {
	d := rdwrData{msgs: &mm[0], nmsgs: uint32(len(mm))}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL,
		fd,
		uintptr(rdwrIoctl),
		uintptr(unsafe.Pointer(&d)))
	if errno != 0 {
		return errno
	}
	return nil
}

var (
	// ErrClosed indicates the bus is closed.
	ErrClosed = errors.New("bus closed")
)
