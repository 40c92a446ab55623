// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package rpi provides the wiring of an OV7675 camera module to the J8
// header of a Raspberry Pi.
package rpi

import (
	"fmt"
	"strconv"
	"strings"

	bcm "github.com/warthog618/go-gpiocdev/device/rpi"
	"github.com/warthog618/ov7675/capture"
)

// Wiring identifies the BCM GPIO connected to each camera signal.
type Wiring struct {
	// SCCB lines
	SDA int
	SCL int

	// The sensor master clock. This must be driven by a clock generator,
	// such as GPCLK0, so is not requested by the camera.
	XCLK int

	// Data[i] is the GPIO connected to Di.
	Data  [8]int
	PCLK  int
	HREF  int
	VSYNC int
}

// DefaultWiring connects the video port to a contiguous block of GPIOs, with
// SCCB on the I2C1 pins and XCLK on GPCLK0.
var DefaultWiring = Wiring{
	SDA:  bcm.GPIO2,
	SCL:  bcm.GPIO3,
	XCLK: bcm.GPIO4,
	Data: [8]int{
		bcm.GPIO16, bcm.GPIO17, bcm.GPIO18, bcm.GPIO19,
		bcm.GPIO20, bcm.GPIO21, bcm.GPIO22, bcm.GPIO23,
	},
	PCLK:  bcm.GPIO24,
	HREF:  bcm.GPIO25,
	VSYNC: bcm.GPIO26,
}

// Port returns the video port lines.
func (w Wiring) Port() capture.Pins {
	return capture.Pins{
		Data:  w.Data,
		PCLK:  w.PCLK,
		HREF:  w.HREF,
		VSYNC: w.VSYNC,
	}
}

// Assignment is the GPIO connected to a named signal.
type Assignment struct {
	Signal string
	Pin    int
}

// Assignments returns the signals in header order, SCCB first, then XCLK,
// data and sync.
func (w Wiring) Assignments() []Assignment {
	aa := []Assignment{
		{"sda", w.SDA},
		{"scl", w.SCL},
		{"xclk", w.XCLK},
	}
	for i, d := range w.Data {
		aa = append(aa, Assignment{"d" + strconv.Itoa(i), d})
	}
	return append(aa,
		Assignment{"pclk", w.PCLK},
		Assignment{"href", w.HREF},
		Assignment{"vsync", w.VSYNC})
}

// Set connects the named signal to the pin.
//
// Signal names are case insensitive, and pins may be named J8pX, GPIOX, or X,
// where X is the header pin number for J8pX and the BCM number otherwise.
func (w *Wiring) Set(signal, pin string) error {
	p, err := bcm.Pin(pin)
	if err != nil {
		return fmt.Errorf("%s: %w", signal, err)
	}
	s := strings.ToLower(signal)
	switch s {
	case "sda":
		w.SDA = p
	case "scl":
		w.SCL = p
	case "xclk":
		w.XCLK = p
	case "pclk":
		w.PCLK = p
	case "href":
		w.HREF = p
	case "vsync":
		w.VSYNC = p
	default:
		if len(s) == 2 && s[0] == 'd' && s[1] >= '0' && s[1] <= '7' {
			w.Data[s[1]-'0'] = p
			return nil
		}
		return ErrUnknownSignal{signal}
	}
	return nil
}

// Validate checks that no two signals share a pin.
func (w Wiring) Validate() error {
	used := map[int]string{}
	for _, a := range w.Assignments() {
		if s, ok := used[a.Pin]; ok {
			return ErrConflict{Pin: a.Pin, Signals: [2]string{s, a.Signal}}
		}
		used[a.Pin] = a.Signal
	}
	return nil
}

func (w Wiring) String() string {
	var b strings.Builder
	for i, a := range w.Assignments() {
		if i != 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=GPIO%d", a.Signal, a.Pin)
	}
	return b.String()
}

// ErrUnknownSignal indicates a signal name that is not part of the camera
// interface.
type ErrUnknownSignal struct {
	Signal string
}

func (e ErrUnknownSignal) Error() string {
	return "unknown signal: " + e.Signal
}

// ErrConflict indicates two signals are wired to the same pin.
type ErrConflict struct {
	Pin     int
	Signals [2]string
}

func (e ErrConflict) Error() string {
	return fmt.Sprintf("%s and %s both wired to GPIO%d", e.Signals[0], e.Signals[1], e.Pin)
}

// ErrInvalid indicates the pin name does not match a known pin.
var ErrInvalid = bcm.ErrInvalid
