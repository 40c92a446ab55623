// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package capture

import (
	"github.com/warthog618/go-gpiocdev"
)

// GPIOPort is a Port on GPIO lines.
//
// The data lines are requested together so all 8 are read by a single
// request.
type GPIOPort struct {
	data *gpiocdev.Lines
	sync [3]*gpiocdev.Line
	vv   []int
}

// NewGPIOPort requests the port lines from the chip, as inputs.
func NewGPIOPort(c *gpiocdev.Chip, pins Pins) (*GPIOPort, error) {
	p := GPIOPort{vv: make([]int, len(pins.Data))}
	var err error
	defer func() {
		if err != nil {
			p.Close()
		}
	}()
	p.data, err = c.RequestLines(pins.Data[:], gpiocdev.AsInput)
	if err != nil {
		return nil, err
	}
	offsets := [3]int{PCLK: pins.PCLK, HREF: pins.HREF, VSYNC: pins.VSYNC}
	for s, o := range offsets {
		var l *gpiocdev.Line
		l, err = c.RequestLine(o, gpiocdev.AsInput)
		if err != nil {
			return nil, err
		}
		p.sync[s] = l
	}
	return &p, nil
}

// Close releases the port lines.
func (p *GPIOPort) Close() error {
	var err error
	for i, l := range p.sync {
		if l != nil {
			if cerr := l.Close(); err == nil {
				err = cerr
			}
			p.sync[i] = nil
		}
	}
	if p.data != nil {
		if cerr := p.data.Close(); err == nil {
			err = cerr
		}
		p.data = nil
	}
	return err
}

// Sync returns the level of a sync line.
func (p *GPIOPort) Sync(s Signal) (int, error) {
	if s < PCLK || s > VSYNC {
		return 0, ErrInvalidSignal
	}
	l := p.sync[s]
	if l == nil {
		return 0, ErrClosed
	}
	return l.Value()
}

// Data returns the data lines as a byte.
func (p *GPIOPort) Data() (uint8, error) {
	if p.data == nil {
		return 0, ErrClosed
	}
	if err := p.data.Values(p.vv); err != nil {
		return 0, err
	}
	return packBits(p.vv), nil
}
