// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package sccb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/go-gpiosim"
)

func newSim(t *testing.T) (*gpiosim.Simpleton, *gpiocdev.Chip) {
	t.Helper()
	s, err := gpiosim.NewSimpleton(2)
	if err != nil {
		t.Skip("gpio-sim unavailable:", err)
	}
	t.Cleanup(func() { s.Close() })
	c, err := gpiocdev.NewChip(s.DevPath(), gpiocdev.WithConsumer("sccb_test"))
	require.Nil(t, err)
	t.Cleanup(func() { c.Close() })
	return s, c
}

func TestGPIOWire(t *testing.T) {
	s, c := newSim(t)
	w, err := newGPIOWire(c, 1)
	require.Nil(t, err)
	defer w.close()

	// released, following the external pull
	err = s.SetPull(1, 1)
	require.Nil(t, err)
	v, err := w.level()
	assert.Nil(t, err)
	assert.Equal(t, 1, v)
	err = s.SetPull(1, 0)
	require.Nil(t, err)
	v, err = w.level()
	assert.Nil(t, err)
	assert.Equal(t, 0, v)
	s.SetPull(1, 1)

	// driven low
	err = w.drive(0)
	require.Nil(t, err)
	v, err = s.Level(1)
	assert.Nil(t, err)
	assert.Equal(t, 0, v)
	v, err = w.level()
	assert.Nil(t, err)
	assert.Equal(t, 0, v)

	// released again
	err = w.drive(1)
	require.Nil(t, err)
	v, err = w.level()
	assert.Nil(t, err)
	assert.Equal(t, 1, v)
}

func TestNewGPIO(t *testing.T) {
	sim, c := newSim(t)
	s, err := New(c, 0, 1, WithTclk(time.Microsecond))
	require.Nil(t, err)
	assert.Equal(t, time.Microsecond, s.Tclk)

	// lines held until closed
	_, err = New(c, 0, 1)
	assert.NotNil(t, err)
	err = s.Close()
	assert.Nil(t, err)

	s, err = New(c, 0, 1)
	require.Nil(t, err)
	sim.SetPull(0, 1)
	sim.SetPull(1, 1)
	// nothing on the bus to acknowledge
	_, err = s.Write(0x21, []byte{0x12, 0x80}, true)
	assert.Equal(t, ErrNack, err)
	s.Close()
}
