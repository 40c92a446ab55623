// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package capture_test

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/ov7675/capture"
	"github.com/warthog618/ov7675/sim"
)

func TestCapture(t *testing.T) {
	frame := []byte{0x01, 0x80, 0x7f, 0xfe, 0x00, 0xff, 0x55, 0xaa}
	patterns := []struct {
		name    string
		options []sim.PortOption
	}{
		{"aligned", nil},
		{"mid frame", []sim.PortOption{sim.WithLeadIn([]byte{0xde, 0xad, 0xbe, 0xef})}},
		{"slow clock", []sim.PortOption{sim.WithHold(5)}},
		{"slow mid frame", []sim.PortOption{
			sim.WithHold(3),
			sim.WithLeadIn([]byte{0xde, 0xad, 0xbe, 0xef}, []byte{0xca, 0xfe, 0xba, 0xbe})}},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			port := sim.NewPort(frame, 4, p.options...)
			e := capture.New(port)
			// guards either side of the frame buffer
			backing := make([]byte, 12)
			for i := range backing {
				backing[i] = 0x5a
			}
			buf := backing[2:10]
			err := e.Capture(buf, 4, 2)
			require.Nil(t, err)
			assert.Equal(t, frame, buf)
			assert.Equal(t, []byte{0x5a, 0x5a}, backing[:2])
			assert.Equal(t, []byte{0x5a, 0x5a}, backing[10:])
			s := e.Stats()
			assert.Equal(t, 2, s.Rows)
			assert.Equal(t, 8, s.Samples)
			assert.Equal(t, uint64(port.Polls()), s.Polls)
		}
		t.Run(p.name, tf)
	}
}

func TestCaptureBufferSize(t *testing.T) {
	patterns := []struct {
		name   string
		size   int
		width  int
		height int
	}{
		{"short", 7, 4, 2},
		{"long", 9, 4, 2},
		{"zero width", 0, 0, 2},
		{"zero height", 0, 4, 0},
		{"negative", 8, -4, -2},
		// width*height wraps to 0
		{"overflow", 0, 1 << (strconv.IntSize / 2), 1 << (strconv.IntSize / 2)},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			port := sim.NewPort(make([]byte, 8), 4)
			e := capture.New(port)
			err := e.Capture(make([]byte, p.size), p.width, p.height)
			assert.Equal(t, capture.ErrBufferSize, err)
			assert.Equal(t, 0, port.Polls())
		}
		t.Run(p.name, tf)
	}
}

// stuckPort holds all lines at a fixed level.
type stuckPort struct {
	vsync int
	href  int
	pclk  int
	polls int
}

func (p *stuckPort) Sync(s capture.Signal) (int, error) {
	p.polls++
	switch s {
	case capture.VSYNC:
		return p.vsync, nil
	case capture.HREF:
		return p.href, nil
	}
	return p.pclk, nil
}

func (p *stuckPort) Data() (uint8, error) {
	return 0, nil
}

func TestCaptureTimeout(t *testing.T) {
	patterns := []struct {
		name  string
		port  capture.Port
		phase capture.Phase
	}{
		{"vsync high", &stuckPort{vsync: 1}, capture.PhaseFrameDrain},
		{"vsync low", &stuckPort{vsync: 0}, capture.PhaseFrameSync},
		{"no frame", sim.NewPort(nil, 4), capture.PhaseFrameStart},
		{"short frame", sim.NewPort([]byte{1, 2, 3, 4}, 4), capture.PhaseRowStart},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			e := capture.New(p.port, capture.WithTimeout(10*time.Millisecond))
			buf := make([]byte, 8)
			start := time.Now()
			err := e.Capture(buf, 4, 2)
			assert.Less(t, time.Since(start), time.Second)
			require.True(t, errors.Is(err, capture.ErrTimeout))
			te := &capture.TimeoutError{}
			require.True(t, errors.As(err, &te))
			assert.Equal(t, p.phase, te.Phase)
			assert.Equal(t, 10*time.Millisecond, te.Timeout)
		}
		t.Run(p.name, tf)
	}
}

func TestCaptureTimeoutPosition(t *testing.T) {
	// one row of a two row frame, after which the port idles with VSYNC high.
	port := sim.NewPort([]byte{1, 2, 3, 4}, 4)
	e := capture.New(port, capture.WithTimeout(10*time.Millisecond))
	buf := make([]byte, 8)
	err := e.Capture(buf, 4, 2)
	te := &capture.TimeoutError{}
	require.True(t, errors.As(err, &te))
	assert.Equal(t, capture.PhaseRowStart, te.Phase)
	assert.Equal(t, 1, te.Row)
	assert.Equal(t, []byte{1, 2, 3, 4, 0, 0, 0, 0}, buf)
	assert.Equal(t, 1, e.Stats().Rows)
	assert.Equal(t, "timeout after 10ms waiting for row start at row 1, col 0", te.Error())
}

type failingPort struct {
	stuckPort
	err error
}

func (p *failingPort) Sync(s capture.Signal) (int, error) {
	return 0, p.err
}

func TestCapturePortError(t *testing.T) {
	perr := errors.New("line read failed")
	e := capture.New(&failingPort{err: perr})
	err := e.Capture(make([]byte, 8), 4, 2)
	assert.Equal(t, perr, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "PCLK", capture.PCLK.String())
	assert.Equal(t, "HREF", capture.HREF.String())
	assert.Equal(t, "VSYNC", capture.VSYNC.String())
	assert.Equal(t, "Signal(5)", capture.Signal(5).String())
	assert.Equal(t, "frame drain", capture.PhaseFrameDrain.String())
	assert.Equal(t, "row end", capture.PhaseRowEnd.String())
	assert.Equal(t, "Phase(-1)", capture.Phase(-1).String())
}
