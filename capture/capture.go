// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package capture samples frames from the parallel video port of an image
// sensor by polling its sync lines.
//
// The port comprises 8 data lines and three sync lines: VSYNC, which falls at
// the start of a frame, HREF, which is high while a row is being output, and
// PCLK, which is high while a data byte is valid.
//
// All waits are busy-waits on the sync lines. Unless a timeout is set with
// WithTimeout, a wait on a line that never reaches the expected level, such
// as from a disconnected sensor or a missed edge, never returns.
package capture

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// Signal identifies one of the sync lines of the port.
type Signal int

const (
	// PCLK is the pixel clock.
	PCLK Signal = iota

	// HREF is the row valid signal.
	HREF

	// VSYNC is the frame sync.
	VSYNC
)

func (s Signal) String() string {
	switch s {
	case PCLK:
		return "PCLK"
	case HREF:
		return "HREF"
	case VSYNC:
		return "VSYNC"
	}
	return fmt.Sprintf("Signal(%d)", int(s))
}

// Port provides the levels of the video port lines.
type Port interface {
	// Sync returns the level of a sync line, 0 or 1.
	Sync(s Signal) (int, error)

	// Data returns the 8 data lines, sampled together, with D7 as the MSB.
	Data() (uint8, error)
}

// Pins identifies the GPIO line offsets of the video port.
type Pins struct {
	// Data[i] is the offset of Di.
	Data  [8]int
	PCLK  int
	HREF  int
	VSYNC int
}

// Engine captures frames from a Port.
type Engine struct {
	// mutex covers the attributes below it, and serialises captures.
	mu      sync.Mutex
	port    Port
	timeout time.Duration
	stats   Stats
}

// Stats summarises the most recent capture.
type Stats struct {
	Rows    int
	Samples int

	// The number of times the sync lines were polled.
	Polls uint64

	Duration time.Duration
}

// New creates an Engine sampling the port.
func New(p Port, options ...Option) *Engine {
	e := Engine{port: p}
	for _, option := range options {
		option(&e)
	}
	return &e
}

// Stats returns the stats of the most recent capture.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Capture samples a single frame into buf.
//
// The capture first aligns to the start of a frame, waiting out any frame in
// progress and then for the falling edge of VSYNC. It then samples width bytes
// from each of height rows, one byte per PCLK pulse, storing them in row-major
// order.
//
// buf must be exactly width*height bytes, else ErrBufferSize is returned
// before any sampling. Nothing outside buf[:width*height] is written.
//
// Capture blocks until the frame is complete. Without a timeout it never
// returns if the port stops toggling.
func (e *Engine) Capture(buf []byte, width, height int) error {
	if width <= 0 || height <= 0 || width > math.MaxInt/height || len(buf) != width*height {
		return ErrBufferSize
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	w := waiter{port: e.port, timeout: e.timeout}
	start := time.Now()
	e.stats = Stats{}
	defer func() {
		e.stats.Polls = w.polls
		e.stats.Duration = time.Since(start)
	}()

	// drain any frame in progress, then wait for the falling edge.
	if err := w.until(VSYNC, 0, PhaseFrameDrain); err != nil {
		return err
	}
	if err := w.until(VSYNC, 1, PhaseFrameSync); err != nil {
		return err
	}
	if err := w.until(VSYNC, 0, PhaseFrameStart); err != nil {
		return err
	}
	for y := 0; y < height; y++ {
		w.row, w.col = y, 0
		if err := w.until(HREF, 1, PhaseRowStart); err != nil {
			return err
		}
		row := buf[y*width : (y+1)*width]
		for x := range row {
			w.col = x
			if err := w.until(PCLK, 1, PhasePixelHigh); err != nil {
				return err
			}
			d, err := e.port.Data()
			if err != nil {
				return err
			}
			row[x] = d
			e.stats.Samples++
			// one sample per pulse, not per poll.
			if err := w.until(PCLK, 0, PhasePixelLow); err != nil {
				return err
			}
		}
		if err := w.until(HREF, 0, PhaseRowEnd); err != nil {
			return err
		}
		e.stats.Rows++
	}
	return nil
}

// packBits assembles a byte from line values, with vv[i] as bit i.
func packBits(vv []int) uint8 {
	var d uint8
	for i, v := range vv {
		if v != 0 {
			d |= 1 << uint(i)
		}
	}
	return d
}

// waiter polls the port until a sync line reaches a level.
type waiter struct {
	port    Port
	timeout time.Duration
	polls   uint64

	// position in the frame, for errors.
	row int
	col int
}

func (w *waiter) until(s Signal, level int, phase Phase) error {
	var deadline time.Time
	if w.timeout > 0 {
		deadline = time.Now().Add(w.timeout)
	}
	for {
		v, err := w.port.Sync(s)
		w.polls++
		if err != nil {
			return err
		}
		if (v != 0) == (level != 0) {
			return nil
		}
		if w.timeout > 0 && time.Now().After(deadline) {
			return &TimeoutError{Phase: phase, Row: w.row, Col: w.col, Timeout: w.timeout}
		}
	}
}

// Phase identifies the wait in the capture sequence.
type Phase int

const (
	// PhaseFrameDrain waits for VSYNC low, ending any frame in progress.
	PhaseFrameDrain Phase = iota

	// PhaseFrameSync waits for VSYNC high.
	PhaseFrameSync

	// PhaseFrameStart waits for VSYNC low, the start of the frame.
	PhaseFrameStart

	// PhaseRowStart waits for HREF high.
	PhaseRowStart

	// PhasePixelHigh waits for PCLK high.
	PhasePixelHigh

	// PhasePixelLow waits for PCLK low.
	PhasePixelLow

	// PhaseRowEnd waits for HREF low.
	PhaseRowEnd
)

var phaseNames = []string{
	"frame drain",
	"frame sync",
	"frame start",
	"row start",
	"pixel clock high",
	"pixel clock low",
	"row end",
}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Option specifies a construction option for the Engine.
type Option func(*Engine)

// WithTimeout limits the time spent in each individual wait.
//
// This bounds the hang that otherwise results from a sensor that stops
// toggling its sync lines. A zero or negative timeout waits forever, which is
// the default.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

var (
	// ErrBufferSize indicates the buffer does not match the frame dimensions.
	ErrBufferSize = errors.New("buffer size does not match frame size")

	// ErrTimeout indicates a sync line did not reach the expected level in
	// time.
	ErrTimeout = errors.New("timeout")

	// ErrClosed indicates the port is closed.
	ErrClosed = errors.New("closed")

	// ErrInvalidSignal indicates the signal is not one of PCLK, HREF or VSYNC.
	ErrInvalidSignal = errors.New("invalid signal")
)

// TimeoutError indicates a wait exceeded the timeout.
type TimeoutError struct {
	Phase   Phase
	Row     int
	Col     int
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s waiting for %s at row %d, col %d",
		e.Timeout, e.Phase, e.Row, e.Col)
}

// Is matches ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
