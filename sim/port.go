// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package sim

import (
	"sync"

	"github.com/warthog618/ov7675/capture"
)

// level of each line at one point in time.
type tick struct {
	vsync int
	href  int
	pclk  int
	data  uint8
}

// Port simulates the video port of a sensor outputting a single frame.
//
// Time advances one tick on each poll of a sync line, so the timing is
// independent of the speed of the poller. Data returns the data lines as at
// the most recent poll. Once the frame is exhausted the port holds VSYNC high
// and the other lines low.
type Port struct {
	// mutex covers the attributes below it.
	mu    sync.Mutex
	ticks []tick
	pos   int
	last  tick
	polls int
}

// PortOption specifies a construction option for the Port.
type PortOption func(*portConfig)

type portConfig struct {
	// a partial frame output before the frame sync.
	lead [][]byte
	// ticks per half cycle of PCLK.
	hold int
}

// WithLeadIn starts the port part way through a previous frame, which outputs
// the given rows before the sync pulse that precedes the frame.
//
// The lead in rows must not be captured by a correctly synchronised capture.
func WithLeadIn(rows ...[]byte) PortOption {
	return func(c *portConfig) {
		c.lead = rows
	}
}

// WithHold sets the number of polls each level of PCLK is held for.
func WithHold(n int) PortOption {
	return func(c *portConfig) {
		if n > 0 {
			c.hold = n
		}
	}
}

// NewPort creates a Port that outputs the frame, width bytes per row.
//
// Any remainder of frame beyond a whole number of rows is ignored.
func NewPort(frame []byte, width int, options ...PortOption) *Port {
	cfg := portConfig{hold: 1}
	for _, option := range options {
		option(&cfg)
	}
	var tt []tick
	// the tail of a sync pulse, then part of a previous frame
	tt = appendIdle(tt, 1, 3)
	tt = appendIdle(tt, 0, 3)
	for _, r := range cfg.lead {
		tt = appendRow(tt, 0, r, cfg.hold)
	}
	tt = appendIdle(tt, 1, 3)
	if width > 0 {
		for y := 0; y+width <= len(frame); y += width {
			tt = appendRow(tt, 0, frame[y:y+width], cfg.hold)
		}
	}
	return &Port{ticks: tt, last: tick{vsync: 1}}
}

func appendIdle(tt []tick, vsync, n int) []tick {
	for i := 0; i < n; i++ {
		tt = append(tt, tick{vsync: vsync})
	}
	return tt
}

func appendRow(tt []tick, vsync int, row []byte, hold int) []tick {
	tt = appendIdle(tt, vsync, 2)
	for _, d := range row {
		for i := 0; i < hold; i++ {
			tt = append(tt, tick{vsync: vsync, href: 1, data: d})
		}
		for i := 0; i < hold; i++ {
			tt = append(tt, tick{vsync: vsync, href: 1, pclk: 1, data: d})
		}
	}
	// data is invalid once PCLK falls.
	tt = append(tt, tick{vsync: vsync, href: 1, data: 0xff})
	return appendIdle(tt, vsync, 2)
}

// Sync returns the level of a sync line and advances time by one tick.
func (p *Port) Sync(s capture.Signal) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.polls++
	t := tick{vsync: 1}
	if p.pos < len(p.ticks) {
		t = p.ticks[p.pos]
		p.pos++
	}
	p.last = t
	switch s {
	case capture.PCLK:
		return t.pclk, nil
	case capture.HREF:
		return t.href, nil
	case capture.VSYNC:
		return t.vsync, nil
	}
	return 0, capture.ErrInvalidSignal
}

// Data returns the data lines as at the most recent poll.
func (p *Port) Data() (uint8, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last.data, nil
}

// Done returns true once the frame has been fully output.
func (p *Port) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos >= len(p.ticks)
}

// Polls returns the number of times the sync lines have been polled.
func (p *Port) Polls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polls
}
