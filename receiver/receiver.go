// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package receiver reads frames dumped as hex over a USB serial console, as
// output by microcontroller capture firmware.
package receiver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/warthog618/ov7675/frame"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// PicoVendorID is the USB vendor ID of Raspberry Pi boards, including the
// Pico.
const PicoVendorID = "2E8A"

// port is the subset of serial.Port used by the Receiver.
type port interface {
	io.ReadCloser
	SetReadTimeout(t time.Duration) error
}

// Receiver reads hex frame dumps from a serial port.
type Receiver struct {
	name string
	p    port
	idle time.Duration
	log  *slog.Logger
}

type config struct {
	baud int
	idle time.Duration
	log  *slog.Logger
}

// Option specifies a construction option for the Receiver.
type Option func(*config)

// WithBaudRate sets the baud rate of the port.
//
// This has no effect for USB CDC devices.
func WithBaudRate(baud int) Option {
	return func(c *config) {
		c.baud = baud
	}
}

// WithIdleTimeout sets the period without data that marks the end of a dump.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *config) {
		c.idle = d
	}
}

// WithLogger sets the logger for the Receiver.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

func newConfig(options []Option) config {
	cfg := config{
		baud: 115200,
		idle: 2 * time.Second,
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(&cfg)
	}
	return cfg
}

// Open opens the named serial port.
//
// If name is empty the first USB serial port with the Pico vendor ID is
// opened.
func Open(name string, options ...Option) (*Receiver, error) {
	cfg := newConfig(options)
	if name == "" {
		var err error
		name, err = FindPort(PicoVendorID)
		if err != nil {
			return nil, err
		}
	}
	p, err := serial.Open(name, &serial.Mode{BaudRate: cfg.baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	r, err := newReceiver(name, p, cfg)
	if err != nil {
		p.Close()
		return nil, err
	}
	return r, nil
}

func newReceiver(name string, p port, cfg config) (*Receiver, error) {
	if err := p.SetReadTimeout(cfg.idle); err != nil {
		return nil, err
	}
	return &Receiver{name: name, p: p, idle: cfg.idle, log: cfg.log}, nil
}

// Name returns the name of the serial port.
func (r *Receiver) Name() string {
	return r.name
}

// Close closes the serial port.
func (r *Receiver) Close() error {
	if r.p == nil {
		return ErrClosed
	}
	err := r.p.Close()
	r.p = nil
	return err
}

// ReadFrame reads a dump of n bytes.
//
// ReadFrame blocks until the dump starts. The dump ends after n bytes or once
// the port is idle for the idle timeout.
// A short dump is zero padded, and missing returns the number of bytes
// padded.
func (r *Receiver) ReadFrame(n int) (buf []byte, missing int, err error) {
	if r.p == nil {
		return nil, 0, ErrClosed
	}
	start := time.Now()
	buf, missing, err = frame.ReadHex(&idleReader{r: r.p}, n)
	if err != nil {
		return nil, 0, err
	}
	if missing != 0 {
		r.log.Warn("short frame", "port", r.name, "want", n, "missing", missing)
	}
	r.log.Info("received frame", "port", r.name, "bytes", n-missing,
		"duration", time.Since(start))
	return buf, missing, nil
}

// idleReader reports the end of the stream when a read times out, once the
// stream has started.
type idleReader struct {
	r       io.Reader
	started bool
}

func (ir *idleReader) Read(p []byte) (int, error) {
	for {
		n, err := ir.r.Read(p)
		if n != 0 {
			ir.started = true
		}
		if n != 0 || err != nil {
			return n, err
		}
		if ir.started {
			return 0, io.EOF
		}
	}
}

// FindPort returns the name of the first USB serial port with the vendor ID.
func FindPort(vid string) (string, error) {
	pp, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("failed to list serial ports: %w", err)
	}
	if name, ok := matchPort(pp, vid); ok {
		return name, nil
	}
	return "", ErrNoPort
}

func matchPort(pp []*enumerator.PortDetails, vid string) (string, bool) {
	for _, p := range pp {
		if p.IsUSB && strings.EqualFold(p.VID, vid) {
			return p.Name, true
		}
	}
	return "", false
}

var (
	// ErrClosed indicates the receiver is closed.
	ErrClosed = errors.New("receiver closed")

	// ErrNoPort indicates no matching serial port was found.
	ErrNoPort = errors.New("no matching serial port")
)
