// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package receiver

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"
)

// fakePort times out lead times, then returns its chunks one per read, then
// times out.
type fakePort struct {
	lead    int
	chunks  []string
	timeout time.Duration
	closed  bool
	err     error
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.lead > 0 {
		p.lead--
		return 0, nil
	}
	if len(p.chunks) == 0 {
		return 0, p.err
	}
	n := copy(b, p.chunks[0])
	p.chunks[0] = p.chunks[0][n:]
	if len(p.chunks[0]) == 0 {
		p.chunks = p.chunks[1:]
	}
	return n, nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.timeout = t
	return nil
}

func newTestReceiver(t *testing.T, p *fakePort, options ...Option) *Receiver {
	t.Helper()
	r, err := newReceiver("/dev/ttyACM0", p, newConfig(options))
	require.Nil(t, err)
	return r
}

func TestReadFrame(t *testing.T) {
	p := &fakePort{lead: 3, chunks: []string{"01 02 0", "3 04\r\n", "05 06 07 08 \r\n"}}
	r := newTestReceiver(t, p)
	assert.Equal(t, 2*time.Second, p.timeout)
	assert.Equal(t, "/dev/ttyACM0", r.Name())
	buf, missing, err := r.ReadFrame(8)
	require.Nil(t, err)
	assert.Equal(t, 0, missing)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, buf)
	assert.Equal(t, 0, p.lead)
}

func TestReadFrameShort(t *testing.T) {
	var logs bytes.Buffer
	l := slog.New(slog.NewTextHandler(&logs, nil))
	p := &fakePort{chunks: []string{"AA BB CC\n"}}
	r := newTestReceiver(t, p, WithIdleTimeout(time.Millisecond), WithLogger(l))
	assert.Equal(t, time.Millisecond, p.timeout)
	buf, missing, err := r.ReadFrame(6)
	require.Nil(t, err)
	assert.Equal(t, 3, missing)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc, 0, 0, 0}, buf)
	assert.True(t, strings.Contains(logs.String(), "short frame"))
	assert.True(t, strings.Contains(logs.String(), "missing=3"))
}

func TestReadFrameInvalid(t *testing.T) {
	p := &fakePort{chunks: []string{"AA Hello\n"}}
	r := newTestReceiver(t, p)
	buf, _, err := r.ReadFrame(4)
	assert.NotNil(t, err)
	assert.Nil(t, buf)
}

func TestReadFramePortError(t *testing.T) {
	perr := errors.New("port gone")
	p := &fakePort{chunks: []string{"AA "}, err: perr}
	r := newTestReceiver(t, p)
	_, _, err := r.ReadFrame(4)
	assert.Equal(t, perr, err)
}

func TestClose(t *testing.T) {
	p := &fakePort{}
	r := newTestReceiver(t, p)
	err := r.Close()
	assert.Nil(t, err)
	assert.True(t, p.closed)
	err = r.Close()
	assert.Equal(t, ErrClosed, err)
	_, _, err = r.ReadFrame(1)
	assert.Equal(t, ErrClosed, err)
}

func TestMatchPort(t *testing.T) {
	pp := []*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "0403", PID: "6001"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "2e8a", PID: "000a"},
		{Name: "/dev/ttyACM1", IsUSB: true, VID: "2E8A", PID: "000a"},
	}
	name, ok := matchPort(pp, PicoVendorID)
	assert.True(t, ok)
	assert.Equal(t, "/dev/ttyACM0", name)
	name, ok = matchPort(pp, "0403")
	assert.True(t, ok)
	assert.Equal(t, "/dev/ttyUSB0", name)
	_, ok = matchPort(pp, "1234")
	assert.False(t, ok)
	_, ok = matchPort(nil, PicoVendorID)
	assert.False(t, ok)
}

func TestConfig(t *testing.T) {
	cfg := newConfig(nil)
	assert.Equal(t, 115200, cfg.baud)
	assert.Equal(t, 2*time.Second, cfg.idle)
	assert.NotNil(t, cfg.log)
	cfg = newConfig([]Option{WithBaudRate(9600)})
	assert.Equal(t, 9600, cfg.baud)
}
