// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package receiver

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pilebones/go-udev/netlink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findNone(vid string) (string, error) {
	return "", ErrNoPort
}

func TestWaitForPortPresent(t *testing.T) {
	var vids []string
	find := func(vid string) (string, error) {
		vids = append(vids, vid)
		return "/dev/ttyACM0", nil
	}
	// never read while the port is present
	added := make(chan netlink.UEvent)
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	name, err := waitForPort(context.Background(), "2e8a", find, added, l)
	require.Nil(t, err)
	assert.Equal(t, "/dev/ttyACM0", name)
	assert.Equal(t, []string{"2e8a"}, vids)
}

func TestWaitForPortAdded(t *testing.T) {
	added := make(chan netlink.UEvent, 2)
	// events without a device node are ignored
	added <- netlink.UEvent{Action: netlink.ADD, Env: map[string]string{"SUBSYSTEM": "tty"}}
	added <- netlink.UEvent{Action: netlink.ADD, Env: map[string]string{
		"SUBSYSTEM": "tty",
		"DEVNAME":   "/dev/ttyACM1",
	}}
	var logs bytes.Buffer
	l := slog.New(slog.NewTextHandler(&logs, nil))
	name, err := waitForPort(context.Background(), "2e8a", findNone, added, l)
	require.Nil(t, err)
	assert.Equal(t, "/dev/ttyACM1", name)
	assert.Contains(t, logs.String(), "vid=2E8A")
	assert.Contains(t, logs.String(), "port=/dev/ttyACM1")
}

func TestWaitForPortCancel(t *testing.T) {
	added := make(chan netlink.UEvent)
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	name, err := waitForPort(ctx, "2e8a", findNone, added, l)
	assert.Equal(t, context.DeadlineExceeded, err)
	assert.Empty(t, name)
}
