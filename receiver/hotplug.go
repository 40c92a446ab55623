// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package receiver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pilebones/go-udev/netlink"
)

// hotplugMonitor reports serial ports added by udev.
type hotplugMonitor struct {
	conn  *netlink.UEventConn
	queue chan netlink.UEvent
	quit  chan struct{}
}

func newHotplugMonitor(vid string, log *slog.Logger) (*hotplugMonitor, error) {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return nil, fmt.Errorf("unable to connect to netlink uevent socket: %w", err)
	}
	action := "add"
	matcher := &netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM":    "tty",
			"ID_VENDOR_ID": "(?i)^" + vid + "$",
			"DEVNAME":      "^/dev/.+",
		},
	}
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	quit := conn.Monitor(queue, errs, matcher)
	m := hotplugMonitor{conn: conn, queue: queue, quit: quit}
	go func() {
		for {
			select {
			case err := <-errs:
				log.Error("hotplug monitor", "err", err)
			case <-quit:
				return
			}
		}
	}()
	return &m, nil
}

func (m *hotplugMonitor) close() {
	close(m.quit)
	m.conn.Close()
}

// WaitForPort returns the name of the first USB serial port with the vendor
// ID, waiting for one to be plugged in if none is present.
func WaitForPort(ctx context.Context, vid string, options ...Option) (string, error) {
	cfg := newConfig(options)
	m, err := newHotplugMonitor(vid, cfg.log)
	if err != nil {
		return "", err
	}
	defer m.close()
	return waitForPort(ctx, vid, FindPort, m.queue, cfg.log)
}

// waitForPort returns the port found by find, else the first port added.
//
// The monitor must be running before find is called, so a port plugged in
// between the two is not missed.
func waitForPort(ctx context.Context, vid string, find func(string) (string, error),
	added <-chan netlink.UEvent, log *slog.Logger) (string, error) {
	// may already be present
	name, err := find(vid)
	if err == nil {
		return name, nil
	}
	log.Info("waiting for serial port", "vid", strings.ToUpper(vid))
	for {
		select {
		case evt := <-added:
			name = evt.Env["DEVNAME"]
			if name == "" {
				continue
			}
			log.Info("serial port added", "port", name)
			return name, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}
