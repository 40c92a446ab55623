// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"log/slog"

	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/ov7675"
	"github.com/warthog618/ov7675/capture"
	"github.com/warthog618/ov7675/device/rpi"
	"github.com/warthog618/ov7675/i2c"
	"github.com/warthog618/ov7675/sccb"
)

// loadConfig builds the configuration from, in order of precedence, the
// config file flag, the environment, the config file, and the defaults.
//
// The pin assignments default to rpi.DefaultWiring.
func loadConfig(file string) *config.Config {
	defaultConfig := map[string]interface{}{
		"gpiochip":   "gpiochip0",
		"bus":        "gpio",
		"i2cdev":     "/dev/i2c-1",
		"address":    ov7675.DefaultAddress,
		"tclk":       "5us",
		"width":      320,
		"height":     240,
		"format":     "yuyv",
		"timeout":    "0s",
		"hexperline": 16,
		"port":       "",
		"idle":       "2s",
		"baud":       115200,
	}
	for _, a := range rpi.DefaultWiring.Assignments() {
		defaultConfig[a.Signal] = fmt.Sprintf("GPIO%d", a.Pin)
	}
	def := dict.New(dict.WithMap(defaultConfig))
	overrides := map[string]interface{}{}
	if file != "" {
		overrides["config.file"] = file
	}
	cfg := config.New(
		dict.New(dict.WithMap(overrides)),
		env.New(env.WithEnvPrefix("OV7675_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "ov7675.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust())
	return cfg
}

// wiring returns the pin assignments from the config.
func wiring(cfg *config.Config) (rpi.Wiring, error) {
	w := rpi.DefaultWiring
	for _, a := range w.Assignments() {
		if err := w.Set(a.Signal, cfg.MustGet(a.Signal).String()); err != nil {
			return w, err
		}
	}
	return w, w.Validate()
}

// rig is the hardware opened for a command.
type rig struct {
	log  *slog.Logger
	chip *gpiocdev.Chip
	dev  *ov7675.Device
	port *capture.GPIOPort
}

// openRig opens the register bus and, if video is set, the video port.
func openRig(cfg *config.Config, video bool, log *slog.Logger) (*rig, error) {
	w, err := wiring(cfg)
	if err != nil {
		return nil, err
	}
	r := &rig{log: log}
	defer func() {
		if err != nil {
			r.Close()
		}
	}()
	bus := cfg.MustGet("bus").String()
	if bus == "gpio" || video {
		name := cfg.MustGet("gpiochip").String()
		r.chip, err = gpiocdev.NewChip(name, gpiocdev.WithConsumer("ov7675ctl"))
		if err != nil {
			return nil, err
		}
	}
	var b ov7675.Bus
	switch bus {
	case "gpio":
		b, err = sccb.New(r.chip, w.SDA, w.SCL,
			sccb.WithTclk(cfg.MustGet("tclk").Duration()))
	case "i2c":
		b, err = openI2C(cfg.MustGet("i2cdev").String(), uint8(cfg.MustGet("address").Int()))
	default:
		err = fmt.Errorf("unknown bus '%s' (must be gpio or i2c)", bus)
	}
	if err != nil {
		return nil, err
	}
	r.dev = ov7675.New(b,
		ov7675.WithAddress(uint8(cfg.MustGet("address").Int())),
		ov7675.WithLogger(log))
	log.Debug("opened register bus", "bus", bus, "address", r.dev.Address(), "wiring", w.String())
	if video {
		r.port, err = capture.NewGPIOPort(r.chip, w.Port())
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func openI2C(name string, addr uint8) (*i2c.Bus, error) {
	b, err := i2c.Open(name)
	if err != nil {
		return nil, err
	}
	if err = b.SetAddress(addr); err != nil {
		b.Close()
		return nil, fmt.Errorf("%s is not an I2C adapter: %w", name, err)
	}
	return b, nil
}

// camera combines the device and video port of the rig.
func (r *rig) camera(cfg *config.Config) (*ov7675.Camera, *capture.Engine) {
	var options []capture.Option
	if t := cfg.MustGet("timeout").Duration(); t > 0 {
		options = append(options, capture.WithTimeout(t))
	}
	e := capture.New(r.port, options...)
	return ov7675.NewCamera(r.dev, e), e
}

// Close releases the hardware.
func (r *rig) Close() {
	if r.port != nil {
		r.port.Close()
	}
	if r.dev != nil {
		r.dev.Close()
	}
	if r.chip != nil {
		r.chip.Close()
	}
}
