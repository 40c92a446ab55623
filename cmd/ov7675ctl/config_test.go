// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/ov7675"
	"github.com/warthog618/ov7675/device/rpi"
	"github.com/warthog618/ov7675/frame"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := loadConfig("")
	assert.Equal(t, "gpiochip0", cfg.MustGet("gpiochip").String())
	assert.Equal(t, "gpio", cfg.MustGet("bus").String())
	assert.Equal(t, 0x21, cfg.MustGet("address").Int())
	assert.Equal(t, 5*time.Microsecond, cfg.MustGet("tclk").Duration())
	assert.Equal(t, time.Duration(0), cfg.MustGet("timeout").Duration())
	w, err := wiring(cfg)
	require.Nil(t, err)
	assert.Equal(t, rpi.DefaultWiring, w)
	f, width, height, err := frameFormat(cfg, "")
	require.Nil(t, err)
	assert.Equal(t, ov7675.FormatYUYV, f)
	assert.Equal(t, 320, width)
	assert.Equal(t, 240, height)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("OV7675_SDA", "GPIO10")
	t.Setenv("OV7675_D0", "J8p29")
	t.Setenv("OV7675_FORMAT", "rgb565")
	cfg := loadConfig("")
	w, err := wiring(cfg)
	require.Nil(t, err)
	assert.Equal(t, 10, w.SDA)
	assert.Equal(t, 5, w.Data[0])
	f, _, _, err := frameFormat(cfg, "")
	require.Nil(t, err)
	assert.Equal(t, ov7675.FormatRGB565, f)
	// flag overrides config
	f, _, _, err = frameFormat(cfg, "raw")
	require.Nil(t, err)
	assert.Equal(t, ov7675.FormatRawBayer, f)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.json")
	err := os.WriteFile(path, []byte(`{"width": 4, "height": 2, "vsync": "GPIO27"}`), 0644)
	require.Nil(t, err)
	cfg := loadConfig(path)
	_, width, height, err := frameFormat(cfg, "")
	require.Nil(t, err)
	assert.Equal(t, 4, width)
	assert.Equal(t, 2, height)
	w, err := wiring(cfg)
	require.Nil(t, err)
	assert.Equal(t, 27, w.VSYNC)
}

func TestWiringConflict(t *testing.T) {
	t.Setenv("OV7675_HREF", "GPIO2")
	cfg := loadConfig("")
	_, err := wiring(cfg)
	assert.Equal(t, rpi.ErrConflict{Pin: 2, Signals: [2]string{"sda", "href"}}, err)

	t.Setenv("OV7675_HREF", "J8p1")
	cfg = loadConfig("")
	_, err = wiring(cfg)
	assert.NotNil(t, err)
}

func TestFrameFormatInvalid(t *testing.T) {
	cfg := loadConfig("")
	_, _, _, err := frameFormat(cfg, "bmp")
	assert.NotNil(t, err)

	t.Setenv("OV7675_WIDTH", "0")
	cfg = loadConfig("")
	_, _, _, err = frameFormat(cfg, "")
	assert.EqualError(t, err, "invalid frame size 0x240")
}

func TestWriteFrame(t *testing.T) {
	dir := t.TempDir()
	buf := []byte{0x10, 0x80, 0x20, 0x80, 0x30, 0x80, 0x40, 0x80}

	path := filepath.Join(dir, "frame.hex")
	err := writeFrame(path, ov7675.FormatYUYV, buf, 2, 2, false, 4)
	require.Nil(t, err)
	hex, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.Equal(t, "10 80 20 80 \n30 80 40 80 \n", string(hex))
	in, err := os.Open(path)
	require.Nil(t, err)
	defer in.Close()
	rbuf, missing, err := frame.ReadHex(in, len(buf))
	require.Nil(t, err)
	assert.Equal(t, 0, missing)
	assert.Equal(t, buf, rbuf)

	path = filepath.Join(dir, "frame.raw")
	err = writeFrame(path, ov7675.FormatYUYV, buf, 2, 2, false, 0)
	require.Nil(t, err)
	raw, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.Equal(t, buf, raw)

	for _, name := range []string{"frame.png", "frame.JPG", "gray.png"} {
		path = filepath.Join(dir, name)
		err = writeFrame(path, ov7675.FormatYUYV, buf, 2, 2, strings.HasPrefix(name, "gray"), 0)
		require.Nil(t, err, name)
		fi, err := os.Stat(path)
		require.Nil(t, err)
		assert.NotZero(t, fi.Size())
	}

	// size mismatch
	err = writeFrame(filepath.Join(dir, "bad.png"), ov7675.FormatYUYV, buf, 4, 2, false, 0)
	assert.NotNil(t, err)
}
