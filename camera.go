// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package ov7675

// Capturer captures a single frame into a caller supplied buffer.
//
// The buffer must be exactly width*height bytes.
type Capturer interface {
	Capture(buf []byte, width, height int) error
}

// Camera combines a Device, which controls the output format, with the
// Capturer that samples the video port.
type Camera struct {
	dev *Device
	c   Capturer
}

// NewCamera creates a Camera.
func NewCamera(dev *Device, c Capturer) *Camera {
	return &Camera{dev: dev, c: c}
}

// Device returns the register side of the camera.
func (c *Camera) Device() *Device {
	return c.dev
}

// CaptureFrame selects the output format and then captures one frame.
//
// width is in bytes, i.e. pixels times the bytes per pixel of the format.
//
// Selecting the format is best effort. A failure is logged by the Device and
// the capture proceeds with whatever format the sensor is left in, so the
// ApplyFormat error is dropped. Callers that need the format applied should
// call ApplyFormat themselves first.
// The capture blocks until the frame is complete.
func (c *Camera) CaptureFrame(f OutputFormat, buf []byte, width, height int) error {
	_ = c.dev.ApplyFormat(f)
	return c.c.Capture(buf, width, height)
}
