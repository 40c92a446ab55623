// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package ov7675

import (
	"fmt"
	"strings"
)

// OutputFormat is the pixel format output by the sensor.
type OutputFormat int

const (
	// FormatYUYV selects interleaved YUV 4:2:2 in YUYV order.
	FormatYUYV OutputFormat = iota

	// FormatRGB565 selects 16-bit RGB565.
	FormatRGB565

	// FormatRawBayer selects the raw Bayer sensor data.
	FormatRawBayer
)

var formatNames = map[OutputFormat]string{
	FormatYUYV:     "yuyv",
	FormatRGB565:   "rgb565",
	FormatRawBayer: "raw",
}

func (f OutputFormat) String() string {
	if n, ok := formatNames[f]; ok {
		return n
	}
	return fmt.Sprintf("OutputFormat(%d)", int(f))
}

// BytesPerPixel returns the number of bytes the sensor outputs for each pixel
// in the format.
//
// Unknown formats are treated as FormatYUYV.
func (f OutputFormat) BytesPerPixel() int {
	if f == FormatRawBayer {
		return 1
	}
	return 2
}

// ParseFormat converts a format name to an OutputFormat.
//
// Names are case insensitive.
func ParseFormat(s string) (OutputFormat, error) {
	s = strings.ToLower(s)
	for f, n := range formatNames {
		if s == n {
			return f, nil
		}
	}
	switch s {
	case "yuv", "yuv422":
		return FormatYUYV, nil
	case "bayer", "raw-bayer":
		return FormatRawBayer, nil
	}
	return FormatYUYV, fmt.Errorf("unknown format '%s'", s)
}

// a single read-modify-write in a format change.
type formatStep struct {
	reg   Register
	set   uint8
	clear uint8
}

func (d *Device) formatSteps(f OutputFormat) []formatStep {
	r := d.regs
	switch f {
	case FormatRGB565:
		return []formatStep{
			{r.COM7, com7RGB, com7Raw},
			{r.COM15, com15RGB565, com15RGB555},
			// RGB444 overrides RGB565 if left enabled.
			{r.RGB444, 0, rgb444Enable},
		}
	case FormatRawBayer:
		return []formatStep{
			{r.COM7, com7Raw, com7RGB},
		}
	default:
		return []formatStep{
			{r.COM7, 0, com7RGB | com7Raw},
			{r.TSLB, 0, tslbUVFirst},
			{r.COM13, 0, com13UVSwap},
		}
	}
}

// ApplyFormat sets the output format of the sensor.
//
// Formats other than those defined fall back to FormatYUYV.
//
// The format is changed by a sequence of read-modify-writes. The sequence
// stops at the first failure, which is logged and returned as a RegisterError
// naming the register. Changes already written are not rolled back, so the
// sensor may be left with the format partially applied.
func (d *Device) ApplyFormat(f OutputFormat) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.formatSteps(f) {
		err := d.modify(s.reg, setClear(s.set, s.clear))
		if err != nil {
			d.log.Error("format change failed", "format", f, "reg", s.reg, "err", err)
			return err
		}
	}
	d.log.Debug("format applied", "format", f)
	return nil
}

// Category is the basic output format category decoded from COM7.
type Category int

const (
	// CategoryYUV indicates YUV output.
	CategoryYUV Category = iota

	// CategoryRGB indicates RGB output.
	CategoryRGB

	// CategoryRawBayer indicates raw Bayer output.
	CategoryRawBayer

	// CategoryProcessedRawBayer indicates processed Bayer output.
	CategoryProcessedRawBayer
)

func (c Category) String() string {
	switch c {
	case CategoryYUV:
		return "YUV"
	case CategoryRGB:
		return "RGB"
	case CategoryRawBayer:
		return "Bayer RAW"
	case CategoryProcessedRawBayer:
		return "Processed Bayer RAW"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// YUVOrder is the byte ordering of YUV output.
type YUVOrder int

const (
	OrderYUYV YUVOrder = iota
	OrderYVYU
	OrderUYVY
	OrderVYUY
)

func (o YUVOrder) String() string {
	switch o {
	case OrderYUYV:
		return "YUYV"
	case OrderYVYU:
		return "YVYU"
	case OrderUYVY:
		return "UYVY"
	case OrderVYUY:
		return "VYUY"
	}
	return fmt.Sprintf("YUVOrder(%d)", int(o))
}

// RGBFormat is the variant of RGB output.
type RGBFormat int

const (
	RGBPlain RGBFormat = iota
	RGB565
	RGB555
)

func (r RGBFormat) String() string {
	switch r {
	case RGBPlain:
		return "RGB"
	case RGB565:
		return "RGB565"
	case RGB555:
		return "RGB555"
	}
	return fmt.Sprintf("RGBFormat(%d)", int(r))
}

// FormatDescription is the output format as decoded from the format control
// registers.
type FormatDescription struct {
	// The raw register values. TSLB and COM13 are only read for YUV.
	COM7  uint8
	COM15 uint8
	TSLB  uint8
	COM13 uint8

	Category Category

	// Only valid for CategoryYUV.
	Order YUVOrder

	// Only valid for CategoryRGB.
	RGB RGBFormat

	// QVGA is set for QVGA resolution, else VGA or a resolution set by other
	// registers.
	QVGA bool

	CCIR656 bool
}

// DecodeFormat decodes the output format from the format control register
// values.
//
// tslb and com13 are only relevant to YUV output.
func DecodeFormat(com7, com15, tslb, com13 uint8) FormatDescription {
	fd := FormatDescription{
		COM7:    com7,
		COM15:   com15,
		QVGA:    com7&com7QVGA != 0,
		CCIR656: com7&com7CCIR656 != 0,
	}
	switch com7 & (com7RGB | com7Raw) {
	case 0:
		fd.Category = CategoryYUV
		fd.TSLB = tslb
		fd.COM13 = com13
		uvFirst := tslb&tslbUVFirst != 0
		swap := com13&com13UVSwap != 0
		switch {
		case !uvFirst && !swap:
			fd.Order = OrderYUYV
		case !uvFirst && swap:
			fd.Order = OrderYVYU
		case uvFirst && !swap:
			fd.Order = OrderUYVY
		default:
			fd.Order = OrderVYUY
		}
	case com7RGB:
		fd.Category = CategoryRGB
		switch com15 & (com15RGB565 | com15RGB555) {
		case com15RGB565:
			fd.RGB = RGB565
		case com15RGB565 | com15RGB555:
			fd.RGB = RGB555
		default:
			fd.RGB = RGBPlain
		}
	case com7Raw:
		fd.Category = CategoryRawBayer
	default:
		fd.Category = CategoryProcessedRawBayer
	}
	return fd
}

// DescribeFormat reads and decodes the current output format.
//
// Any failed read aborts the description and is returned as a RegisterError
// naming the register.
func (d *Device) DescribeFormat() (FormatDescription, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	com7, err := d.readRegister(d.regs.COM7)
	if err != nil {
		return FormatDescription{}, err
	}
	com15, err := d.readRegister(d.regs.COM15)
	if err != nil {
		return FormatDescription{}, err
	}
	var tslb, com13 uint8
	if com7&(com7RGB|com7Raw) == 0 {
		tslb, err = d.readRegister(d.regs.TSLB)
		if err != nil {
			return FormatDescription{}, err
		}
		com13, err = d.readRegister(d.regs.COM13)
		if err != nil {
			return FormatDescription{}, err
		}
	}
	return DecodeFormat(com7, com15, tslb, com13), nil
}

func (fd FormatDescription) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "registers: COM7=0x%02X, COM15=0x%02X\n", fd.COM7, fd.COM15)
	fmt.Fprintf(&b, "format: %s\n", fd.Category)
	switch fd.Category {
	case CategoryYUV:
		fmt.Fprintf(&b, "order: %s\n", fd.Order)
	case CategoryRGB:
		fmt.Fprintf(&b, "detail: %s\n", fd.RGB)
	}
	if fd.QVGA {
		b.WriteString("resolution: QVGA\n")
	} else {
		b.WriteString("resolution: VGA (or as set by other registers)\n")
	}
	if fd.CCIR656 {
		b.WriteString("CCIR656: enabled\n")
	}
	return b.String()
}
