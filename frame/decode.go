// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package frame converts captured frame buffers into images, and provides
// the hex dump encoding used to move frames over a serial console.
package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/warthog618/ov7675"
)

// YUYVToRGBA converts a YUYV 4:2:2 buffer into a full colour image.
//
// The width and height are in pixels, and each pair of horizontally adjacent
// pixels shares the U and V samples, so width must be even.
func YUYVToRGBA(buf []byte, width, height int) (*image.RGBA, error) {
	if err := checkSize(buf, width, height, 2); err != nil {
		return nil, err
	}
	if width%2 != 0 {
		return nil, ErrOddWidth
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := buf[y*width*2 : (y+1)*width*2]
		for x := 0; x < width; x += 2 {
			q := row[x*2 : x*2+4]
			u := float64(q[1]) - 128
			v := float64(q[3]) - 128
			img.SetRGBA(x, y, yuvToRGBA(q[0], u, v))
			img.SetRGBA(x+1, y, yuvToRGBA(q[2], u, v))
		}
	}
	return img, nil
}

// BT.601 full range
func yuvToRGBA(y uint8, u, v float64) color.RGBA {
	yf := float64(y)
	return color.RGBA{
		R: clamp(yf + 1.402*v),
		G: clamp(yf - 0.344136*u - 0.714136*v),
		B: clamp(yf + 1.772*u),
		A: 0xff,
	}
}

func clamp(f float64) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return uint8(f)
}

// YUYVLuma extracts the Y samples of a YUYV 4:2:2 buffer as a grayscale
// image.
func YUYVLuma(buf []byte, width, height int) (*image.Gray, error) {
	if err := checkSize(buf, width, height, 2); err != nil {
		return nil, err
	}
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = buf[i*2]
	}
	return img, nil
}

// RGB565ToRGBA converts an RGB565 buffer, with the high byte of each pixel
// first, into a full colour image.
func RGB565ToRGBA(buf []byte, width, height int) (*image.RGBA, error) {
	if err := checkSize(buf, width, height, 2); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		p := uint16(buf[i*2])<<8 | uint16(buf[i*2+1])
		r := uint32(p>>11) & 0x1f
		g := uint32(p>>5) & 0x3f
		b := uint32(p) & 0x1f
		img.Pix[i*4+0] = uint8(r * 255 / 31)
		img.Pix[i*4+1] = uint8(g * 255 / 63)
		img.Pix[i*4+2] = uint8(b * 255 / 31)
		img.Pix[i*4+3] = 0xff
	}
	return img, nil
}

// RawToGray presents a raw Bayer buffer, one byte per pixel, as a grayscale
// image of the colour filter mosaic.
func RawToGray(buf []byte, width, height int) (*image.Gray, error) {
	if err := checkSize(buf, width, height, 1); err != nil {
		return nil, err
	}
	img := image.NewGray(image.Rect(0, 0, width, height))
	copy(img.Pix, buf)
	return img, nil
}

// Decode converts a buffer captured in the output format into an image.
//
// The width and height are in pixels.
func Decode(f ov7675.OutputFormat, buf []byte, width, height int) (image.Image, error) {
	var img image.Image
	var err error
	switch f {
	case ov7675.FormatYUYV:
		img, err = YUYVToRGBA(buf, width, height)
	case ov7675.FormatRGB565:
		img, err = RGB565ToRGBA(buf, width, height)
	case ov7675.FormatRawBayer:
		img, err = RawToGray(buf, width, height)
	default:
		err = fmt.Errorf("can't decode %s", f)
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

// DecodeLuma converts a YUYV buffer into a grayscale image, and other formats
// as per Decode.
func DecodeLuma(f ov7675.OutputFormat, buf []byte, width, height int) (image.Image, error) {
	if f == ov7675.FormatYUYV {
		img, err := YUYVLuma(buf, width, height)
		if err != nil {
			return nil, err
		}
		return img, nil
	}
	return Decode(f, buf, width, height)
}

func checkSize(buf []byte, width, height, bpp int) error {
	if width <= 0 || height <= 0 || width > math.MaxInt/bpp/height {
		return SizeError{Width: width, Height: height, Want: 0, Got: len(buf)}
	}
	if want := width * height * bpp; len(buf) != want {
		return SizeError{Width: width, Height: height, Want: want, Got: len(buf)}
	}
	return nil
}

var (
	// ErrOddWidth indicates a 4:2:2 image with an odd number of columns.
	ErrOddWidth = errors.New("width must be even")
)

// SizeError indicates the buffer does not match the image dimensions.
type SizeError struct {
	Width  int
	Height int
	Want   int
	Got    int
}

func (e SizeError) Error() string {
	if e.Want == 0 {
		return fmt.Sprintf("invalid dimensions %dx%d", e.Width, e.Height)
	}
	return fmt.Sprintf("%dx%d image requires %d bytes, got %d",
		e.Width, e.Height, e.Want, e.Got)
}
