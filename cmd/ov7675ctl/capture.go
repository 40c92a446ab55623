// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warthog618/config"
	"github.com/warthog618/ov7675"
	"github.com/warthog618/ov7675/frame"
)

func init() {
	captureCmd.Flags().StringVarP(&captureOpts.Output, "output", "o", "", "write the frame to the named file")
	captureCmd.Flags().StringVarP(&captureOpts.Format, "format", "f", "", "select the output format (default from config)")
	captureCmd.Flags().BoolVarP(&captureOpts.Gray, "gray", "g", false, "convert YUYV frames to grayscale")
	captureCmd.SetHelpTemplate(captureCmd.HelpTemplate() + extendedCaptureHelp)
	rootCmd.AddCommand(captureCmd)
}

var extendedCaptureHelp = `
Outputs:
  The encoding of the output is determined by the file extension:
  .png, .jpg:   decoded image
  .hex:         hex dump, as read by convert
  other:        raw frame bytes

  If no output is named the frame is written to the next frameN.png in the
  current directory.
`

var (
	captureCmd = &cobra.Command{
		Use:   "capture [flags]",
		Short: "Capture a frame",
		Long: `Select the output format, then capture a single frame from the video
port. The frame dimensions are taken from the width and height config.`,
		Args: cobra.NoArgs,
		RunE: captureFrame,
	}
	captureOpts = struct {
		Output string
		Format string
		Gray   bool
	}{}
)

// frameFormat returns the output format and pixel dimensions of frames.
func frameFormat(cfg *config.Config, override string) (ov7675.OutputFormat, int, int, error) {
	name := override
	if name == "" {
		name = cfg.MustGet("format").String()
	}
	f, err := ov7675.ParseFormat(name)
	if err != nil {
		return f, 0, 0, err
	}
	width := cfg.MustGet("width").Int()
	height := cfg.MustGet("height").Int()
	if width <= 0 || height <= 0 {
		return f, 0, 0, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	return f, width, height, nil
}

func captureFrame(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(rootOpts.ConfigFile)
	f, width, height, err := frameFormat(cfg, captureOpts.Format)
	if err != nil {
		return err
	}
	log := newLogger()
	r, err := openRig(cfg, true, log)
	if err != nil {
		return err
	}
	defer r.Close()
	cam, e := r.camera(cfg)
	buf := make([]byte, width*f.BytesPerPixel()*height)
	err = cam.CaptureFrame(f, buf, width*f.BytesPerPixel(), height)
	if err != nil {
		return err
	}
	s := e.Stats()
	log.Info("captured frame", "format", f, "rows", s.Rows, "samples", s.Samples,
		"polls", s.Polls, "duration", s.Duration)
	path := captureOpts.Output
	if path == "" {
		path, err = frame.NextPath(".", "frame", "png")
		if err != nil {
			return err
		}
	}
	if err = writeFrame(path, f, buf, width, height, captureOpts.Gray, cfg.MustGet("hexperline").Int()); err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

// writeFrame writes the frame to the file, encoded according to its
// extension.
func writeFrame(path string, f ov7675.OutputFormat, buf []byte, width, height int, gray bool, perLine int) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		var img image.Image
		var err error
		if gray {
			img, err = frame.DecodeLuma(f, buf, width, height)
		} else {
			img, err = frame.Decode(f, buf, width, height)
		}
		if err != nil {
			return err
		}
		return frame.Save(path, img)
	case ".hex":
		w, err := os.Create(path)
		if err != nil {
			return err
		}
		err = frame.WriteHex(w, buf, perLine)
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		return err
	}
	return os.WriteFile(path, buf, 0644)
}
