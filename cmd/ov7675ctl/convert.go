// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warthog618/ov7675/frame"
)

func init() {
	convertCmd.Flags().StringVarP(&convertOpts.Output, "output", "o", "", "write the image to the named file")
	convertCmd.Flags().StringVarP(&convertOpts.Format, "format", "f", "", "format of the frame in the dump (default from config)")
	convertCmd.Flags().BoolVarP(&convertOpts.Gray, "gray", "g", false, "convert YUYV frames to grayscale")
	rootCmd.AddCommand(convertCmd)
}

var (
	convertCmd = &cobra.Command{
		Use:   "convert [flags] <dump>",
		Short: "Convert a hex dump of a frame to an image",
		Long: `Convert a hex dump of a frame, such as a serial console log from capture
firmware, to an image. A short dump is zero padded.`,
		Args: cobra.ExactArgs(1),
		RunE: convert,
	}
	convertOpts = struct {
		Output string
		Format string
		Gray   bool
	}{}
)

func convert(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(rootOpts.ConfigFile)
	f, width, height, err := frameFormat(cfg, convertOpts.Format)
	if err != nil {
		return err
	}
	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()
	buf, missing, err := frame.ReadHex(in, width*f.BytesPerPixel()*height)
	if err != nil {
		return err
	}
	if missing != 0 {
		logErr(cmd, fmt.Errorf("dump is short by %d bytes, padded with zeros", missing))
	}
	path := convertOpts.Output
	if path == "" {
		path, err = frame.NextPath(".", "frame", "png")
		if err != nil {
			return err
		}
	}
	if err = writeFrame(path, f, buf, width, height, convertOpts.Gray, 0); err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
