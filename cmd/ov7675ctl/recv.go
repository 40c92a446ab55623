// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/warthog618/ov7675/frame"
	"github.com/warthog618/ov7675/receiver"
)

func init() {
	recvCmd.Flags().StringVarP(&recvOpts.Output, "output", "o", "", "write the image to the named file")
	recvCmd.Flags().StringVarP(&recvOpts.Format, "format", "f", "", "format of the received frame (default from config)")
	recvCmd.Flags().BoolVarP(&recvOpts.Gray, "gray", "g", false, "convert YUYV frames to grayscale")
	recvCmd.Flags().BoolVarP(&recvOpts.Wait, "wait", "w", false, "wait for the receiver to be plugged in")
	rootCmd.AddCommand(recvCmd)
}

var (
	recvCmd = &cobra.Command{
		Use:   "recv [flags] [port]",
		Short: "Receive a frame over a serial port",
		Long: `Receive a hex dump of a frame from capture firmware over a serial port,
and convert it to an image. If no port is named, either as an argument or in
the config, the first USB serial port with a Raspberry Pi vendor ID is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: recv,
	}
	recvOpts = struct {
		Output string
		Format string
		Gray   bool
		Wait   bool
	}{}
)

func recv(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(rootOpts.ConfigFile)
	f, width, height, err := frameFormat(cfg, recvOpts.Format)
	if err != nil {
		return err
	}
	log := newLogger()
	name := cfg.MustGet("port").String()
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" && recvOpts.Wait {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		name, err = receiver.WaitForPort(ctx, receiver.PicoVendorID, receiver.WithLogger(log))
		if err != nil {
			return err
		}
	}
	r, err := receiver.Open(name,
		receiver.WithBaudRate(cfg.MustGet("baud").Int()),
		receiver.WithIdleTimeout(cfg.MustGet("idle").Duration()),
		receiver.WithLogger(log))
	if err != nil {
		return err
	}
	defer r.Close()
	fmt.Fprintf(os.Stderr, "waiting for frame on %s\n", r.Name())
	buf, missing, err := r.ReadFrame(width * f.BytesPerPixel() * height)
	if err != nil {
		return err
	}
	if missing != 0 {
		logErr(cmd, fmt.Errorf("frame is short by %d bytes, padded with zeros", missing))
	}
	path := recvOpts.Output
	if path == "" {
		path, err = frame.NextPath(".", "frame", "png")
		if err != nil {
			return err
		}
	}
	if err = writeFrame(path, f, buf, width, height, recvOpts.Gray, cfg.MustGet("hexperline").Int()); err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
