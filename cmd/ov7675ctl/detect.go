// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/warthog618/ov7675"
)

func init() {
	detectCmd.Flags().BoolVarP(&detectOpts.Init, "init", "i", false, "select the default yuyv output format once detected")
	rootCmd.AddCommand(detectCmd)
}

var (
	detectCmd = &cobra.Command{
		Use:   "detect [flags]",
		Short: "Detect the camera",
		Long: `Read the product ID and version registers of the sensor and check that
they identify an OV7675. With --init the sensor is then set to its default
yuyv output format.`,
		Args: cobra.NoArgs,
		RunE: detect,
	}
	detectOpts = struct {
		Init bool
	}{}
)

func detect(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(rootOpts.ConfigFile)
	r, err := openRig(cfg, false, newLogger())
	if err != nil {
		return err
	}
	defer r.Close()
	return probe(os.Stdout, r.dev, detectOpts.Init)
}

// probe reports the identity of the sensor and, if setDefault is set and the
// sensor is an OV7675, applies the default output format.
func probe(w io.Writer, d *ov7675.Device, setDefault bool) error {
	id, err := d.Detect()
	if errors.Is(err, ov7675.ErrNotDetected) {
		fmt.Fprintf(w, "%s: not an OV7675, check the wiring and address\n", id)
		return err
	}
	if err != nil {
		return fmt.Errorf("no response from camera: %w", err)
	}
	fmt.Fprintf(w, "%s: OV7675 detected at 0x%02x\n", id, d.Address())
	if !setDefault {
		return nil
	}
	if err = d.ApplyFormat(ov7675.FormatYUYV); err != nil {
		return err
	}
	fmt.Fprintf(w, "output format set to %s\n", ov7675.FormatYUYV)
	return nil
}
