// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// A utility to control and capture frames from an OV7675 camera.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootOpts.ConfigFile, "config-file", "c", "", "read configuration from the named JSON file")
	rootCmd.PersistentFlags().BoolVarP(&rootOpts.Verbose, "verbose", "v", false, "log bus and capture activity")
}

var (
	rootCmd = &cobra.Command{
		Use:   "ov7675ctl",
		Short: "ov7675ctl is a utility to control OV7675 cameras",
		Long: "ov7675ctl is a utility to control OV7675 cameras wired to GPIO lines " +
			"on Linux GPIO character devices, and to convert the frames they capture",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	rootOpts = struct {
		ConfigFile string
		Verbose    bool
	}{}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func logErr(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "ov7675ctl %s: %s\n", cmd.Name(), err)
}

// newLogger returns the logger for the command, which logs to stderr.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if rootOpts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
