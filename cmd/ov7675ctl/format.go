// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warthog618/ov7675"
)

func init() {
	formatCmd.AddCommand(formatSetCmd)
	rootCmd.AddCommand(formatCmd)
}

var (
	formatCmd = &cobra.Command{
		Use:   "format",
		Short: "Describe the output format",
		Long:  `Read the format control registers and describe the output format they select.`,
		Args:  cobra.NoArgs,
		RunE:  format,
	}
	formatSetCmd = &cobra.Command{
		Use:                   "set <yuyv|rgb565|raw>",
		Short:                 "Select the output format",
		Args:                  cobra.ExactArgs(1),
		RunE:                  formatSet,
		DisableFlagsInUseLine: true,
	}
)

func format(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(rootOpts.ConfigFile)
	r, err := openRig(cfg, false, newLogger())
	if err != nil {
		return err
	}
	defer r.Close()
	fd, err := r.dev.DescribeFormat()
	if err != nil {
		return err
	}
	fmt.Print(fd)
	return nil
}

func formatSet(cmd *cobra.Command, args []string) error {
	f, err := ov7675.ParseFormat(args[0])
	if err != nil {
		return err
	}
	cfg := loadConfig(rootOpts.ConfigFile)
	r, err := openRig(cfg, false, newLogger())
	if err != nil {
		return err
	}
	defer r.Close()
	if err = r.dev.ApplyFormat(f); err != nil {
		return err
	}
	fd, err := r.dev.DescribeFormat()
	if err != nil {
		return err
	}
	fmt.Print(fd)
	return nil
}
