// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/warthog618/ov7675"
)

func init() {
	regCmd.AddCommand(regGetCmd)
	regCmd.AddCommand(regSetCmd)
	rootCmd.AddCommand(regCmd)
}

var (
	regCmd = &cobra.Command{
		Use:   "reg",
		Short: "Read or write sensor registers",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	regGetCmd = &cobra.Command{
		Use:                   "get <reg>...",
		Short:                 "Read the value of a register or registers",
		Long:                  `Read registers, identified by name (e.g. COM7) or number (e.g. 0x12).`,
		Args:                  cobra.MinimumNArgs(1),
		RunE:                  regGet,
		DisableFlagsInUseLine: true,
	}
	regSetCmd = &cobra.Command{
		Use:                   "set <reg> <value>",
		Short:                 "Write the value of a register",
		Args:                  cobra.ExactArgs(2),
		RunE:                  regSet,
		DisableFlagsInUseLine: true,
	}
)

func parseRegisters(args []string) ([]ov7675.Register, error) {
	rr := []ov7675.Register(nil)
	for _, arg := range args {
		r, err := ov7675.ParseRegister(arg)
		if err != nil {
			return nil, err
		}
		rr = append(rr, r)
	}
	return rr, nil
}

func regGet(cmd *cobra.Command, args []string) error {
	rr, err := parseRegisters(args)
	if err != nil {
		return err
	}
	cfg := loadConfig(rootOpts.ConfigFile)
	r, err := openRig(cfg, false, newLogger())
	if err != nil {
		return err
	}
	defer r.Close()
	for _, reg := range rr {
		v, err := r.dev.ReadRegister(reg)
		if err != nil {
			logErr(cmd, err)
			continue
		}
		fmt.Printf("%s=0x%02x\n", reg, v)
	}
	return nil
}

func regSet(cmd *cobra.Command, args []string) error {
	reg, err := ov7675.ParseRegister(args[0])
	if err != nil {
		return err
	}
	v, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil {
		return fmt.Errorf("can't parse value '%s'", args[1])
	}
	cfg := loadConfig(rootOpts.ConfigFile)
	r, err := openRig(cfg, false, newLogger())
	if err != nil {
		return err
	}
	defer r.Close()
	return r.dev.WriteRegister(reg, uint8(v))
}
