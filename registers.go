// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package ov7675

import (
	"fmt"
	"strconv"
	"strings"
)

// Register is the address of a sensor register.
type Register uint8

// Registers used to identify the sensor and control its output format.
const (
	RegPID    Register = 0x0A
	RegVER    Register = 0x0B
	RegCOM7   Register = 0x12
	RegTSLB   Register = 0x3A
	RegCOM13  Register = 0x3D
	RegCOM15  Register = 0x40
	RegRGB444 Register = 0x8C
)

var regNames = map[Register]string{
	RegPID:    "PID",
	RegVER:    "VER",
	RegCOM7:   "COM7",
	RegTSLB:   "TSLB",
	RegCOM13:  "COM13",
	RegCOM15:  "COM15",
	RegRGB444: "RGB444",
}

func (r Register) String() string {
	if n, ok := regNames[r]; ok {
		return n
	}
	return fmt.Sprintf("0x%02x", uint8(r))
}

// ParseRegister converts a register name, such as COM7, or a register number,
// in decimal or 0x prefixed hex, to a Register.
func ParseRegister(s string) (Register, error) {
	for r, n := range regNames {
		if strings.EqualFold(n, s) {
			return r, nil
		}
	}
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid register '%s'", s)
	}
	return Register(v), nil
}

// COM7 bits
const (
	com7Raw     = 1 << 0
	com7RGB     = 1 << 2
	com7QVGA    = 1 << 3
	com7CCIR656 = 1 << 6
)

// TSLB bit 3 places UV ahead of Y in the output sequence.
const tslbUVFirst = 1 << 3

// COM13 bit 0 swaps U and V.
const com13UVSwap = 1 << 0

// COM15 bits [5:4] select the RGB variant.
const (
	com15RGB565 = 1 << 4
	com15RGB555 = 1 << 5
)

// RGB444 bit 1 enables RGB444 which overrides the COM15 selection.
const rgb444Enable = 1 << 1

// Expected identity of an OV7675.
const (
	ExpectedPID = 0x76
	ExpectedVER = 0x73
)

// DefaultAddress is the 7-bit bus address of the sensor.
//
// The datasheet quotes the 8-bit write address, 0x42.
const DefaultAddress = 0x42 >> 1

// RegisterMap identifies the registers, and the identity values, of a
// particular sensor variant.
type RegisterMap struct {
	PID    Register
	VER    Register
	COM7   Register
	COM15  Register
	RGB444 Register
	TSLB   Register
	COM13  Register

	ExpectedPID uint8
	ExpectedVER uint8
}

// DefaultRegisterMap is the register map of the OV7675.
var DefaultRegisterMap = RegisterMap{
	PID:         RegPID,
	VER:         RegVER,
	COM7:        RegCOM7,
	COM15:       RegCOM15,
	RGB444:      RegRGB444,
	TSLB:        RegTSLB,
	COM13:       RegCOM13,
	ExpectedPID: ExpectedPID,
	ExpectedVER: ExpectedVER,
}
