// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package frame

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteHex writes buf as space separated upper case hex bytes, perLine bytes
// to a line.
//
// If perLine is not positive the dump is a single line. The dump always ends
// with a newline.
func WriteHex(w io.Writer, buf []byte, perLine int) error {
	bw := bufio.NewWriter(w)
	for i, b := range buf {
		fmt.Fprintf(bw, "%02X ", b)
		if perLine > 0 && (i+1)%perLine == 0 {
			bw.WriteByte('\n')
		}
	}
	if perLine <= 0 || len(buf)%perLine != 0 || len(buf) == 0 {
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ReadHex reads n bytes from a hex dump of whitespace separated tokens.
//
// If the dump ends early the remainder of the returned buffer is zeroed and
// missing is the number of bytes that were not present in the dump. Any
// tokens beyond the first n are not read.
func ReadHex(r io.Reader, n int) (buf []byte, missing int, err error) {
	buf = make([]byte, n)
	s := bufio.NewScanner(r)
	s.Split(bufio.ScanWords)
	i := 0
	for ; i < n && s.Scan(); i++ {
		tok := s.Text()
		v, perr := strconv.ParseUint(tok, 16, 8)
		if perr != nil {
			return nil, 0, HexError{Offset: i, Token: tok}
		}
		buf[i] = uint8(v)
	}
	if err = s.Err(); err != nil {
		return nil, 0, err
	}
	return buf, n - i, nil
}

// HexError indicates a token in a hex dump that is not a hex byte.
type HexError struct {
	// Offset is the index of the byte in the dump.
	Offset int
	Token  string
}

func (e HexError) Error() string {
	return fmt.Sprintf("invalid hex byte %q at offset %d", e.Token, e.Offset)
}
