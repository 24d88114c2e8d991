// Copyright ©2024 The puretabix Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vcf

import (
	"fmt"
	"strings"
)

// ParseError reports a character rejected by the parser's state
// machine, carrying the state name and byte position the way the
// design calls for so a caller can point at the exact offending
// column.
type ParseError struct {
	State string
	Pos   int
	Char  byte
	EOI   bool
}

func (e *ParseError) Error() string {
	if e.EOI {
		return fmt.Sprintf("vcf: unexpected end of line in state %s at byte %d", e.State, e.Pos)
	}
	return fmt.Sprintf("vcf: unexpected %q in state %s at byte %d", e.Char, e.State, e.Pos)
}

func newParseError(state string, pos int) *ParseError {
	return &ParseError{State: state, Pos: pos, EOI: true}
}

func newParseErrorChar(state string, pos int, c byte) *ParseError {
	return &ParseError{State: state, Pos: pos, Char: c}
}

// scanResult is what a token-level state left behind: the token text,
// the byte that stopped it (0 means end of input), and the cursor
// immediately after the stop byte (or at end of input).
type scanResult struct {
	token []byte
	stop  byte
	next  int
}

// scan reads from line[i] up to (not including) the first byte in
// stops or the first '\n', whichever comes first, or to end of input.
// If valid is non-nil, every byte consumed
// into the token must satisfy it or the scan fails with a ParseError
// naming state.
func scan(line []byte, i int, stops string, valid func(byte) bool, state string) (scanResult, error) {
	start := i
	n := len(line)
	for i < n {
		c := line[i]
		if c == '\n' {
			return scanResult{token: line[start:i], stop: '\n', next: i + 1}, nil
		}
		if strings.IndexByte(stops, c) >= 0 {
			return scanResult{token: line[start:i], stop: c, next: i + 1}, nil
		}
		if valid != nil && !valid(c) {
			return scanResult{}, newParseErrorChar(state, i, c)
		}
		i++
	}
	return scanResult{token: line[start:i], stop: 0, next: i}, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isRefBase(c byte) bool {
	switch c {
	case 'A', 'C', 'G', 'T', 'N':
		return true
	default:
		return false
	}
}

func isQualChar(c byte) bool {
	return isDigit(c) || c == '.' || c == '-'
}

func isIDChar(c byte) bool {
	return c != ';' && c != '\t' && c != ' ' && c != '\n'
}
