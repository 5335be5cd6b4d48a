/*
 * adiprobe - Error types.
 *
 * Copyright 2026, adiprobe contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package adierr collects the ADI stack's error kinds. Sentinel errors
// are comparable with errors.Is; the *Error structs carry extra context
// and are comparable with errors.As. Wrap gives every layer the same
// "while doing X: <cause>" operation-context chain the CLI prints on
// exit.
package adierr

import "fmt"

// Transport-layer sentinels.
var (
	ErrDeviceNotFound  = &sentinel{"debug probe not found"}
	ErrHIDIO           = &sentinel{"HID transport I/O failure"}
	ErrShortResponse   = &sentinel{"short response from probe"}
	ErrBadResponseByte = &sentinel{"unexpected response status byte"}
)

// Protocol-layer sentinels.
var (
	ErrSWDProtocol    = &sentinel{"SWD protocol violation"}
	ErrNoAcknowledge  = &sentinel{"no ACK received from target"}
	ErrFaultResponse  = &sentinel{"FAULT response from target"}
	ErrWaitResponse   = &sentinel{"WAIT response from target"}
	ErrIncorrectParity = &sentinel{"parity error on SWD transaction"}
)

// DP-layer sentinels.
var (
	ErrTargetPowerUpFailed = &sentinel{"target did not acknowledge power-up request"}
)

// AP/memory sentinels.
var (
	ErrUnalignedAddress         = &sentinel{"unaligned memory address for requested width"}
	ErrOutOfBounds              = &sentinel{"address outside addressable range"}
	ErrUnsupportedTransferWidth = &sentinel{"transfer width not supported by this AP"}
)

// Core sentinels.
var (
	ErrUnexpectedCoreState = &sentinel{"core is in an unexpected state for this operation"}
)

// Flash sentinels.
var (
	ErrEraseFailed   = &sentinel{"flash page erase failed"}
	ErrProgramFailed = &sentinel{"flash page program failed"}
)

type sentinel struct{ msg string }

func (s *sentinel) Error() string { return s.msg }

// UnsupportedRegisterError reports a register access rejected because the
// latched DP version is older than the register requires.
type UnsupportedRegisterError struct {
	Name       string
	MinVersion uint8
	GotVersion uint8
}

func (e *UnsupportedRegisterError) Error() string {
	return fmt.Sprintf("register %s requires DP version >= %d, probe reports version %d",
		e.Name, e.MinVersion, e.GotVersion)
}

// TimeoutError reports a bounded polling loop that exhausted its retry
// budget without observing the expected status bit.
type TimeoutError struct {
	Operation string
	Iterations int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for %s after %d iterations", e.Operation, e.Iterations)
}

// UnsupportedFpbError reports an FPB revision this package does not know
// how to encode comparators for.
type UnsupportedFpbError struct {
	Revision uint8
}

func (e *UnsupportedFpbError) Error() string {
	return fmt.Sprintf("unsupported FPB revision %d", e.Revision)
}

// UnsupportedBreakpointAddressError reports a Rev0 FPB address outside the
// representable low 512 MiB.
type UnsupportedBreakpointAddressError struct {
	Address uint32
}

func (e *UnsupportedBreakpointAddressError) Error() string {
	return fmt.Sprintf("address 0x%08x is not representable by a Rev0 FPB comparator", e.Address)
}

// HexReaderError reports a malformed Intel-HEX record.
type HexReaderError struct {
	Line int
	Kind string
}

func (e *HexReaderError) Error() string {
	return fmt.Sprintf("hex record error at line %d: %s", e.Line, e.Kind)
}

// Wrap prepends "while <operation>: " to err, the uniform operation-context
// chain every layer attaches before returning an error to its caller.
func Wrap(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("while %s: %w", operation, err)
}
