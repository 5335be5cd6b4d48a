/*
 * adiprobe - Transport interface.
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

// Package transport defines the synchronous request/response contract the
// ADI layers (dp, ap, memap) issue their register transactions against.
// cmsisdap builds the on-wire command bytes for a real CMSIS-DAP probe;
// this package only specifies the interface and a deterministic
// in-memory Mock used by every test in this repository.
package transport

import "fmt"

// PortType distinguishes the Debug Port from an Access Port.
type PortType int

const (
	// DebugPort addresses the root DP register file.
	DebugPort PortType = iota
	// AccessPort addresses the register file of a selected AP.
	AccessPort
)

func (t PortType) String() string {
	switch t {
	case DebugPort:
		return "DP"
	case AccessPort:
		return "AP"
	default:
		return "unknown"
	}
}

// Port names a register file on the wire: the DP, or AP number Num.
// DPWireAddr is reserved on the wire to denote the DP.
type Port struct {
	Type PortType
	Num  uint16
}

// DPWireAddr is the value 0xFFFF reserved on the wire to denote the DP.
const DPWireAddr uint16 = 0xFFFF

// DP returns the Port addressing the Debug Port.
func DP() Port { return Port{Type: DebugPort} }

// AP returns the Port addressing Access Port number n.
func AP(n uint16) Port { return Port{Type: AccessPort, Num: n} }

// WireAddr returns the port number as it appears on the wire.
func (p Port) WireAddr() uint16 {
	if p.Type == DebugPort {
		return DPWireAddr
	}
	return p.Num
}

func (p Port) String() string {
	if p.Type == DebugPort {
		return "DP"
	}
	return fmt.Sprintf("AP%d", p.Num)
}

// Transport is the entire contract between the ADI stack and the wire.
// Implementations may batch writes; Flush forces any
// batched writes out and reports the first failure encountered. Flush
// must be called before any read that depends on a prior write landing.
type Transport interface {
	ReadRegister(port Port, addr uint8) (uint32, error)
	WriteRegister(port Port, addr uint8, value uint32) error
	ReadBlock(port Port, addr uint8, count int) ([]uint32, error)
	WriteBlock(port Port, addr uint8, values []uint32) error
	Flush() error
}

// ReadBlockBySingle is the default block-read fallback: it fans out to
// single-word transfers at the same (port, addr), for transports with no
// native block-transfer command.
func ReadBlockBySingle(t Transport, port Port, addr uint8, count int) ([]uint32, error) {
	out := make([]uint32, count)
	for i := range out {
		v, err := t.ReadRegister(port, addr)
		if err != nil {
			return nil, fmt.Errorf("reading %s word %d of %d: %w", port, i, count, err)
		}
		out[i] = v
	}
	return out, nil
}

// WriteBlockBySingle is the write-side counterpart of ReadBlockBySingle.
func WriteBlockBySingle(t Transport, port Port, addr uint8, values []uint32) error {
	for i, v := range values {
		if err := t.WriteRegister(port, addr, v); err != nil {
			return fmt.Errorf("writing %s word %d of %d: %w", port, i, len(values), err)
		}
	}
	return nil
}
