/*
 * adiprobe - CMSIS-DAP command encoding.
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

// Package cmsisdap builds and parses the command and response bytes a
// CMSIS-DAP probe exchanges over its USB-HID or WinUSB endpoint. It does
// not own any device handle: callers hand it a byte slice to fill or
// parse, and are responsible for the actual HID transfer.
package cmsisdap

import "fmt"

// Command IDs, from the CMSIS-DAP command reference.
const (
	CmdInfo          byte = 0x00
	CmdConnect       byte = 0x02
	CmdDisconnect    byte = 0x03
	CmdTransferConfigure byte = 0x04
	CmdTransfer      byte = 0x05
	CmdTransferBlock byte = 0x06
	CmdWriteAbort    byte = 0x08
	CmdSWJClock      byte = 0x11
	CmdSWJSequence   byte = 0x12
	CmdSWDConfigure  byte = 0x13
	CmdSWOTransport  byte = 0x17
	CmdSWOMode       byte = 0x18
	CmdSWOBaudrate   byte = 0x19
	CmdSWOControl    byte = 0x1A
	CmdSWOStatus     byte = 0x1B
	CmdSWOData       byte = 0x1C
	CmdResetTarget   byte = 0x0A
)

// Connect port values for CmdConnect.
const (
	ConnectDefault byte = 0
	ConnectSWD     byte = 1
	ConnectJTAG    byte = 2
)

// Transfer request bits, packed one byte per register access in a
// CmdTransfer or CmdTransferBlock request.
const (
	TransferAPnDP   byte = 1 << 0
	TransferRnW     byte = 1 << 1
	TransferA2      byte = 1 << 2
	TransferA3      byte = 1 << 3
	TransferMatchValue byte = 1 << 4
	TransferMatchMask  byte = 1 << 5
)

// Transfer response status bits, returned in the ACK field of a
// CmdTransfer response.
const (
	AckOK      byte = 1
	AckWait    byte = 2
	AckFault   byte = 4
	AckProtocolError byte = 8
)

// SWO status bits, returned by CmdSWOStatus.
const (
	SWOStatusCaptureActive byte = 1 << 0
	SWOStatusCaptureError  byte = 1 << 6
	SWOStatusOverrun       byte = 1 << 7
)

// EncodeConnect builds a CmdConnect request selecting port.
func EncodeConnect(port byte) []byte {
	return []byte{CmdConnect, port}
}

// EncodeTransferRequest packs one register-access request byte from the
// port/direction/address bits a dp or ap register access needs.
func EncodeTransferRequest(apnotdp bool, write bool, addr uint8) byte {
	var b byte
	if apnotdp {
		b |= TransferAPnDP
	}
	if !write {
		b |= TransferRnW
	}
	b |= (addr & 0x0C) // A2/A3 live in bits [3:2] of the register address
	return b
}

// EncodeTransfer builds a CmdTransfer request for a sequence of register
// accesses against DAP index dapIndex. writes supplies the 32-bit value
// for every request byte that has TransferRnW clear; reads contribute no
// payload bytes.
func EncodeTransfer(dapIndex byte, requests []byte, writes []uint32) []byte {
	buf := []byte{CmdTransfer, dapIndex, byte(len(requests))}
	wi := 0
	for _, req := range requests {
		buf = append(buf, req)
		if req&TransferRnW == 0 {
			if wi >= len(writes) {
				continue
			}
			v := writes[wi]
			wi++
			buf = append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
		}
	}
	return buf
}

// DecodeTransferResponse parses a CmdTransfer response: the count of
// requests actually executed, the ACK status of the last one, and any
// 32-bit read values it returned, in request order.
func DecodeTransferResponse(resp []byte, requests []byte) (count int, ack byte, values []uint32, err error) {
	if len(resp) < 3 {
		return 0, 0, nil, fmt.Errorf("short CmdTransfer response: %d bytes", len(resp))
	}
	if resp[0] != CmdTransfer {
		return 0, 0, nil, fmt.Errorf("unexpected response command 0x%02x, want CmdTransfer", resp[0])
	}
	count = int(resp[1])
	ack = resp[2] & 0x7
	off := 3
	for i := 0; i < count && i < len(requests); i++ {
		if requests[i]&TransferRnW == 0 {
			continue
		}
		if off+4 > len(resp) {
			return count, ack, values, fmt.Errorf("truncated read data at request %d", i)
		}
		v := uint32(resp[off]) | uint32(resp[off+1])<<8 | uint32(resp[off+2])<<16 | uint32(resp[off+3])<<24
		values = append(values, v)
		off += 4
	}
	return count, ack, values, nil
}

// EncodeSWOMode builds a CmdSWOMode request selecting UART (1) or
// Manchester (2) trace encoding, or off (0).
func EncodeSWOMode(mode byte) []byte {
	return []byte{CmdSWOMode, mode}
}

// EncodeSWOBaudrate builds a CmdSWOBaudrate request for the requested
// baud rate.
func EncodeSWOBaudrate(baud uint32) []byte {
	return []byte{CmdSWOBaudrate, byte(baud), byte(baud >> 8), byte(baud >> 16), byte(baud >> 24)}
}

// DecodeSWOStatus parses a CmdSWOStatus response into its status byte and
// the number of trace bytes currently buffered on the probe.
func DecodeSWOStatus(resp []byte) (status byte, count uint32, err error) {
	if len(resp) < 6 {
		return 0, 0, fmt.Errorf("short CmdSWOStatus response: %d bytes", len(resp))
	}
	if resp[0] != CmdSWOStatus {
		return 0, 0, fmt.Errorf("unexpected response command 0x%02x, want CmdSWOStatus", resp[0])
	}
	status = resp[1]
	count = uint32(resp[2]) | uint32(resp[3])<<8 | uint32(resp[4])<<16 | uint32(resp[5])<<24
	return status, count, nil
}
