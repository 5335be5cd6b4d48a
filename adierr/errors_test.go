/*
 * adiprobe - Error type tests.
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

package adierr_test

import (
	"errors"
	"strings"
	"testing"

	E "github.com/cornwell-labs/adiprobe/adierr"
)

func TestWrapPrependsOperation(t *testing.T) {
	err := E.Wrap("reading DPIDR", E.ErrShortResponse)
	if !strings.Contains(err.Error(), "reading DPIDR") {
		t.Errorf("Wrap() = %q, missing operation context", err.Error())
	}
	if !errors.Is(err, E.ErrShortResponse) {
		t.Error("Wrap() result does not unwrap to the original sentinel via errors.Is")
	}
}

func TestWrapNilIsNil(t *testing.T) {
	if err := E.Wrap("anything", nil); err != nil {
		t.Errorf("Wrap(op, nil) = %v, want nil", err)
	}
}

func TestTimeoutErrorAs(t *testing.T) {
	var err error = &E.TimeoutError{Operation: "core halt", Iterations: 100}
	var te *E.TimeoutError
	if !errors.As(err, &te) {
		t.Fatal("errors.As failed to extract *TimeoutError")
	}
	if te.Iterations != 100 {
		t.Errorf("Iterations = %d, want 100", te.Iterations)
	}
}

func TestUnsupportedBreakpointAddressErrorMessage(t *testing.T) {
	err := &E.UnsupportedBreakpointAddressError{Address: 0x20000000}
	if !strings.Contains(err.Error(), "20000000") {
		t.Errorf("Error() = %q, missing the offending address", err.Error())
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	if errors.Is(E.ErrFaultResponse, E.ErrWaitResponse) {
		t.Error("ErrFaultResponse and ErrWaitResponse compare equal via errors.Is")
	}
}
