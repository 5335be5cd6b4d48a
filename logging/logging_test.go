/*
 * adiprobe - Logging tests.
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

package logging_test

import (
	"bytes"
	"strings"
	"testing"

	L "github.com/cornwell-labs/adiprobe/logging"
)

func TestNewWritesToFile(t *testing.T) {
	var buf bytes.Buffer
	log := L.New(&buf, false)
	log.Info("hello")
	log.Sync()
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("log file = %q, want it to contain %q", buf.String(), "hello")
	}
}

func TestSetDebugTogglesVerbosity(t *testing.T) {
	debug := false
	h := L.NewHandler(nil, &debug)
	log := h.Logger()
	log.Debug("quiet")
	debug = true
	log.Debug("loud")
	log.Sync()
}
