/*
 * adiprobe - Prometheus metrics tests.
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

package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	MX "github.com/cornwell-labs/adiprobe/metrics"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		var m dto.Metric
		if len(fam.Metric) == 0 {
			t.Fatalf("metric family %s has no samples", name)
		}
		m = *fam.Metric[0]
		return m.GetCounter().GetValue()
	}
	t.Fatalf("metric family %s not found", name)
	return 0
}

func TestCountersIncrementAndRegister(t *testing.T) {
	c, reg := MX.New()
	c.IncSelectWrite()
	c.IncRegisterRead()
	c.IncRegisterRead()
	c.IncRegisterWrite()
	c.IncTimeout()
	c.AddBytesTransferred(128)

	if v := counterValue(t, reg, "adiprobe_dp_select_writes_total"); v != 1 {
		t.Errorf("select writes = %v, want 1", v)
	}
	if v := counterValue(t, reg, "adiprobe_register_reads_total"); v != 2 {
		t.Errorf("register reads = %v, want 2", v)
	}
	if v := counterValue(t, reg, "adiprobe_memory_bytes_transferred_total"); v != 128 {
		t.Errorf("bytes transferred = %v, want 128", v)
	}
}

func TestNilCountersAreNoOps(t *testing.T) {
	var c *MX.Counters
	c.IncSelectWrite()
	c.IncRegisterRead()
	c.IncRegisterWrite()
	c.IncTimeout()
	c.AddBytesTransferred(64)
}
