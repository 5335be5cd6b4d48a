/*
 * adiprobe - Prometheus metrics.
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

// Package metrics exposes prometheus counters for the transaction volume
// the dp/ap/memap layers push through a session, optionally served over
// HTTP via promhttp when --metrics-addr is set. Counters are nil-safe:
// every method is a no-op on a nil *Counters so callers that don't wire
// metrics pay nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counters groups the instruments a session records into.
type Counters struct {
	SelectWrites    prometheus.Counter
	RegisterReads   prometheus.Counter
	RegisterWrites  prometheus.Counter
	Timeouts        prometheus.Counter
	BytesTransferred prometheus.Counter
}

// New registers a fresh set of counters against a private registry and
// returns both, so the caller can mount the registry's handler wherever
// it likes.
func New() (*Counters, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	c := &Counters{
		SelectWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adiprobe_dp_select_writes_total",
			Help: "Number of DP SELECT register writes issued.",
		}),
		RegisterReads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adiprobe_register_reads_total",
			Help: "Number of DP/AP register reads issued.",
		}),
		RegisterWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adiprobe_register_writes_total",
			Help: "Number of DP/AP register writes issued.",
		}),
		Timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adiprobe_timeouts_total",
			Help: "Number of bounded polling loops that exhausted their retry budget.",
		}),
		BytesTransferred: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adiprobe_memory_bytes_transferred_total",
			Help: "Total bytes moved across memap block reads and writes.",
		}),
	}
	reg.MustRegister(c.SelectWrites, c.RegisterReads, c.RegisterWrites, c.Timeouts, c.BytesTransferred)
	return c, reg
}

func (c *Counters) incSelectWrite() {
	if c != nil {
		c.SelectWrites.Inc()
	}
}

// IncSelectWrite records one DP SELECT write.
func (c *Counters) IncSelectWrite() { c.incSelectWrite() }

// IncRegisterRead records one register read.
func (c *Counters) IncRegisterRead() {
	if c != nil {
		c.RegisterReads.Inc()
	}
}

// IncRegisterWrite records one register write.
func (c *Counters) IncRegisterWrite() {
	if c != nil {
		c.RegisterWrites.Inc()
	}
}

// IncTimeout records one exhausted polling loop.
func (c *Counters) IncTimeout() {
	if c != nil {
		c.Timeouts.Inc()
	}
}

// AddBytesTransferred records n additional bytes moved by a block
// transfer.
func (c *Counters) AddBytesTransferred(n int) {
	if c != nil {
		c.BytesTransferred.Add(float64(n))
	}
}

// Serve starts an HTTP server on addr exposing reg's metrics at /metrics.
// It runs until the process exits or the listener fails; callers
// typically launch it in a goroutine from main.
func Serve(addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return http.ListenAndServe(addr, mux)
}
