package client

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// clientMetrics holds the counters of one client in its own metrics set
type clientMetrics struct {
	set *metrics.Set

	issued         *metrics.Counter
	succeeded      *metrics.Counter
	rpcErrors      *metrics.Counter
	failed         *metrics.Counter
	abandoned      *metrics.Counter
	unmatched      *metrics.Counter
	protocolErrors *metrics.Counter
	malformed      *metrics.Counter
	requests       *metrics.Counter
	notifications  *metrics.Counter
}

func newClientMetrics(name string, pending func() float64) *clientMetrics {
	set := metrics.NewSet()
	counter := func(metric string) *metrics.Counter {
		return set.NewCounter(fmt.Sprintf(`mprpc_client_%s{client=%q}`, metric, name))
	}

	m := &clientMetrics{
		set:            set,
		issued:         counter("calls_issued_total"),
		succeeded:      counter("calls_succeeded_total"),
		rpcErrors:      counter("calls_rpc_errors_total"),
		failed:         counter("calls_failed_total"),
		abandoned:      counter("calls_abandoned_total"),
		unmatched:      counter("responses_unmatched_total"),
		protocolErrors: counter("protocol_errors_total"),
		malformed:      counter("envelopes_malformed_total"),
		requests:       counter("requests_discarded_total"),
		notifications:  counter("notifications_total"),
	}
	set.NewGauge(fmt.Sprintf(`mprpc_client_calls_pending{client=%q}`, name), pending)
	return m
}

// Stats is a snapshot of a client's counters
type Stats struct {
	Issued         uint64 // calls handed to the transport
	Succeeded      uint64 // calls resolved with a result
	RPCErrors      uint64 // calls resolved with an error response
	Failed         uint64 // calls failed because the connection ended
	Abandoned      uint64 // calls removed by Forget or a cancelled CallSync
	Unmatched      uint64 // responses without a pending call
	ProtocolErrors uint64 // unknown envelope types and duplicate resolutions
	Malformed      uint64 // inbound frames that could not be decoded
	Requests       uint64 // inbound requests (discarded)
	Notifications  uint64 // inbound notifications
	Pending        int    // calls currently in the pending table
}

// Stats returns a snapshot of the client's counters
func (c *Client) Stats() Stats {
	m := c.metrics
	return Stats{
		Issued:         m.issued.Get(),
		Succeeded:      m.succeeded.Get(),
		RPCErrors:      m.rpcErrors.Get(),
		Failed:         m.failed.Get(),
		Abandoned:      m.abandoned.Get(),
		Unmatched:      m.unmatched.Get(),
		ProtocolErrors: m.protocolErrors.Get(),
		Malformed:      m.malformed.Get(),
		Requests:       m.requests.Get(),
		Notifications:  m.notifications.Get(),
		Pending:        c.Pending(),
	}
}

// WritePrometheus writes the client's metrics in Prometheus text format to w
func (c *Client) WritePrometheus(w io.Writer) {
	c.metrics.set.WritePrometheus(w)
}
