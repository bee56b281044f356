// Package channels wraps bounded, unbounded, and one-shot channel pairs with
// transparent proxy endpoints that record creation, transmission, receipt,
// and closure events to an in-process collector, queryable over a loopback
// HTTP endpoint.
//
// The wrapped pair behaves exactly like the one passed in — same capacity,
// same backpressure, same closure semantics — because the proxy is two
// forwarder goroutines relaying messages between the caller-facing ("outer")
// ends and the original ("inner") ends, not a reimplementation of the
// channel itself.
//
//	tx, rx := channels.NewBounded[Job](10)
//	tx, rx = channels.Instrument(tx, rx, channels.WithLabel("job-queue"))
//
// Metrics for every instrumented channel are served from
// http://127.0.0.1:6770/metrics (port overridable via
// CHANNELS_CONSOLE_METRICS_PORT) once the first channel is instrumented.
package channels
