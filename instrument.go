package channels

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"reflect"
	"runtime"
	"strconv"
	"sync"
	"unsafe"

	"github.com/tqwewe/channels-console/internal/collector"
	"github.com/tqwewe/channels-console/internal/httpapi"
)

const defaultMetricsPort = 6770

var (
	globalOnce  sync.Once
	globalCol   *collector.Collector
	bindLogOnce sync.Once
)

// global returns the process-wide collector, starting it and its HTTP
// metrics service on the first call. Mirrors the original crate's
// init_stats_state: one lazily-initialized holder, constructed exactly once.
func global() *collector.Collector {
	globalOnce.Do(func() {
		globalCol = collector.New()
		startMetricsServer(globalCol)
	})
	return globalCol
}

// startMetricsServer binds the loopback metrics endpoint and serves it in
// the background. A bind failure is logged once and otherwise swallowed:
// the caller's own channels must proceed unaffected, with observation
// silently degrading to "no endpoint".
func startMetricsServer(col *collector.Collector) {
	port := defaultMetricsPort
	if v := os.Getenv("CHANNELS_CONSOLE_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < 65536 {
			port = n
		}
	}
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		bindLogOnce.Do(func() {
			fmt.Fprintf(os.Stderr, "channels: metrics server bind %s failed, observation endpoint disabled: %v\n", addr, err)
		})
		return
	}

	srv := httpapi.New(col)
	go http.Serve(ln, srv)
}

// elemInfo returns the reflected name and size in bytes of T, the Go
// analogues of the original crate's std::any::type_name::<T>() and
// mem::size_of::<T>().
func elemInfo[T any]() (name string, size uint64) {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	return t.String(), uint64(unsafe.Sizeof(zero))
}

// captureSource returns the creation-site string to record for a channel:
// the caller-supplied WithSource value if present, otherwise a
// "file:line" default captured via runtime.Caller from two frames up
// (the call site inside the user's code that invoked Instrument /
// InstrumentUnbounded / InstrumentOneshot). This is the smallest possible
// concession to Go's lack of a compile-time instrument! macro — see
// options.go's WithSource doc comment and SPEC_FULL.md's "Not ported"
// section.
func captureSource(o *Options) string {
	if o.hasSource {
		return o.source
	}
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	return file + ":" + strconv.Itoa(line)
}
