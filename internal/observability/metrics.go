package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

var (
	registerOnce sync.Once

	rpcCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "p4ctl",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Completed RPC calls by command and outcome.",
		},
		[]string{"command", "ok"},
	)
	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "p4ctl",
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "RPC call duration in seconds, including server sub-calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command", "ok"},
	)
	rpcErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "p4ctl",
			Subsystem: "rpc",
			Name:      "call_errors_total",
			Help:      "RPC calls aborted by transport, protocol or crypto errors.",
		},
		[]string{"command", "kind"},
	)
	rpcFrameBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "p4ctl",
			Subsystem: "rpc",
			Name:      "frame_bytes_total",
			Help:      "Frame bytes exchanged with the server.",
		},
		[]string{"direction"},
	)
	rpcFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "p4ctl",
			Subsystem: "rpc",
			Name:      "frames_total",
			Help:      "Frames exchanged with the server by function.",
		},
		[]string{"direction", "func"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "p4ctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "p4ctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(rpcCalls, rpcDuration, rpcErrors, rpcFrameBytes, rpcFrames, httpRequests, httpDuration)
	})
}

func RecordCall(command string, ok bool, duration time.Duration) {
	RegisterMetrics()
	command = commandLabel(command)
	okLabel := strconv.FormatBool(ok)
	rpcCalls.WithLabelValues(command, okLabel).Inc()
	rpcDuration.WithLabelValues(command, okLabel).Observe(duration.Seconds())
}

func RecordCallError(command, kind string) {
	RegisterMetrics()
	rpcErrors.WithLabelValues(commandLabel(command), kind).Inc()
}

func RecordFrame(direction, fn string, size int) {
	RegisterMetrics()
	rpcFrameBytes.WithLabelValues(direction).Add(float64(size))
	rpcFrames.WithLabelValues(direction, funcLabel(fn)).Inc()
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}
