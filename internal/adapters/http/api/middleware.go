package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/pitwall/pkg/metrics"
)

// MetricsMiddleware records request count, latency and, for failed
// requests, the API error code the handler wrote.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, float64(time.Since(start).Milliseconds()))

		if rec.status < http.StatusBadRequest {
			return
		}
		kind := rec.errorKind()
		metrics.RecordErrorByEndpoint(endpoint, r.Method, kind)
		metrics.RecordErrorByType(kind, severity(rec.status))
	}
}

// severity buckets a failure: our faults and upstream outages are high,
// caller mistakes and missing data are medium.
func severity(status int) string {
	if status >= http.StatusInternalServerError {
		return "high"
	}
	return "medium"
}

// statusRecorder captures the status and the error code set by writeError.
type statusRecorder struct {
	http.ResponseWriter
	status int
	code   string
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// errorKind is the API error code, or http_<status> for responses that
// did not go through writeError (mux 404/405, promhttp).
func (rec *statusRecorder) errorKind() string {
	if rec.code != "" {
		return rec.code
	}
	return "http_" + strconv.Itoa(rec.status)
}
