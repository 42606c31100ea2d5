package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/jasstafel/pkg/logger"
	"github.com/okian/jasstafel/pkg/metrics"
)

// instrument wraps next with request metrics and panic recovery. Failed
// requests are counted per endpoint under the code the handler wrote.
func instrument(endpoint string, log logger.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				log.Error(r.Context(), "handler panic",
					logger.String("endpoint", endpoint),
					logger.String("path", r.URL.Path),
					logger.Any("panic", p))
				if !rec.wroteHeader {
					writeError(rec, http.StatusInternalServerError, "internal_error", nil)
				}
				rec.code = "panic"
			}

			status := strconv.Itoa(rec.status)
			durationMs := float64(time.Since(start).Microseconds()) / 1000
			metrics.RecordHTTPRequest(endpoint, r.Method, status)
			metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, durationMs)
			if rec.status >= http.StatusBadRequest {
				metrics.RecordErrorByComponent("http_"+endpoint, errorType(rec))
			}
		}()

		next(rec, r)
	}
}

// errorType prefers the machine-readable code of the response over the
// status class.
func errorType(rec *statusRecorder) string {
	if rec.code != "" {
		return rec.code
	}
	switch {
	case rec.status >= http.StatusInternalServerError:
		return "server_error"
	case rec.status >= http.StatusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

// statusRecorder captures the status and error code of a response.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	code        string
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
