package monitoring

import (
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// unknownRoute labels requests that matched no registered route
const unknownRoute = "unknown"

var (
	initOnce sync.Once
	initErr  error
)

// ensureInitialized initializes metrics with the default config on first use.
// ENABLE_OBSERVABILITY=false or OTEL_METRICS_ENABLED=false turn metrics off.
func ensureInitialized() {
	initOnce.Do(func() {
		if !IsObservabilityEnabled() {
			slog.Info("Observability disabled via environment variable, skipping initialization")
			initErr = ErrObservabilityDisabled
			return
		}

		serviceName := os.Getenv("SERVICE_NAME")
		if serviceName == "" {
			serviceName = "membership-backend"
		}

		initErr = Initialize(DefaultConfig(serviceName))
		if initErr != nil {
			slog.Error("Failed to initialize OpenTelemetry metrics, metrics will be disabled",
				"error", initErr,
				"service", serviceName)
		}
	})
}

// GetInitError returns the initialization error, if any
func GetInitError() error {
	ensureInitialized()
	return initErr
}

// IsInitialized returns true if metrics have been successfully initialized
func IsInitialized() bool {
	ensureInitialized()
	return initErr == nil
}

// IsObservabilityEnabled checks the ENABLE_OBSERVABILITY and OTEL_METRICS_ENABLED switches
func IsObservabilityEnabled() bool {
	return getEnvBoolOrDefault("ENABLE_OBSERVABILITY", true) && getEnvBoolOrDefault("OTEL_METRICS_ENABLED", true)
}

// Handler returns the metrics HTTP handler
func Handler() http.Handler {
	if !IsObservabilityEnabled() {
		return staticHandler(http.StatusServiceUnavailable, "# Metrics disabled\n")
	}
	ensureInitialized()
	return otelHandler()
}

// HTTPMetricsMiddleware records request count and latency per route pattern.
// The route label is the chi pattern (e.g. "/validate-user"), so query strings and
// unmatched paths never create new series.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	ensureInitialized()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		otelRecordHTTPRequest(r.Method, routeLabel(r, rw.statusCode), rw.statusCode, time.Since(start))
	})
}

// routeLabel must run after routing so the chi context carries the matched pattern
func routeLabel(r *http.Request, status int) string {
	if status == http.StatusNotFound {
		return unknownRoute
	}
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unknownRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unknownRoute
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// RecordExternalCall records a call to the member store or lock backend
func RecordExternalCall(target, operation string, duration time.Duration, err error) {
	ensureInitialized()
	otelRecordExternalCall(target, operation, duration, err)
}

// TrackExternalCall runs fn and records its duration and outcome
func TrackExternalCall(target, operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	RecordExternalCall(target, operation, time.Since(start), err)
	return err
}

// RecordBusinessEvent records a membership event and its outcome
func RecordBusinessEvent(action, outcome string) {
	ensureInitialized()
	otelRecordBusinessEvent(action, outcome)
}
