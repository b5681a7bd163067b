package middleware

import (
	"net/http"
	"time"

	"github.com/yuzvak/storefront-checkout/internal/pkg/logger"
)

// NewLoggingMiddleware logs one line per request. Bodies are never logged
// since billing requests carry card data.
func NewLoggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now().UTC()

			wrw := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrw, r)

			reqLog := log.WithCorrelationID(RequestIDFromContext(r.Context()))
			fields := []interface{}{
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrw.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"user_agent", r.UserAgent(),
				"remote_addr", r.RemoteAddr,
			}
			if shopperID := wrw.Header().Get(ShopperIDHeader); shopperID != "" {
				fields = append(fields, "shopper_id", shopperID)
			}

			if wrw.statusCode >= http.StatusInternalServerError {
				reqLog.Warn("HTTP Request", fields...)
				return
			}
			reqLog.Info("HTTP Request", fields...)
		})
	}
}

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
