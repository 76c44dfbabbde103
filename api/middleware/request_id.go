package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/digimartng/digimart-backend/pkg/logger"
)

const (
	requestIDHeader = "X-Request-Id"

	// Inbound ids land verbatim in every log line for the request, so cap
	// what an arbitrary client can inject there.
	maxRequestIDLen = 64
)

// RequestID honors an inbound X-Request-Id from the gateway, minting a UUID
// when the header is absent or oversized, and echoes the id on the response
// so support tickets can be matched to log lines.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" || len(reqID) > maxRequestIDLen {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
