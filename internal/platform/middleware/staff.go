package middleware

import (
	"log/slog"
	"net/http"

	"wardbook/pkg/requestcontext"
	"wardbook/pkg/secrets"
)

// RequireStaffToken guards bootstrap endpoints with an out-of-band shared
// token, verified against the configured bcrypt hash.
func RequireStaffToken(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Staff-Token")
			if tokenHash == "" || secrets.Verify(token, tokenHash) != nil {
				logger.WarnContext(r.Context(), "staff token mismatch",
					"request_id", requestcontext.RequestID(r.Context()),
				)
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"staff token required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
