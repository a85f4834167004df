package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	apperrors "github.com/vidora/vidora/pkg/errors"
)

// Recovery converts a handler panic into the service's standard error
// envelope instead of letting the connection die. http.ErrAbortHandler is
// re-raised; net/http panics with it to abort a response on purpose.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				l.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)

				writePanicEnvelope(w, l)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// writePanicEnvelope emits {"error":{"code","message"}} shaped like every
// other error response this API returns. The panic value never leaves the log.
func writePanicEnvelope(w http.ResponseWriter, l *slog.Logger) {
	appErr := apperrors.Internal(nil)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)

	body := struct {
		Error *apperrors.AppError `json:"error"`
	}{Error: appErr}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		l.Error("failed to encode panic response", slog.String("error", err.Error()))
	}
}
