package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "github.com/eihrteam/postserver/pkg/errors"
)

// timeoutBody matches the JSON error shape used by the API handlers.
var timeoutBody = mustErrorBody(apperrors.ErrTimeout)

func mustErrorBody(err error) string {
	b, jerr := json.Marshal(map[string]string{"error": apperrors.PublicMessage(err)})
	if jerr != nil {
		panic(jerr)
	}
	return string(b)
}

// Timeout bounds handler execution. Handlers that overrun get their context
// cancelled and the client receives 503 with a JSON error body.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		th := http.TimeoutHandler(next, timeout, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			th.ServeHTTP(&timeoutWriter{ResponseWriter: w}, r)
		})
	}
}

// timeoutWriter labels the TimeoutHandler's own 503 body as JSON. Responses
// from the wrapped handler arrive with their headers already copied.
type timeoutWriter struct {
	http.ResponseWriter
}

func (tw *timeoutWriter) WriteHeader(code int) {
	h := tw.ResponseWriter.Header()
	if code == http.StatusServiceUnavailable && h.Get("Content-Type") == "" {
		h.Set("Content-Type", "application/json")
	}
	tw.ResponseWriter.WriteHeader(code)
}
