// Package recovery turns handler panics into 500 responses.
package recovery

import (
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"

	respond "github.com/SHUB2205/Aurora-technical-assessment/internal/api/respond"
	"github.com/SHUB2205/Aurora-technical-assessment/internal/metrics"
)

// Middleware recovers panics from downstream handlers, logs them with the
// request logger, counts them per route and answers 500. http.ErrAbortHandler
// is re-raised so net/http can abort the connection.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			path := routePath(r)
			metrics.IncPanic(path)
			hlog.FromRequest(r).Error().
				Interface("panic", rec).
				Str("method", r.Method).
				Str("route", path).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			respond.WriteInternalError(w, r, "unexpected error")
		}()
		next.ServeHTTP(w, r)
	})
}

// routePath prefers the matched route template so label cardinality stays bounded.
func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
