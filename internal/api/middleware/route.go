package middleware

import (
	"context"
	"net/http"
)

type routeKey struct{}

// routeHolder receives the pattern the mux matched. Middlewares pass
// request copies down the chain, so the pattern set on the innermost copy
// is not visible on theirs.
type routeHolder struct {
	pattern string
}

// withRoute returns r carrying a route holder, reusing one installed by
// an outer middleware
func withRoute(r *http.Request) (*http.Request, *routeHolder) {
	if holder, ok := r.Context().Value(routeKey{}).(*routeHolder); ok {
		return r, holder
	}
	holder := &routeHolder{}
	return r.WithContext(context.WithValue(r.Context(), routeKey{}, holder)), holder
}

// route returns the matched pattern, or fallback when nothing matched
func (h *routeHolder) route(fallback string) string {
	if h.pattern == "" {
		return fallback
	}
	return h.pattern
}

// RecordRoute wraps the mux and publishes the matched pattern to the
// middlewares outside it
func RecordRoute(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if holder, ok := r.Context().Value(routeKey{}).(*routeHolder); ok {
			holder.pattern = r.Pattern
		}
	})
}
