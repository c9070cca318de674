package middlewares

import "net/http"

// Middleware decora un http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain envuelve h de modo que Chain(h, A, B) ejecute A -> B -> h.
// Los middlewares nil se ignoran.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

// When devuelve m si cond es true y nil si no (Chain y Std lo saltean).
func When(cond bool, m Middleware) Middleware {
	if !cond {
		return nil
	}
	return m
}

// Std adapta a la firma que esperan r.Use / r.With de chi.
func Std(mws ...Middleware) []func(http.Handler) http.Handler {
	out := make([]func(http.Handler) http.Handler, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
