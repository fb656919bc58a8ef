package api

import (
	"context"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/susu3304/smashmate/internal/domain"
)

type ctxKey int

const identityKey ctxKey = iota

func withIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// identityFrom returns the caller set by authMiddleware. Handlers behind the
// middleware always have one.
func identityFrom(ctx context.Context) domain.Identity {
	id, _ := ctx.Value(identityKey).(domain.Identity)
	return id
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("api: panic in %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
