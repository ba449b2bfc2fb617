package httpinterface

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mintmarket/marketd/pkg/errors"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	actorKey     contextKey = "actor"
)

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actorMiddleware requires the X-Actor header carrying the caller identity.
// Authorization against that identity happens in the application layer.
func actorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get("X-Actor"))
		if actor == "" {
			writeError(
				w, errors.UNAUTHORIZED.New("missing X-Actor header"),
				requestIDFromContext(r.Context()),
			)
			return
		}
		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFromContext(ctx context.Context) string {
	if v := ctx.Value(actorKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
