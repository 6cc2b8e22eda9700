package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/threadline/threadline-backend/api/responses"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/enums"
	"github.com/threadline/threadline-backend/pkg/logger"
)

// Identity and authentication live in front of this service; the gateway
// forwards the already-verified actor in these headers.
const (
	actorNameHeader = "X-Actor-Name"
	actorRoleHeader = "X-Actor-Role"
)

type actorNameKey struct{}
type actorRoleKey struct{}

// Actor lifts the forwarded actor headers into the request context.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if name := strings.TrimSpace(r.Header.Get(actorNameHeader)); name != "" {
				ctx = context.WithValue(ctx, actorNameKey{}, name)
				if logg != nil {
					ctx = logg.WithWorker(ctx, name)
				}
			}
			if role := strings.TrimSpace(r.Header.Get(actorRoleHeader)); role != "" {
				ctx = context.WithValue(ctx, actorRoleKey{}, role)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithActorName returns a context carrying the given actor name.
func WithActorName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, actorNameKey{}, name)
}

// WithActorRole returns a context carrying the given actor role.
func WithActorRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, actorRoleKey{}, role)
}

// ActorNameFromContext returns the forwarded actor name, or "".
func ActorNameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(actorNameKey{}).(string)
	return name
}

// ActorRoleFromContext returns the forwarded actor role, or "".
func ActorRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(actorRoleKey{}).(string)
	return role
}

// RequireAdmin rejects requests whose forwarded role is not admin.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ActorRoleFromContext(r.Context()) != enums.WorkerRoleAdmin.String() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
