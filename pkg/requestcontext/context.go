// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services consume them. Keeping the package
// free of net/http lets services read the acting user, role, and request
// time without pulling in transport code.
//
// Usage in services (read values):
//
//	actor := requestcontext.UserID(ctx)
//	role := requestcontext.Role(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithRole(ctx, requestcontext.RoleStaff)
package requestcontext

import (
	"context"
	"time"

	id "wardbook/pkg/domain"
)

// ActingRole is the capability class of the caller, resolved by the auth
// middleware from the token's role claim. Services receive it explicitly
// through context rather than re-deriving it from strings in handlers.
type ActingRole string

const (
	// RoleStaff may record payments, resolve change requests, and manage
	// households and fee types.
	RoleStaff ActingRole = "staff"
	// RoleAccountant may record and amend payments but not resolve
	// lifecycle changes.
	RoleAccountant ActingRole = "accountant"
	// RoleHousehold may file change requests and read its own balances.
	RoleHousehold ActingRole = "household"
)

type (
	userIDKey      struct{}
	roleKey        struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyUserID      = userIDKey{}
	ContextKeyRole        = roleKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// UserID retrieves the acting user ID from the context.
// Returns the zero value if not set.
func UserID(ctx context.Context) id.UserID {
	if userID, ok := ctx.Value(ContextKeyUserID).(id.UserID); ok {
		return userID
	}
	return id.UserID{}
}

// WithUserID injects the acting user ID into the context.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// Role retrieves the acting role from the context. Returns the empty role if
// not set; services treat that as unauthorized.
func Role(ctx context.Context) ActingRole {
	if role, ok := ctx.Value(ContextKeyRole).(ActingRole); ok {
		return role
	}
	return ""
}

// WithRole injects the acting role into the context.
func WithRole(ctx context.Context, role ActingRole) context.Context {
	return context.WithValue(ctx, ContextKeyRole, role)
}

// RequestID retrieves the request correlation ID, or "" if unset.
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now returns the request time carried by the context, falling back to
// time.Now. Balance evaluation and approval stamps read time through this
// accessor so tests can pin the clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed request time into the context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
