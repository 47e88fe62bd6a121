package testutil

import (
	"net/http"
	"time"

	id "wardbook/pkg/domain"
	"wardbook/pkg/requestcontext"
)

// WithRole injects an acting role into the request context.
// This simulates what the auth middleware does for authenticated requests.
func WithRole(req *http.Request, role requestcontext.ActingRole) *http.Request {
	return req.WithContext(requestcontext.WithRole(req.Context(), role))
}

// WithUserID injects a user ID into the request context.
func WithUserID(req *http.Request, userID id.UserID) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithActor injects both the acting role and user ID, the typical state of an
// authenticated request.
func WithActor(req *http.Request, userID id.UserID, role requestcontext.ActingRole) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithRole(ctx, role)
	return req.WithContext(ctx)
}

// WithPinnedTime injects a fixed request time into the request context.
func WithPinnedTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
