package httptransport

import (
	"net/http"
	"time"

	id "wardbook/pkg/domain"
	dErrors "wardbook/pkg/domain-errors"
	"wardbook/pkg/platform/httputil"
	"wardbook/pkg/requestcontext"
)

// TokenIssuer signs access tokens for the bootstrap endpoint.
type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, role requestcontext.ActingRole, expiresIn time.Duration) (string, error)
}

const (
	defaultTokenTTL = time.Hour
	maxTokenTTL     = 24 * time.Hour
)

// IssueTokenRequest is the HTTP request body for POST /auth/token.
type IssueTokenRequest struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	ExpiresIn string `json:"expires_in,omitempty"`

	parsedUserID id.UserID
	parsedRole   requestcontext.ActingRole
	parsedTTL    time.Duration
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *IssueTokenRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	userID, err := id.ParseUserID(r.UserID)
	if err != nil {
		return err
	}
	r.parsedUserID = userID

	role := requestcontext.ActingRole(r.Role)
	switch role {
	case requestcontext.RoleStaff, requestcontext.RoleAccountant, requestcontext.RoleHousehold:
		r.parsedRole = role
	default:
		return dErrors.Newf(dErrors.CodeValidation, "unknown role %q", r.Role)
	}

	r.parsedTTL = defaultTokenTTL
	if r.ExpiresIn != "" {
		ttl, err := time.ParseDuration(r.ExpiresIn)
		if err != nil || ttl <= 0 || ttl > maxTokenTTL {
			return dErrors.New(dErrors.CodeValidation, "expires_in must be a positive duration of at most 24h")
		}
		r.parsedTTL = ttl
	}
	return nil
}

// IssueTokenResponse is the HTTP response body for POST /auth/token.
type IssueTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func handleIssueToken(issuer TokenIssuer, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		req, ok := httputil.DecodeAndPrepare[IssueTokenRequest](w, r, deps.Logger, ctx, requestID)
		if !ok {
			return
		}
		token, err := issuer.GenerateAccessToken(req.parsedUserID, req.parsedRole, req.parsedTTL)
		if err != nil {
			deps.Logger.ErrorContext(ctx, "token signing failed",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "could not sign token"))
			return
		}
		httputil.WriteJSON(w, http.StatusOK, IssueTokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int64(req.parsedTTL.Seconds()),
		})
	}
}
