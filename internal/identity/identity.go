// Package identity resolves the calling account for each request.
//
// User management lives outside this system; all this package does is
// verify a bearer token issued by the external identity provider and
// surface the stable account ID it carries.
package identity

import (
	"context"

	"github.com/google/uuid"

	"borrowdesk/internal/apperr"
)

type contextKey struct{}

// WithAccount returns a context carrying the authenticated account ID.
func WithAccount(ctx context.Context, accountID uuid.UUID) context.Context {
	return context.WithValue(ctx, contextKey{}, accountID)
}

// FromContext extracts the authenticated account ID. A missing ID
// means the request bypassed the authenticator, which is a wiring bug
// surfaced as an internal error rather than a 401.
func FromContext(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(contextKey{}).(uuid.UUID)
	if !ok {
		return uuid.Nil, apperr.New(apperr.KindInternal, "no authenticated account in context")
	}
	return id, nil
}
