package internal

import (
	"context"
	"time"
)

type PrincipalType string

const (
	PrincipalInternal    PrincipalType = "user"
	PrincipalStakeholder PrincipalType = "stakeholder"
)

// Principal is the uniform view of an authenticated actor. Exactly one
// concrete storage type backs it (an internal User row or an external
// Contact row); downstream code never branches on storage origin.
type Principal struct {
	ID            int64
	Email         string
	Role          string
	UserType      PrincipalType
	ClientID      *int64
	ProjectAccess []int64
}

func (p *Principal) IsInternal() bool {
	return p.UserType == PrincipalInternal
}

func (p *Principal) HasProjectAccess(projectID int64) bool {
	for _, id := range p.ProjectAccess {
		if id == projectID {
			return true
		}
	}
	return false
}

type ctxKey string

const ContextPrincipalKey ctxKey = "principal"

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(ContextPrincipalKey).(*Principal)
	return p, ok && p != nil
}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ContextPrincipalKey, p)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
