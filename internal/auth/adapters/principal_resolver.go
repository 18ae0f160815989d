package adapters

import (
	"context"

	"refeera/pkg/domain"
	dErrors "refeera/pkg/domain-errors"
	"refeera/pkg/requestcontext"
)

// userLookup is the part of the user service the resolver needs. Defined
// locally so the middleware wiring does not import service packages.
type userLookup interface {
	Exists(ctx context.Context, id domain.UserID) (bool, error)
}

type businessLookup interface {
	Exists(ctx context.Context, id domain.BusinessID) (bool, error)
}

// PrincipalResolver adapts the user and business services to
// auth.PrincipalResolver, dispatching on the token's principal kind.
type PrincipalResolver struct {
	users      userLookup
	businesses businessLookup
}

func NewPrincipalResolver(users userLookup, businesses businessLookup) *PrincipalResolver {
	return &PrincipalResolver{users: users, businesses: businesses}
}

// PrincipalExists reports whether the token subject still resolves. A
// business that was soft deleted no longer does.
func (a *PrincipalResolver) PrincipalExists(ctx context.Context, p requestcontext.Principal) (bool, error) {
	switch p.Kind {
	case requestcontext.PrincipalUser:
		return a.users.Exists(ctx, domain.UserID(p.ID))
	case requestcontext.PrincipalBusiness:
		return a.businesses.Exists(ctx, domain.BusinessID(p.ID))
	default:
		return false, dErrors.New(dErrors.CodeUnauthorized, "Not authorized, token failed")
	}
}
