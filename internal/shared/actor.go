package shared

import (
	"context"
	"fmt"
	"strconv"
)

// Role is the authorization role of an actor as asserted by the auth gateway.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee" // bound to a single branch
	RoleWorkshop Role = "workshop"
)

// IsValid reports whether the role is known.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee, RoleWorkshop:
		return true
	default:
		return false
	}
}

// Actor is the authenticated caller of a ledger operation.
type Actor struct {
	ID       int64
	Role     Role
	BranchID int64
}

// BranchBound reports whether the actor may only operate on its own branch.
func (a Actor) BranchBound() bool {
	return a.Role == RoleEmployee
}

// ParseActor builds an Actor from the raw header values set by the gateway.
func ParseActor(id, role, branch string) (Actor, error) {
	if id == "" {
		return Actor{}, ErrUnauthenticated
	}
	actorID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || actorID <= 0 {
		return Actor{}, fmt.Errorf("%w: actor id %q", ErrUnauthenticated, id)
	}
	actor := Actor{ID: actorID, Role: Role(role)}
	if actor.Role == "" {
		actor.Role = RoleEmployee
	}
	if !actor.Role.IsValid() {
		return Actor{}, fmt.Errorf("%w: role %q", ErrUnauthenticated, role)
	}
	if branch != "" {
		branchID, err := strconv.ParseInt(branch, 10, 64)
		if err != nil || branchID <= 0 {
			return Actor{}, fmt.Errorf("%w: branch %q", ErrUnauthenticated, branch)
		}
		actor.BranchID = branchID
	}
	return actor, nil
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

var (
	// ErrForbiddenBranch indicates a branch-bound actor targeted another branch.
	ErrForbiddenBranch = fmt.Errorf("%w: branch not permitted for actor", ErrForbidden)
	// ErrBranchRequired indicates no branch could be determined for the operation.
	ErrBranchRequired = fmt.Errorf("%w: branch required", ErrInvalidInput)
	// ErrActorUnbound indicates a branch-bound actor has no branch binding.
	ErrActorUnbound = fmt.Errorf("%w: actor is not bound to a branch", ErrForbidden)
)

// EffectiveBranch resolves the branch an operation runs against. Branch-bound
// actors are forced onto their own branch; requesting another one fails.
func (a Actor) EffectiveBranch(requested int64) (int64, error) {
	if a.BranchBound() {
		if a.BranchID == 0 {
			return 0, ErrActorUnbound
		}
		if requested != 0 && requested != a.BranchID {
			return 0, fmt.Errorf("%w: requested %d, bound to %d", ErrForbiddenBranch, requested, a.BranchID)
		}
		return a.BranchID, nil
	}
	if requested == 0 {
		return 0, ErrBranchRequired
	}
	return requested, nil
}
