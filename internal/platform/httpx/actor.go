package httpx

import (
	"net/http"

	"github.com/kassa-pos/kassa/internal/shared"
)

// Actor header names set by the upstream auth gateway.
const (
	HeaderActorID     = "X-Actor-ID"
	HeaderActorRole   = "X-Actor-Role"
	HeaderActorBranch = "X-Actor-Branch"
)

// RequireActor parses the actor headers into the request context and rejects
// requests without a valid identity.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := shared.ParseActor(r.Header.Get(HeaderActorID), r.Header.Get(HeaderActorRole), r.Header.Get(HeaderActorBranch))
		if err != nil {
			RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
	})
}

// ActorFrom returns the actor placed in the request by RequireActor.
func ActorFrom(r *http.Request) (shared.Actor, error) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		return shared.Actor{}, shared.ErrUnauthenticated
	}
	return actor, nil
}
