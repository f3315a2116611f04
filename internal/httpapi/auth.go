package httpapi

import (
	"context"
	"net/http"

	"github.com/Bruce101github/crochethairbygg/internal/domain/auth"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "api_key"

type identityKey struct{}

// identityFrom extracts the authenticated identity from the context, nil
// when the request is unauthenticated.
func identityFrom(ctx context.Context) *auth.Identity {
	id, _ := ctx.Value(identityKey{}).(*auth.Identity)
	return id
}

// requireAuth resolves the API key header and stores the identity in the
// request context. Requests without a valid key get 401.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.authenticator.Authenticate(r.Context(), r.Header.Get(APIKeyHeader))
		if err != nil {
			respondDomainError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireCustomer allows only keys bound to a customer account.
func requireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := identityFrom(r.Context())
		if id == nil || id.CustomerID == nil {
			respondError(w, http.StatusForbidden, "A customer API key is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin allows only keys carrying the admin scope.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := identityFrom(r.Context())
		if id == nil || !id.IsAdmin() {
			respondError(w, http.StatusForbidden, "An admin API key is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
