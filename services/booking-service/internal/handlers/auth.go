package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/agenda/libs/auth"
	"github.com/md-rashed-zaman/agenda/libs/httpx"
)

// Identity headers. Behind the gateway they arrive already set; with a verifier configured they are
// derived from the bearer token and any caller-supplied values are discarded.
const (
	HeaderUserID    = httpx.UserIDHeader
	HeaderCompanyID = httpx.BusinessIDHeader
	HeaderRole      = httpx.RoleHeader
)

var companyRoles = map[string]struct{}{
	"owner": {},
	"admin": {},
	"staff": {},
}

// authenticate checks the bearer token when v has keys configured and copies its claims into the
// identity headers. Without keys it trusts the headers as sent.
func authenticate(v *auth.Verifier, next http.Handler) http.Handler {
	if !v.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "missing or invalid Authorization header")
			return
		}
		claims, err := v.Verify(token)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "invalid token")
			return
		}

		r.Header.Del(HeaderUserID)
		r.Header.Del(HeaderCompanyID)
		r.Header.Del(HeaderRole)
		r.Header.Set(HeaderUserID, claims.Sub)
		r.Header.Set(HeaderCompanyID, claims.CompanyID)
		r.Header.Set(HeaderRole, claims.Role)
		next.ServeHTTP(w, r)
	})
}

// requireUser rejects requests without a user identity.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(HeaderUserID) == "" {
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "missing "+HeaderUserID)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireCompany rejects requests without a company identity. When tokens are verified the role
// must also be one of the company roles.
func requireCompany(v *auth.Verifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(HeaderCompanyID) == "" {
			httpx.WriteError(w, http.StatusForbidden, httpx.CodeForbidden, "missing "+HeaderCompanyID)
			return
		}
		if v.Enabled() {
			if _, ok := companyRoles[r.Header.Get(HeaderRole)]; !ok {
				httpx.WriteError(w, http.StatusForbidden, httpx.CodeForbidden, "forbidden")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
