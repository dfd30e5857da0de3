// Package httpapi exposes the login flows over HTTP:
//
//	POST /auth/pre-login?e={email}          issue and dispatch a login code
//	POST /auth/login?e={email}&lc={code}    exchange the code for a session
//	POST /auth/logout                       end the current session
//
// These are the only endpoints that surface the error taxonomy directly
// (404 not found, 410 expired, 502 delivery failure) — it is part of the
// login UX. Everything else goes through the middleware authorizer, which
// collapses failures to 401/403.
package httpapi
