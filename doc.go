// Package authcore implements the authentication and authorization core of a
// multi-role web backend: passwordless login codes, short-lived signed access
// tokens, rotating long-lived refresh tokens, and role-based request
// authorization.
//
// The package is organized around four collaborating pieces:
//
//   - token: the payload codec and JWT signer for access tokens.
//   - store: the Redis-backed credential store for login codes and refresh
//     tokens, with Lua scripts guaranteeing atomic consume/renew semantics.
//   - [Service]: the login-code and session lifecycle on top of the store.
//   - [Engine]: the orchestrator exposing the user-facing flows
//     (request-code, exchange-code, logout) and the per-request
//     authenticate-and-possibly-refresh decision.
//
// HTTP integration lives in the middleware (route-table authorizer) and
// httpapi (login endpoints) packages. Everything else the surrounding
// backend owns — the user directory and the code notification channel —
// is consumed through the narrow [UserDirectory] and [Sender] interfaces.
//
// Construct an engine with the fluent builder:
//
//	engine, err := authcore.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithDirectory(dir).
//		WithSender(sender).
//		Build()
//
// Engine methods are safe for concurrent use after [Builder.Build] returns.
package authcore
