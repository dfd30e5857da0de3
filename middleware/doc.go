// Package middleware implements the request authorizer: a declarative,
// ordered table mapping URL-path prefixes to authorization requirements, and
// an http middleware that enforces it in front of the business handlers.
//
// Every inbound request is matched against the table (first prefix wins),
// authenticated through the engine when the matched rule demands it, and
// short-circuited with 401 (unauthenticated) or 403 (missing role) before
// any downstream handler runs. When authentication renewed the session, the
// fresh access+refresh pair is attached to the response.
package middleware
