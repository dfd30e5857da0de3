// Package audit holds the audit event model and the asynchronous dispatcher
// that forwards events from the auth flows to a pluggable sink without
// blocking the request path.
package audit
