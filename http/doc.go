// Package http implements the REST boundary for the shareline core.
//
// The boundary is thin glue: it verifies identity assertions, tracks
// sessions with signed cookies, and translates between HTTP and the core
// services. All invariants (ownership, token validity, lazy expiry) live in
// the core; the handlers only map sentinel errors to status codes.
//
// Routes under /api/files require a session. /api/share routes are public:
// possession of a valid share token is the entire credential.
package http
