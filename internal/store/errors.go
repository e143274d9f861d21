// Package store defines error values shared by every persistence-backed
// component. These sentinels let services and handlers distinguish failure
// scenarios without depending on driver-specific errors. For example,
// ErrNotFound covers a missing user, session or upgrade request, while
// ErrPersistenceFailure signals that a store write did not take effect and
// the operation must be treated as aborted.
package store

import "errors"

// ErrNotFound is returned when a looked-up record does not exist. Handlers
// should translate this into an HTTP 404 (or 401 for credential lookups,
// so responses do not reveal which accounts exist).
var ErrNotFound = errors.New("not found")

// ErrInvalidArgument is returned for empty ids, blank words and other
// inputs a store refuses to act on. Handlers should translate this into
// an HTTP 400 response.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrUnauthenticated is returned when credentials are present but wrong:
// a bad password or a rejected one-time code.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrConflict is returned when a create cannot proceed because of existing
// state, such as registering an already-taken username. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrUpstreamFailure is returned when an outbound call (OAuth provider,
// external classifier) fails at the transport level or returns garbage.
var ErrUpstreamFailure = errors.New("upstream failure")

// ErrPersistenceFailure wraps store write errors that must abort the
// surrounding operation without leaving partial state behind.
var ErrPersistenceFailure = errors.New("persistence failure")
