// Package remotecheck serves the endpoints remote rules call to ask whether a
// value is acceptable, typically a uniqueness check such as a free username.
//
// The handler answers GET and POST requests carrying the field value as a
// form or query parameter and responds with {"valid": bool}. The same lookup
// can be registered as a server check so submissions are verified again.
package remotecheck
