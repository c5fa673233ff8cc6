// Package httpapi exposes the upload, search, document and chat services
// over HTTP.
//
// Authentication happens upstream: a proxy sets X-User-Email on every
// request and the handlers act on behalf of that owner. Document status
// changes are pushed to connected browsers over a websocket.
package httpapi
