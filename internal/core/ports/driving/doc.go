// Package driving defines what the HTTP API, the CLI and the MCP server may
// ask of the core: uploads, pipeline stages, document reads, catalog search
// and support chat.
//
// Every operation that touches a document takes the caller's owner identity;
// the services enforce ownership, not the adapters.
package driving
