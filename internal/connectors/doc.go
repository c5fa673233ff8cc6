// Package connectors holds sources that feed documents into the upload
// pipeline from outside the HTTP and CLI surfaces.
//
// Google Drive imports are a driven adapter (internal/adapters/driven/gdrive)
// because they fetch one file on request. Connectors here run continuously:
//
//   - filesystem: a watched local inbox directory
package connectors
