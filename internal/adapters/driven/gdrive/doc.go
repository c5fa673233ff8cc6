// Package gdrive fetches files from Google Drive on behalf of a user.
//
// The caller supplies the user's OAuth access token; this package never
// stores or refreshes tokens. Google Workspace documents are exported to
// text formats the extractors understand.
package gdrive
