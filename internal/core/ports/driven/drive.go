package driven

import "context"

// RemoteFile is a file downloaded from an external document source.
type RemoteFile struct {
	// Name is the file name, with an extension matching MediaType.
	Name string

	// MediaType is the type of Content, after any export conversion.
	MediaType string

	// Content is the file body.
	Content []byte
}

// DriveFetcher downloads files from a user's cloud drive.
type DriveFetcher interface {
	// Fetch downloads one file using the caller's OAuth access token.
	// Native documents are exported to a text format.
	// Returns domain.ErrNotFound if the file does not exist or is not visible.
	Fetch(ctx context.Context, accessToken, fileID string) (*RemoteFile, error)
}
