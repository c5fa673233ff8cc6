// Package filesystem turns a local directory into an upload inbox.
//
// The inbox watches one directory (not recursively) with fsnotify and emits
// a File once a created or rewritten file has stopped changing. Hidden files
// and directories are ignored.
package filesystem
