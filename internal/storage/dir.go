// Package storage provides the directory collaborator the engine
// persists through: a flat namespace of named files that can live on a
// local filesystem or in a remote bucket. The engine owns neither; it
// depends only on this narrow surface.
package storage

import "context"

// Dir is a directory-like handle. Implementations must return an error
// matching core.ErrNotFound when a named file does not exist, so callers
// can tell "absent" apart from "corrupt" or "unreachable".
type Dir interface {
	// ReadFile returns the contents of the named file.
	ReadFile(ctx context.Context, name string) ([]byte, error)

	// WriteFile stores data under the given name, creating the file
	// if needed and replacing any previous contents.
	WriteFile(ctx context.Context, name string, data []byte) error

	// Remove deletes the named file.
	Remove(ctx context.Context, name string) error
}
