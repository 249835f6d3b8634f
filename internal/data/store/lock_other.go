//go:build !unix

package store

// Lock is a no-op on platforms without flock; overlapping invocations fall
// back to last-writer-wins.
func (l *FileLocker) Lock() (func(), error) {
	return func() {}, nil
}
