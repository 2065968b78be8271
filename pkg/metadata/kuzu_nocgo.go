//go:build !cgo

package metadata

import "errors"

// ErrKuzuUnavailable is returned when the binary was built without cgo.
var ErrKuzuUnavailable = errors.New("kuzu metadata store requires a cgo build")

func openKuzu(string) (Store, error) {
	return nil, ErrKuzuUnavailable
}
