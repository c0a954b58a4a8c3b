// Package source abstracts where the raw measurements snapshot comes from:
// a local file, a meter-gateway FTP drop, or an HTTP endpoint.
package source

import "io"

// Source supplies one full snapshot of the delimited measurements data.
// Open failures that mean "the snapshot does not exist" wrap fs.ErrNotExist
// so the loader can report them as a recoverable warning rather than an
// error.
type Source interface {
	Open() (io.ReadCloser, error)
	String() string
}
