package hostfs

import "errors"

// ErrNotFound is wrapped by any Filesystem method called on a path that
// does not exist.
var ErrNotFound = errors.New("hostfs: no such file or directory")

// ErrUnsupported is wrapped by Kind for a filesystem object this package
// does not know how to classify (sockets, and anything else outside the
// regular/symlink/dir/device/fifo set).
var ErrUnsupported = errors.New("hostfs: unsupported filesystem object")
