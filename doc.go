// Package tarblock writes UNIX V7 and POSIX ustar tar archives, optionally
// piped through an LZ4 frame compressor, to either a seekable file on disk
// or an unseekable callback that receives fixed-size 512-byte blocks.
//
// A Writer is constructed with New (File mode, backed by a path on disk)
// or NewCallback (Callback mode, backed by a per-block callback suitable
// for piping to a socket or stdout). Entries are admitted one at a time
// through AddFromPath (a single filesystem object), AddFromPathRecursive
// (a directory tree), the kind-specific Add* methods (for entries with no
// underlying filesystem object: symlinks, device nodes, FIFOs,
// directories), or the StreamBegin/StreamData/StreamComplete trio (File
// mode only) for content whose size is not known until it has all been
// read.
//
// tarblock intentionally does not read or extract archives, does not
// support pax or GNU long-name extensions, and does not support sparse
// files.
package tarblock
