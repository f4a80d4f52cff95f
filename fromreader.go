package tarblock

import (
	"io"

	"github.com/tarblock/tarblock/internal/header"
)

// AddFromReader admits a REGULAR entry of unknown size, streaming r until
// EOF and backpatching its header with the final byte count once known
// (the dynamic-size counterpart of the const-size body path). Unlike
// StreamBegin/StreamData/StreamComplete, the whole entry is described and
// consumed in one call; unlike the Add* family, its size need not be
// known up front.
//
// AddFromReader requires a seekable sink (File mode) and
// CompressionNone; in Callback mode or with CompressionLz4 it fails with
// an IllegalState error. StreamBegin/StreamData/StreamComplete accept
// content of not-yet-known size under CompressionLz4 as well.
func (w *Writer) AddFromReader(name string, r io.Reader, attrs Attrs) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if w.mode != modeFile {
		return illegalStatef("AddFromReader is not supported in Callback mode")
	}
	if w.compression != CompressionNone {
		return illegalStatef("AddFromReader is not supported with LZ4 compression")
	}

	entry, err := w.buildEntry(Regular, name, attrs, "", 0, 0, 0)
	if err != nil {
		return err
	}
	if _, exists := w.nameSet[entry.Name]; exists {
		return illegalStatef("duplicate regular-file entry %q", entry.Name)
	}

	headerPos, err := w.bio.Tell()
	if err != nil {
		return ioErrorf(err, "AddFromReader: reading header position")
	}
	if err := w.bio.WriteHeader(&header.Zero); err != nil {
		return ioErrorf(err, "AddFromReader: writing placeholder header")
	}

	var total uint64
	var block header.Block
	for {
		n, readErr := io.ReadFull(r, block[:])
		if n > 0 {
			if n < header.Size {
				for i := n; i < header.Size; i++ {
					block[i] = 0
				}
			}
			if err := w.bio.WriteData(&block); err != nil {
				return ioErrorf(err, "AddFromReader: writing content block")
			}
			total += uint64(n)
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return ioErrorf(readErr, "AddFromReader: reading content")
		}
	}

	entry.Size = total
	finalBlock, err := header.Build(entry, w.format)
	if err != nil {
		return wrapHeaderErr(err, entry.Name)
	}
	end, err := w.bio.Tell()
	if err != nil {
		return ioErrorf(err, "AddFromReader: reading end position")
	}
	if err := w.bio.Seek(headerPos); err != nil {
		return ioErrorf(err, "AddFromReader: seeking to placeholder header")
	}
	if err := w.bio.WriteHeader(&finalBlock); err != nil {
		return ioErrorf(err, "AddFromReader: rewriting header")
	}
	if err := w.bio.Seek(end); err != nil {
		return ioErrorf(err, "AddFromReader: seeking back past entry body")
	}

	w.nameSet[entry.Name] = struct{}{}
	w.log("tarblock: added %s %q (%d bytes, dynamic)", entry.Kind, entry.Name, total)
	return nil
}
