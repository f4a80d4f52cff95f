package header

import (
	"errors"
	"strings"
)

// Field offsets and widths, shared by Build and by tests that want to peek
// at a specific field without re-deriving the layout.
const (
	offName     = 0
	widName     = 100
	offMode     = 100
	widMode     = 8
	offUID      = 108
	widUID      = 8
	offGID      = 116
	widGID      = 8
	offSize     = 124
	widSize     = 12
	offMtime    = 136
	widMtime    = 12
	offChksum   = 148
	offTypeflag = 156
	offLinkname = 157
	widLinkname = 100
	offMagic    = 257
	widMagic    = 6
	offUname    = 265
	widUname    = 32
	offGname    = 297
	widGname    = 32
	offDevMajor = 329
	widDevMajor = 8
	offDevMinor = 337
	widDevMinor = 8
	offPrefix   = 345
	widPrefix   = 155
)

// ErrContiguous is returned for an Entry of Kind Contiguous, which this
// package never supports in either format.
var ErrContiguous = errors.New("header: contiguous-file entries are not supported")

// ErrUnsupportedKind is returned when format cannot represent entry.Kind at
// all (e.g. a device node under UnixV7).
var ErrUnsupportedKind = errors.New("header: entry kind not representable in this format")

// ErrNameTooLong is returned by splitName when the prefix left by a
// ustar split would not fit the 155-byte prefix field. Because the
// separator search stays within the first 155 bytes, that does not
// occur: an overlong name with no usable separator, or an overlong final
// component, is truncated to 100 bytes instead of failing.
var ErrNameTooLong = errors.New("header: name too long for this format")

// Build encodes entry into a single 512-byte block for the given format.
func Build(entry Entry, format Format) (Block, error) {
	if entry.Kind == Contiguous {
		return Block{}, ErrContiguous
	}
	if !Supports(format, entry.Kind) {
		return Block{}, ErrUnsupportedKind
	}

	name := entry.Name
	kind := entry.Kind
	if kind == Directory {
		if !strings.HasSuffix(name, "/") {
			name += "/"
		}
		if format == FormatUnixV7 {
			// UnixV7 has no directory typeflag; directories are regular
			// files with a trailing slash in the name.
			kind = Regular
		}
	}

	var block Block
	prefix, shortName, err := splitName(name, format)
	if err != nil {
		return Block{}, err
	}
	putString(&block, offName, widName, shortName)
	putOctal(&block, offMode, widMode, uint64(entry.Mode&07777))
	putOctal(&block, offUID, widUID, uint64(entry.UID))
	putOctal(&block, offGID, widGID, uint64(entry.GID))
	putOctal(&block, offSize, widSize, entry.Size)
	putOctal(&block, offMtime, widMtime, uint64(entry.ModTime))
	block[offTypeflag] = byte(kind)
	putString(&block, offLinkname, widLinkname, entry.LinkName)

	if format == FormatUstar {
		putString(&block, offMagic, widMagic, magicUSTAR)
		putString(&block, offUname, widUname, entry.Uname)
		putString(&block, offGname, widGname, entry.Gname)
		if kind == CharDevice || kind == BlockDevice {
			putOctal(&block, offDevMajor, widDevMajor, uint64(entry.DevMajor))
			putOctal(&block, offDevMinor, widDevMinor, uint64(entry.DevMinor))
		}
		putString(&block, offPrefix, widPrefix, prefix)
	}

	Checksum(&block)
	return block, nil
}

// splitName implements the ustar name/prefix splitting rule. It returns
// the (possibly empty) prefix and the name to place in the 100-byte name
// field.
func splitName(name string, format Format) (prefix, shortName string, err error) {
	if format == FormatUnixV7 {
		if len(name) > widName {
			name = name[:widName]
		}
		return "", name, nil
	}
	if len(name) <= widName {
		return "", name, nil
	}

	// Find the last '/' at an index <= widPrefix-1 (i.e. within the
	// candidate prefix region), so that the bytes before it fit in the
	// 155-byte prefix field.
	limit := widPrefix
	if limit > len(name) {
		limit = len(name)
	}
	idx := strings.LastIndexByte(name[:limit], '/')
	if idx < 0 {
		// No splittable separator: fall back to the UnixV7 rule (lossy
		// truncation), same as this package does when format is UnixV7.
		return "", name[:widName], nil
	}
	prefix = name[:idx]
	shortName = name[idx+1:]
	if len(prefix) > widPrefix {
		return "", "", ErrNameTooLong
	}
	if len(shortName) > widName {
		shortName = shortName[:widName]
	}
	return prefix, shortName, nil
}
