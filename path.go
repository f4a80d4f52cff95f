package tarblock

import "strings"

// relName strips leading "/" and leading ".." path components from name,
// recursively, so that an absolute or upward-relative source path turns
// into a sane archive-relative name (e.g. "/a" -> "a",
// "../../etc/passwd" -> "etc/passwd"). A single "/" is rejected
// outright: archiving the filesystem root is not supported. The literal
// string "../" is a special case, kept distinguishable from the empty
// string it would otherwise normalize to, for test transparency.
func relName(name string) (string, error) {
	if name == "/" {
		return "", invalidf("cannot archive the rootfs")
	}
	if name == "../" {
		return "./", nil
	}
	for {
		switch {
		case strings.HasPrefix(name, "/"):
			name = name[1:]
		case name == "..":
			name = ""
		case strings.HasPrefix(name, "../"):
			name = name[len("../"):]
		default:
			return name, nil
		}
	}
}

// validateDst applies the admission-layer rejection rules the header
// builder deliberately leaves to its caller: an empty name, a name
// containing a ".." path segment anywhere, or a trailing "/" on anything
// but a Directory entry.
func validateDst(name string, kind Kind) error {
	if name == "" {
		return invalidf("target path is empty")
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return invalidf("target path %q contains a \"..\" path segment", name)
		}
	}
	if strings.HasSuffix(name, "/") && kind != Directory {
		return invalidf("target path %q has a trailing \"/\" but is not a directory", name)
	}
	return nil
}
