package export

import "strings"

// Filename derives the on-stream path for an RCS master-file name,
// following export_filename in original_source/export.c: trim a
// striplen-byte prefix, strip the trailing ",v", drop "Attic/" and
// "RCS/" path components, and optionally rename a trailing
// ".cvsignore" to ".gitignore".
func Filename(name string, stripLen int, ignoreConv bool) string {
	if stripLen > 0 && stripLen <= len(name) {
		name = name[stripLen:]
	}

	var out strings.Builder
	s := name
	for len(s) > 0 {
		idx := strings.IndexByte(s, '/')
		var component, rest string
		final := idx < 0
		if final {
			component = s
			rest = ""
		} else {
			component = s[:idx+1] // include trailing slash
			rest = s[idx+1:]
		}

		if final {
			if len(component) > 2 && strings.HasSuffix(component, ",v") {
				component = component[:len(component)-2]
			}
			if ignoreConv && component == ".cvsignore" {
				component = ".gitignore"
			}
			out.WriteString(component)
		} else {
			switch component {
			case "Attic/", "RCS/":
				// dropped entirely
			default:
				out.WriteString(component)
			}
		}
		s = rest
	}
	return out.String()
}

// pathDeepCompare is a strict total order under which deeper paths
// sort before shallower prefixes of themselves: "a/b/c" < "a/b" < "a".
// Paths compare byte by byte with '/' ranked below the end of a path
// and the end of a path ranked below every other byte.
// This is fileop_sort/path_deep_compare in export.c, and it matters
// because a delete-then-replace of a directory-to-file must ship the
// deletion of everything under the old directory before the file
// operation that replaces it.
func pathDeepCompare(a, b string) int {
	i := 0
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}
	switch {
	case i == len(a) && i == len(b):
		return 0
	case i == len(a):
		// a is a strict prefix of b: b continues past the shared
		// prefix, so b is the deeper path and sorts first unless that
		// continuation isn't actually a path separator away.
		if b[i] == '/' {
			return 1
		}
		return -1
	case i == len(b):
		if a[i] == '/' {
			return -1
		}
		return 1
	default:
		if a[i] == '/' {
			return -1
		}
		if b[i] == '/' {
			return 1
		}
		if a[i] < b[i] {
			return -1
		}
		return 1
	}
}
