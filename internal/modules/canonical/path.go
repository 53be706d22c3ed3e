package canonical

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one component of a parsed path expression.
type Segment struct {
	Key      string
	Wildcard bool
}

// ParsePath splits a dotted path expression into segments. A bracket suffix
// is either a numeric index ("accounts[2]") or a wildcard ("items[*]" or
// "items[]"). Empty segments are dropped, so "" and "." both address the
// root. Malformed parts are kept verbatim for ValidatePath to report.
func ParsePath(path string) []Segment {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	out := make([]Segment, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		segs, ok := splitBrackets(part)
		if !ok {
			out = append(out, Segment{Key: part})
			continue
		}
		out = append(out, segs...)
	}
	return out
}

func splitBrackets(part string) ([]Segment, bool) {
	open := strings.IndexByte(part, '[')
	if open < 0 {
		return []Segment{{Key: part}}, !strings.Contains(part, "]")
	}
	pending := part[:open]
	rest := part[open:]
	var segs []Segment
	for rest != "" {
		if rest[0] != '[' {
			return nil, false
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, false
		}
		inner := rest[1:end]
		rest = rest[end+1:]
		switch {
		case inner == "*" || inner == "":
			segs = append(segs, Segment{Key: pending, Wildcard: true})
		case isDigits(inner):
			if pending != "" {
				segs = append(segs, Segment{Key: pending})
			}
			segs = append(segs, Segment{Key: inner})
		default:
			return nil, false
		}
		pending = ""
	}
	return segs, true
}

// Resolve evaluates path against root and returns the addressed node. The
// boolean is false when the path does not resolve.
func Resolve(root Node, path string) (Node, bool) {
	return resolveSegments(root, ParsePath(path))
}

func resolveSegments(cur Node, segs []Segment) (Node, bool) {
	for i := 0; i < len(segs); i++ {
		seg := segs[i]
		if seg.Wildcard {
			return resolveWildcard(cur, seg.Key, segs[i+1:])
		}

		next, ok := lookup(cur, seg.Key)
		if !ok {
			return Null, false
		}
		rest := segs[i+1:]
		if next.kind == KindArray && len(rest) > 0 && !addressesArray(rest[0]) {
			// single-element wrappers are common in parsed reports
			first, ok := next.Index(0)
			if !ok {
				return Null, false
			}
			next = first
		}
		cur = next
	}
	return cur, true
}

func resolveWildcard(cur Node, key string, rest []Segment) (Node, bool) {
	arr := cur
	if key != "" {
		var ok bool
		arr, ok = lookup(cur, key)
		if !ok {
			return Null, false
		}
	}
	if arr.kind != KindArray {
		return Null, false
	}
	for _, elem := range arr.arr {
		v, ok := resolveSegments(elem, rest)
		if ok && !v.IsNull() {
			return v, true
		}
	}
	return Null, false
}

func lookup(cur Node, key string) (Node, bool) {
	switch cur.kind {
	case KindObject:
		return cur.Get(key)
	case KindArray:
		idx, ok := parseIndex(key)
		if !ok {
			return Null, false
		}
		return cur.Index(idx)
	default:
		return Null, false
	}
}

// addressesArray reports whether seg operates on an array itself: an index
// or a bare wildcard.
func addressesArray(seg Segment) bool {
	if seg.Wildcard {
		return seg.Key == ""
	}
	_, ok := parseIndex(seg.Key)
	return ok
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseIndex(key string) (int, bool) {
	if !isDigits(key) {
		return 0, false
	}
	idx, err := strconv.Atoi(key)
	if err != nil {
		return 0, false
	}
	return idx, true
}

// ValidatePath reports structural problems in a mapping path: it must name
// at least one segment, and brackets must hold an index, "*" or nothing.
func ValidatePath(path string) error {
	segs := ParsePath(path)
	if len(segs) == 0 {
		return fmt.Errorf("path %q has no segments", path)
	}
	for _, seg := range segs {
		if strings.ContainsAny(seg.Key, "[]") {
			return fmt.Errorf("path %q: malformed segment %q", path, seg.Key)
		}
	}
	return nil
}
