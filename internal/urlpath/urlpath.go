// Package urlpath converts navigation paths into ordered route segments and back.
//
// A path such as "/users?tab=info/details?id=42" describes a stack of pages:
// the first segment names the top-level view, every following segment names
// the page mounted into the default subview slot of the previous one. Each
// segment may carry its own parameters after a "?".
package urlpath

import (
	"net/url"
	"sort"
	"strings"
)

// Segment is one hop of a navigation path.
type Segment struct {
	Page   string
	Params map[string]string
}

// URL is an ordered sequence of segments, outer to inner.
type URL []Segment

// Param returns the named parameter of the segment.
func (s Segment) Param(name string) (string, bool) {
	v, ok := s.Params[name]
	return v, ok
}

// Clone returns a copy of the segment that shares no state with s.
func (s Segment) Clone() Segment {
	params := make(map[string]string, len(s.Params))
	for k, v := range s.Params {
		params[k] = v
	}
	return Segment{Page: s.Page, Params: params}
}

// Equal reports whether two segments name the same page with the same parameters.
func (s Segment) Equal(o Segment) bool {
	if s.Page != o.Page || len(s.Params) != len(o.Params) {
		return false
	}
	for k, v := range s.Params {
		if ov, ok := o.Params[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Parse splits a path into segments.
//
// One leading "/" is ignored. Every chunk between "/" delimiters becomes a
// segment; text after the first "?" of a chunk is parameter text whose pairs
// are separated by "&", "?" or ":". Values are URL-decoded when possible and
// kept verbatim otherwise. Parse never returns an empty URL.
func Parse(path string) URL {
	path = strings.TrimPrefix(path, "/")

	chunks := strings.Split(path, "/")
	result := make(URL, 0, len(chunks))
	for _, chunk := range chunks {
		result = append(result, parseChunk(chunk))
	}
	return result
}

func parseChunk(chunk string) Segment {
	seg := Segment{Params: make(map[string]string)}

	pos := strings.IndexByte(chunk, '?')
	if pos == -1 {
		seg.Page = chunk
		return seg
	}

	seg.Page = chunk[:pos]
	pairs := strings.FieldsFunc(chunk[pos+1:], func(r rune) bool {
		return r == '&' || r == '?' || r == ':'
	})
	for _, pair := range pairs {
		key, value, _ := strings.Cut(pair, "=")
		seg.Params[decode(key)] = decode(value)
	}
	return seg
}

func decode(s string) string {
	if out, err := url.QueryUnescape(s); err == nil {
		return out
	}
	return s
}

// Serialize renders segments back into a path. The result is canonical:
// parameters are emitted in key order and escaped, so parsing it yields
// segments equal to u.
func Serialize(u URL) string {
	var b strings.Builder
	for _, seg := range u {
		b.WriteByte('/')
		b.WriteString(seg.Page)
		if len(seg.Params) == 0 {
			continue
		}

		keys := make([]string, 0, len(seg.Params))
		for k := range seg.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('?')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(seg.Params[k]))
		}
	}
	return b.String()
}

// String implements fmt.Stringer using Serialize.
func (u URL) String() string {
	return Serialize(u)
}

// Equal reports whether both URLs hold equal segments in the same order.
func (u URL) Equal(o URL) bool {
	if len(u) != len(o) {
		return false
	}
	for i := range u {
		if !u[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Tail returns the segments after the first one, or nil.
func (u URL) Tail() URL {
	if len(u) < 2 {
		return nil
	}
	return u[1:]
}

// Page returns the page of the first segment, or "" for an empty URL.
func (u URL) Page() string {
	if len(u) == 0 {
		return ""
	}
	return u[0].Page
}

// Parser parses paths on behalf of an application with a configured start page.
type Parser struct {
	// Start is parsed instead of empty or root-only paths.
	Start string
}

// Parse behaves like the package level Parse but substitutes the start path
// for "" and "/".
func (p Parser) Parse(path string) URL {
	if IsRoot(path) && p.Start != "" && !IsRoot(p.Start) {
		return Parse(p.Start)
	}
	return Parse(path)
}

// IsRoot reports whether path carries no page at all.
func IsRoot(path string) bool {
	return path == "" || path == "/"
}
