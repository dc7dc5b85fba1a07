package rest

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// JoinURL joins path segments to base. The base is split into scheme, host,
// path, query and fragment; an empty path becomes "/"; the segments are joined
// to the path with POSIX path semantics (a segment starting with "/" restarts
// the path) and the URL is reassembled with its query and fragment untouched.
//
// Segments that are not strings are formatted with FormatSegment.
func JoinURL(base string, segments ...any) string {
	parts := splitURL(base)

	path := parts.path
	if path == "" {
		path = "/"
	}

	for _, segment := range segments {
		path = joinPath(path, FormatSegment(segment))
	}

	parts.path = path

	return parts.String()
}

// FormatSegment renders a path segment. Booleans render as "True" and "False",
// numbers in their shortest decimal form.
func FormatSegment(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case bool:
		if value {
			return "True"
		}

		return "False"
	case int:
		return strconv.Itoa(value)
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", value)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", value)
	case float32:
		return formatFloat(float64(value), 32)
	case float64:
		return formatFloat(value, 64)
	case fmt.Stringer:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}

// formatFloat keeps a ".0" on integral values. Magnitudes below 1e-4 or from
// 1e16 up use exponent notation.
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, bitSize)
	}

	formatted := strconv.FormatFloat(f, 'f', -1, bitSize)
	if !strings.Contains(formatted, ".") {
		formatted += ".0"
	}

	return formatted
}

func joinPath(path, segment string) string {
	switch {
	case strings.HasPrefix(segment, "/"):
		return segment
	case path == "" || strings.HasSuffix(path, "/"):
		return path + segment
	default:
		return path + "/" + segment
	}
}

type urlParts struct {
	scheme   string
	netloc   string
	path     string
	query    string
	fragment string
}

// splitURL splits raw without normalizing or escaping anything, so that
// String reproduces the input exactly.
func splitURL(raw string) urlParts {
	var parts urlParts

	rest := raw
	if i := strings.IndexByte(rest, ':'); i > 0 && isSchemeStart(rest[0]) && isScheme(rest[:i]) {
		parts.scheme = strings.ToLower(rest[:i])
		rest = rest[i+1:]
	}

	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		end := strings.IndexAny(rest, "/?#")
		if end < 0 {
			end = len(rest)
		}

		parts.netloc = rest[:end]
		rest = rest[end:]
	}

	if i := strings.IndexByte(rest, '#'); i >= 0 {
		parts.fragment = rest[i+1:]
		rest = rest[:i]
	}

	if i := strings.IndexByte(rest, '?'); i >= 0 {
		parts.query = rest[i+1:]
		rest = rest[:i]
	}

	parts.path = rest

	return parts
}

func (p urlParts) String() string {
	var b strings.Builder

	if p.scheme != "" {
		b.WriteString(p.scheme)
		b.WriteByte(':')
	}

	if p.netloc != "" {
		b.WriteString("//")
		b.WriteString(p.netloc)

		if p.path != "" && !strings.HasPrefix(p.path, "/") {
			b.WriteByte('/')
		}
	}

	b.WriteString(p.path)

	if p.query != "" {
		b.WriteByte('?')
		b.WriteString(p.query)
	}

	if p.fragment != "" {
		b.WriteByte('#')
		b.WriteString(p.fragment)
	}

	return b.String()
}

func isSchemeStart(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isSchemeStart(c) || ('0' <= c && c <= '9') || c == '+' || c == '-' || c == '.' {
			continue
		}

		return false
	}

	return true
}
