package app

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"log/slog"
)

const (
	ansiReset   = "\x1b[0m"
	ansiBright  = "\x1b[1m"
	ansiDim     = "\x1b[2m"
	ansiRed     = "\x1b[31m"
	ansiGreen   = "\x1b[32m"
	ansiYellow  = "\x1b[33m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// stripANSI removes color escape sequences.
func stripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

// visualLen is the on-screen rune width of s, ignoring escape sequences.
func visualLen(s string) int {
	return len([]rune(stripANSI(s)))
}

const truncationMarker = "…"

// wrapSegments lays the segments out on lines of at most width visual
// columns, joined by sep. Continuation lines start with contPrefix. A
// segment too long for a whole line is truncated with a marker.
func wrapSegments(segments []string, sep string, width int, contPrefix string) []string {
	if width <= 0 {
		return []string{strings.Join(segments, sep)}
	}

	var (
		lines  []string
		cur    strings.Builder
		curLen int
		prefix string // empty on the first line
	)

	flush := func() {
		if curLen > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	place := func(seg string) {
		avail := width - visualLen(prefix)
		if visualLen(seg) > avail {
			seg = truncateVisual(seg, avail-1) + truncationMarker
		}
		cur.WriteString(prefix)
		cur.WriteString(seg)
		curLen = visualLen(prefix) + visualLen(seg)
	}

	for _, seg := range segments {
		if curLen == 0 {
			place(seg)
			continue
		}
		if curLen+visualLen(sep)+visualLen(seg) <= width {
			cur.WriteString(sep)
			cur.WriteString(seg)
			curLen += visualLen(sep) + visualLen(seg)
			continue
		}
		flush()
		prefix = contPrefix
		place(seg)
	}
	flush()

	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}

// truncateVisual returns at most n runes of s with colors stripped.
func truncateVisual(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(stripANSI(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}

// terminalWidth picks the wrap width: explicit override first, then the
// COLUMNS convention, then a fixed default. Implausible values fall through.
func (h *prettyHandler) terminalWidth() int {
	const (
		defaultWidth = 100
		minWidth     = 40
		maxWidth     = 240
	)

	for _, key := range []string{"SHAREBASE_LOG_WIDTH", "COLUMNS"} {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		if n, err := strconv.Atoi(v); err == nil && n >= minWidth && n <= maxWidth {
			return n
		}
	}
	return defaultWidth
}

func valueToInt64(v slog.Value) (int64, bool) {
	switch v.Kind() {
	case slog.KindInt64:
		return v.Int64(), true
	case slog.KindUint64:
		u := v.Uint64()
		if u > 1<<62 {
			return 0, false
		}
		return int64(u), true
	case slog.KindFloat64:
		return int64(v.Float64()), true
	default:
		return 0, false
	}
}

func colorizeHTTPMethod(method string, color bool) string {
	if !color {
		return method
	}
	switch method {
	case "GET":
		return ansiGreen + method + ansiReset
	case "POST":
		return ansiCyan + method + ansiReset
	case "PUT", "PATCH":
		return ansiYellow + method + ansiReset
	case "DELETE":
		return ansiRed + method + ansiReset
	default:
		return method
	}
}

func colorizeStatusCode(code int, color bool) string {
	s := strconv.Itoa(code)
	if !color {
		return s
	}
	switch {
	case code >= 500:
		return ansiRed + s + ansiReset
	case code >= 400:
		return ansiYellow + s + ansiReset
	case code >= 300:
		return ansiCyan + s + ansiReset
	default:
		return ansiGreen + s + ansiReset
	}
}

func colorizeStatusClass(class string, color bool) string {
	if !color || class == "" {
		return class
	}
	switch class[0] {
	case '5':
		return ansiRed + class + ansiReset
	case '4':
		return ansiYellow + class + ansiReset
	case '3':
		return ansiCyan + class + ansiReset
	default:
		return ansiGreen + class + ansiReset
	}
}

func colorizeDurationMS(ms int64, color bool) string {
	s := strconv.FormatInt(ms, 10) + "ms"
	if !color {
		return s
	}
	switch {
	case ms >= 1000:
		return ansiRed + s + ansiReset
	case ms >= 100:
		return ansiYellow + s + ansiReset
	default:
		return ansiDim + s + ansiReset
	}
}

func colorizeResult(result string, color bool) string {
	if !color {
		return result
	}
	switch result {
	case "success":
		return ansiGreen + result + ansiReset
	case "redirect":
		return ansiCyan + result + ansiReset
	case "client_error":
		return ansiYellow + result + ansiReset
	case "server_error":
		return ansiRed + result + ansiReset
	default:
		return result
	}
}
