package clipboard

import (
	"strings"
	"unicode/utf8"
)

// Preview returns a single-line summary of the entry at most width runes
// long. Image entries are summarized by their source kind, not their bytes.
func Preview(e Entry, width int) string {
	if e.Type == EntryTypeImage {
		switch {
		case strings.HasPrefix(e.Content, "data:"):
			return truncate("[image] "+dataURIMime(e.Content), width)
		default:
			return truncate("[image] "+e.Content, width)
		}
	}
	return truncate(strings.Join(strings.Fields(e.Content), " "), width)
}

func dataURIMime(uri string) string {
	rest := strings.TrimPrefix(uri, "data:")
	if i := strings.IndexAny(rest, ";,"); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "inline"
	}
	return rest
}

func truncate(s string, width int) string {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}
