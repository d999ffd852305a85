package format

import (
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// WriteEDN writes v as EDN. v goes through its json tags first, so only maps,
// vectors, strings, numbers, booleans and nil reach the writer. Map keys become
// keywords in sorted order; pretty puts every entry on its own line.
func WriteEDN(w io.Writer, v any, pretty bool) error {
	x, err := viaJSON(v)
	if err != nil {
		return err
	}
	var b strings.Builder
	ednValue(&b, x, pretty, 0)
	b.WriteByte('\n')
	_, err = io.WriteString(w, b.String())
	return err
}

func ednValue(b *strings.Builder, v any, pretty bool, depth int) {
	switch t := v.(type) {
	case map[string]any:
		keys := slices.Sorted(maps.Keys(t))
		ednColl(b, "{", "}", len(keys), pretty, depth, func(i int) {
			b.WriteString(":" + ednKeyword(keys[i]) + " ")
			ednValue(b, t[keys[i]], pretty, depth+1)
		})
	case []any:
		ednColl(b, "[", "]", len(t), pretty, depth, func(i int) {
			ednValue(b, t[i], pretty, depth+1)
		})
	case string:
		b.WriteString(strconv.Quote(t))
	case float64:
		// Durations and counts arrive as whole floats; 'f' keeps them integral.
		b.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
	case bool:
		b.WriteString(strconv.FormatBool(t))
	default:
		b.WriteString("nil")
	}
}

func ednColl(b *strings.Builder, opening, closing string, n int, pretty bool, depth int, item func(i int)) {
	b.WriteString(opening)
	for i := 0; i < n; i++ {
		switch {
		case pretty:
			b.WriteString("\n" + strings.Repeat("  ", depth+1))
		case i > 0:
			b.WriteByte(' ')
		}
		item(i)
	}
	if pretty && n > 0 {
		b.WriteString("\n" + strings.Repeat("  ", depth))
	}
	b.WriteString(closing)
}

// ednKeyword makes a json key usable as a keyword name.
func ednKeyword(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "-")
}
