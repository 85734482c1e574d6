// Package dump formats small key/value tables for diagnostic dumps (the
// connection registry's Dump() request, §4.8). Column widths are measured in
// terminal display cells rather than bytes/runes, since the values dumped
// here (display IDs, refresh-rate labels) may contain wide characters.
package dump

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Row is one line of a dumped table: a label and its current value.
type Row struct {
	Label string
	Value string
}

// Table renders rows as a label-aligned, fixed-width text block.
func Table(rows []Row) string {
	labelWidth := 0
	for _, r := range rows {
		if w := runewidth.StringWidth(r.Label); w > labelWidth {
			labelWidth = w
		}
	}

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(r.Label)
		pad := labelWidth - runewidth.StringWidth(r.Label)
		for i := 0; i < pad; i++ {
			b.WriteByte(' ')
		}
		b.WriteString("  ")
		b.WriteString(r.Value)
		b.WriteByte('\n')
	}
	return b.String()
}
