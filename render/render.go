// Package render formats query results as an aligned text table:
//
//	ID | Name   | Age
//	---+--------+-----
//	1  | Kieran | 21
//	2  | Ada    | NULL
package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-isatty"
)

const (
	columnSeparator = " | "
	ruleSeparator   = "-+-"

	headerStart = "\x1b[1;4m"
	headerEnd   = "\x1b[0m"
)

// Table renders columns and rows as aligned text without a trailing newline.
// An empty result renders the header and rule only.
func Table(columns []string, rows [][]any) string {
	header, rule, body := layout(columns, rows)
	lines := append([]string{header, rule}, body...)
	return strings.Join(lines, "\n")
}

// Fprint writes the rendered table followed by a newline. When w is a
// terminal the header is emphasised with bold and underline, unless
// NO_COLOR is set.
func Fprint(w io.Writer, columns []string, rows [][]any) error {
	header, rule, body := layout(columns, rows)
	if emphasise(w) {
		header = headerStart + header + headerEnd
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(rule)
	b.WriteString("\n")
	for _, line := range body {
		b.WriteString(line)
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Cell returns the text shown for one value: NULL for nil, raw text for
// strings and byte slices, fmt.Sprint otherwise (which uses String methods,
// so dates and times print in ISO form).
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func layout(columns []string, rows [][]any) (header, rule string, body []string) {
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(columns))
		for j := range columns {
			var v any
			if j < len(row) {
				v = row[j]
			}
			cells[i][j] = Cell(v)
		}
	}

	widths := calculateWidths(columns, cells)

	header = formatRow(columns, widths)

	dashes := make([]string, len(widths))
	for i, w := range widths {
		dashes[i] = strings.Repeat("-", w)
	}
	rule = strings.Join(dashes, ruleSeparator)

	body = make([]string, len(cells))
	for i, row := range cells {
		body[i] = formatRow(row, widths)
	}
	return header, rule, body
}

// calculateWidths returns, per column, the widest header or cell in runes.
func calculateWidths(columns []string, cells [][]string) []int {
	widths := make([]int, len(columns))
	for i, h := range columns {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range cells {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}
	return widths
}

func formatRow(cells []string, widths []int) string {
	padded := make([]string, len(widths))
	for i, w := range widths {
		cell := cells[i]
		padded[i] = cell + strings.Repeat(" ", w-utf8.RuneCountInString(cell))
	}
	return strings.Join(padded, columnSeparator)
}

func emphasise(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
