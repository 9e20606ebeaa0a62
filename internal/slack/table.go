package slack

import (
	"fmt"
	"strings"
)

// Row is a single labeled entry of a rendered table. A nil Values slice
// renders as the literal "None"; multiple values are joined with ", ".
type Row struct {
	Label  string
	Values []string
}

// Cell builds a Row with a single value.
func Cell(label, value string) Row {
	return Row{Label: label, Values: []string{value}}
}

// FormatTable renders rows as an aligned, pipe-delimited text table and
// returns the individual lines. Titles default to "Key"/"Value" and the
// column width defaults to the longest label plus two. A width too small
// for the longest label renders misaligned rather than failing.
func FormatTable(rows []Row, titles []string, width int) []string {
	if len(titles) == 0 {
		titles = []string{"Key", "Value"}
	}
	if width == 0 {
		for _, row := range rows {
			if len(row.Label)+2 > width {
				width = len(row.Label) + 2
			}
		}
	}

	cells := make([]string, len(titles))
	lines := make([]string, 0, len(rows)+2)

	for i, title := range titles {
		cells[i] = pad(title, width)
	}
	lines = append(lines, strings.Join(cells, " | "))
	lines = append(lines, strings.Repeat("-", width*len(titles)))

	for _, row := range rows {
		value := "None"
		if row.Values != nil {
			value = strings.Join(row.Values, ", ")
		}
		lines = append(lines, fmt.Sprintf("%s | %s", pad(row.Label, width), pad(value, width)))
	}

	return lines
}

func pad(s string, width int) string {
	return fmt.Sprintf("%-*s", width, s)
}
