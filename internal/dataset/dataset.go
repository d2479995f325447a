// Package dataset loads the static rental-delay and pricing tables from disk.
package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumn is returned when a required column is absent from a file header.
var ErrMissingColumn = errors.New("missing column")

// header maps column names to their position in a row.
type header map[string]int

func newHeader(cells []string) header {
	h := make(header, len(cells))
	for i, c := range cells {
		name := strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h
}

func (h header) require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := h[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// cell returns the named cell of row, or "" when the column is absent or the
// row is short (spreadsheet readers drop trailing empty cells).
func (h header) cell(row []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
