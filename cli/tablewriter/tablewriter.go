package tablewriter

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/acarl005/stripansi"
)

type Column struct {
	Name         string
	SeparateLine bool
	Lines        int
}

// TableWriter aligns rows on their visible width, so values may carry ANSI
// color codes. Columns created with NewLineCol are printed below their row.
type TableWriter struct {
	cols []Column
	rows []map[int]string
}

func Col(name string) Column {
	return Column{Name: name}
}

func NewLineCol(name string) Column {
	return Column{Name: name, SeparateLine: true}
}

func New(cols ...Column) *TableWriter {
	return &TableWriter{cols: cols}
}

// Write adds a row. Keys without a declared column get a new trailing
// column, in key order.
func (w *TableWriter) Write(r map[string]interface{}) {
	row := map[int]string{}

	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		idx := w.colIndex(k)
		if idx < 0 {
			w.cols = append(w.cols, Column{Name: k})
			idx = len(w.cols) - 1
		}
		row[idx] = fmt.Sprint(r[k])
		w.cols[idx].Lines++
	}
	w.rows = append(w.rows, row)
}

func (w *TableWriter) colIndex(name string) int {
	for i, c := range w.cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (w *TableWriter) Flush(out io.Writer) error {
	header := map[int]string{}
	for i, c := range w.cols {
		if !c.SeparateLine {
			header[i] = c.Name
		}
	}
	rows := append([]map[int]string{header}, w.rows...)

	widths := make([]int, len(w.cols))
	for ci, c := range w.cols {
		if c.Lines == 0 {
			continue
		}
		for _, row := range rows {
			if l := visibleLen(row[ci]); l > widths[ci] {
				widths[ci] = l
			}
		}
	}

	for _, row := range rows {
		for ci, c := range w.cols {
			if c.Lines == 0 || c.SeparateLine {
				continue
			}
			v := row[ci]
			if _, err := fmt.Fprint(out, v+strings.Repeat(" ", widths[ci]-visibleLen(v)+2)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}

		for ci, c := range w.cols {
			if !c.SeparateLine || row[ci] == "" {
				continue
			}
			if _, err := fmt.Fprintf(out, "  %s: %s\n", c.Name, row[ci]); err != nil {
				return err
			}
		}
	}
	return nil
}

func visibleLen(s string) int {
	return utf8.RuneCountInString(stripansi.Strip(s))
}
