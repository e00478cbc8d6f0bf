package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/iafilius/ClusterHR/src/gaia"
)

func validFormat(f string) bool {
	switch f {
	case "table", "json", "csv", "md", "markdown":
		return true
	}
	return false
}

// renderTable writes the first limit rows of t (all when limit <= 0).
func renderTable(w io.Writer, t *gaia.Table, format string, limit int) error {
	n := t.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	cols := t.Columns()

	if format == "json" {
		return renderJSON(w, t, cols, n)
	}

	if n == 0 && format == "table" {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	// catalog column names are case-sensitive (Plx vs e_Plx)
	tw.Style().Format.Header = text.FormatDefault

	header := table.Row{"row"}
	for _, c := range cols {
		header = append(header, c)
	}
	tw.AppendHeader(header)
	for i := 0; i < n; i++ {
		row := table.Row{t.SourceIndex(i)}
		for _, c := range cols {
			v, _ := t.Value(i, c)
			row = append(row, formatValue(c, v))
		}
		tw.AppendRow(row)
	}

	switch format {
	case "csv":
		tw.RenderCSV()
	case "md", "markdown":
		tw.RenderMarkdown()
	default:
		tw.Render()
		_, _ = fmt.Fprintf(w, "(%d of %d rows)\n", n, t.Len())
	}
	return nil
}

// renderJSON writes one object per line. Undefined values become null.
func renderJSON(w io.Writer, t *gaia.Table, cols []string, n int) error {
	enc := json.NewEncoder(w)
	for i := 0; i < n; i++ {
		obj := make(map[string]any, len(cols)+1)
		obj["row"] = t.SourceIndex(i)
		for _, c := range cols {
			v, _ := t.Value(i, c)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				obj[c] = nil
				continue
			}
			obj[c] = v
		}
		if err := enc.Encode(obj); err != nil {
			return err
		}
	}
	return nil
}

func formatValue(col string, v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	if col == gaia.ColPlxSNR {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
