package vizier

import (
	"bufio"
	"io"
	"strings"
)

// Table is one result table of a VizieR query: ordered column names and raw cell text.
// Cells are kept as strings; numeric interpretation belongs to the consumer.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column or -1.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column is present.
func (t *Table) HasColumn(name string) bool { return t.ColumnIndex(name) >= 0 }

// Value returns the raw cell at row/column name.
func (t *Table) Value(row int, name string) (string, bool) {
	ci := t.ColumnIndex(name)
	if ci < 0 || row < 0 || row >= len(t.Rows) {
		return "", false
	}
	return t.Rows[row][ci], true
}

// Response is a parsed ASU-TSV document.
type Response struct {
	Tables []*Table
	// Messages holds service diagnostics (#INFO errors, #*** and #++++ notes),
	// e.g. an unresolved target name.
	Messages []string
}

type tsvState int

const (
	stateIdle     tsvState = iota // between tables
	statePreamble                 // after the header line: units and dashes lines
	stateRows                     // data rows until a blank line
)

// ParseTSV reads a VizieR ASU-TSV document.
//
// Layout per table: '#' metadata lines (#Table / #Name give the table name), one header
// line of tab-separated column names, a units line, a dashes line, then data rows until a
// blank line. Rows shorter than the header are padded with empty cells.
func ParseTSV(r io.Reader) (*Response, error) {
	resp := &Response{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	state := stateIdle
	var cur *Table
	pendingName := ""
	finish := func() {
		if cur != nil {
			resp.Tables = append(resp.Tables, cur)
		}
		cur = nil
		state = stateIdle
	}

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(line, "#") {
			if state != stateIdle {
				finish()
			}
			if name, ok := tableNameFromMeta(line); ok {
				pendingName = name
			} else if isServiceMessage(line) {
				resp.Messages = append(resp.Messages, strings.TrimSpace(strings.TrimLeft(line, "#*+")))
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			// only a line without tabs ends a table; a tabs-only line is a units line
			// with no units, or a row of empty cells
			if state == stateIdle || !strings.Contains(line, "\t") {
				if state != stateIdle {
					finish()
				}
				continue
			}
		}
		switch state {
		case stateIdle:
			cols := splitCells(line)
			cur = &Table{Name: pendingName, Columns: cols}
			pendingName = ""
			state = statePreamble
		case statePreamble:
			if isDashLine(line) {
				state = stateRows
			}
			// units line: nothing to keep
		case stateRows:
			cells := splitCells(line)
			if len(cells) < len(cur.Columns) {
				cells = append(cells, make([]string, len(cur.Columns)-len(cells))...)
			} else if len(cells) > len(cur.Columns) {
				cells = cells[:len(cur.Columns)]
			}
			cur.Rows = append(cur.Rows, cells)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if state != stateIdle {
		finish()
	}
	return resp, nil
}

func splitCells(line string) []string {
	parts := strings.Split(line, "\t")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func isDashLine(line string) bool {
	seen := false
	for _, r := range line {
		switch r {
		case '-':
			seen = true
		case ' ', '\t':
		default:
			return false
		}
	}
	return seen
}

// tableNameFromMeta extracts a table name from "#Table\tI_345_gaia2:" or "#Name: I/345/gaia2".
func tableNameFromMeta(line string) (string, bool) {
	body := strings.TrimPrefix(line, "#")
	switch {
	case strings.HasPrefix(body, "Table"):
		name := strings.TrimSpace(strings.TrimPrefix(body, "Table"))
		return strings.TrimSuffix(name, ":"), name != ""
	case strings.HasPrefix(body, "Name:"):
		name := strings.TrimSpace(strings.TrimPrefix(body, "Name:"))
		return name, name != ""
	}
	return "", false
}

func isServiceMessage(line string) bool {
	if strings.HasPrefix(line, "#***") || strings.HasPrefix(line, "#++++") {
		return true
	}
	return strings.HasPrefix(line, "#INFO") && strings.Contains(strings.ToLower(line), "error")
}
