package tables

import (
	"io"

	"github.com/matzehuels/transitnet/pkg/network"
)

// Revisit records a stop that appears more than once on the same line. The
// line keeps the first position and the travel time of the last row.
type Revisit struct {
	Line int
	Stop int
	Row  int
}

// LineTable is the decoded route table.
type LineTable struct {
	// Lines in order of first appearance of their route ID.
	Lines    []network.Line
	Revisits []Revisit
}

// ReadLines decodes a comma-delimited route table. Each row is one visit;
// a line's stops are ordered by row order. A line takes the first non-empty
// value of the optional name column.
func ReadLines(r io.Reader, file string, cols LineColumns) (*LineTable, error) {
	t, err := readTable(r, file, comma)
	if err != nil {
		return nil, err
	}
	route, err := t.column(cols.Route)
	if err != nil {
		return nil, err
	}
	stop, err := t.column(cols.Stop)
	if err != nil {
		return nil, err
	}
	tm, err := t.column(cols.Time)
	if err != nil {
		return nil, err
	}
	name := t.optional(cols.Name)

	out := &LineTable{}
	index := make(map[int]int)
	for i := range t.rows {
		c := t.cell(i)
		lineID, err := c.integer(route)
		if err != nil {
			return nil, err
		}
		stopID, err := c.integer(stop)
		if err != nil {
			return nil, err
		}
		travel, err := c.decimal(tm)
		if err != nil {
			return nil, err
		}

		k, ok := index[lineID]
		if !ok {
			k = len(out.Lines)
			index[lineID] = k
			out.Lines = append(out.Lines, network.Line{ID: lineID})
		}
		if out.Lines[k].Name == "" {
			out.Lines[k].Name = c.str(name)
		}
		if !out.Lines[k].AddStop(stopID, travel) {
			out.Revisits = append(out.Revisits, Revisit{Line: lineID, Stop: stopID, Row: c.line()})
		}
	}
	return out, nil
}

// ImportLines reads the route table at path, which must be a .csv file.
func ImportLines(path string, cols LineColumns) (*LineTable, error) {
	return importWith(path, func(r io.Reader, file string) (*LineTable, error) {
		return ReadLines(r, file, cols)
	})
}
