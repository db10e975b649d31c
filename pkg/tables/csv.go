package tables

import (
	"bytes"
	"encoding/csv"
	stderrors "errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/transitnet/pkg/errors"
)

const (
	semicolon = ';'
	comma     = ','
)

var errEmptyField = stderrors.New("empty field")

// table is a fully read CSV table with a trimmed header.
type table struct {
	file   string
	header []string
	rows   [][]string
}

func readTable(r io.Reader, file string, delim rune) (*table, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if stderrors.As(err, &perr) {
			return nil, errors.Input(errors.ErrCodeInvalidFormat, file, perr.Line, "", perr.Err)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", file)
	}
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "%s: no header row", file)
	}

	header := records[0]
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	return &table{file: file, header: header, rows: records[1:]}, nil
}

// readDetected reads a table whose delimiter is ';' or ',', whichever the
// header line contains more of.
func readDetected(r io.Reader, file string) (*table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", file)
	}
	return readTable(bytes.NewReader(data), file, detectDelimiter(data))
}

func detectDelimiter(data []byte) rune {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(line, []byte{semicolon}) > bytes.Count(line, []byte{comma}) {
		return semicolon
	}
	return comma
}

// column returns the index of the first of names present in the header.
func (t *table) column(names ...string) (int, error) {
	for _, name := range names {
		if name == "" {
			continue
		}
		for i, h := range t.header {
			if h == name {
				return i, nil
			}
		}
	}
	return -1, errors.New(errors.ErrCodeMissingColumn, "%s: missing column %q (have %s)",
		t.file, names[0], strings.Join(t.header, ", "))
}

// optional returns the index of name, or -1 when name is empty or absent.
func (t *table) optional(name string) int {
	if name == "" {
		return -1
	}
	for i, h := range t.header {
		if h == name {
			return i
		}
	}
	return -1
}

// cell reads one field of a data row; i indexes t.rows.
type cell struct {
	t   *table
	i   int
	row []string
}

func (t *table) cell(i int) cell {
	return cell{t: t, i: i, row: t.rows[i]}
}

// line is the 1-based file row of the data row, the header being row 1.
func (c cell) line() int { return c.i + 2 }

func (c cell) str(col int) string {
	if col < 0 || col >= len(c.row) {
		return ""
	}
	return strings.TrimSpace(c.row[col])
}

func (c cell) fail(code errors.Code, col int, cause error) error {
	return errors.Input(code, c.t.file, c.line(), c.t.header[col], cause)
}

func (c cell) required(col int) (string, error) {
	s := c.str(col)
	if s == "" {
		return "", c.fail(errors.ErrCodeReferentialIntegrity, col, errEmptyField)
	}
	return s, nil
}

func (c cell) integer(col int) (int, error) {
	s, err := c.required(col)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, c.fail(errors.ErrCodeInvalidNumber, col, err)
	}
	return v, nil
}

// decimal parses a number written with either a decimal point or a decimal comma.
func (c cell) decimal(col int) (float64, error) {
	s, err := c.required(col)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, c.fail(errors.ErrCodeInvalidNumber, col, err)
	}
	return v, nil
}

// count parses an inhabitant count with '.' thousand separators.
func (c cell) count(col int) (float64, error) {
	s, err := c.required(col)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ".", ""), 64)
	if err != nil {
		return 0, c.fail(errors.ErrCodeInvalidNumber, col, err)
	}
	return v, nil
}

// openInput checks path is an existing .csv file and opens it.
func openInput(path string) (*os.File, error) {
	if err := errors.ValidateTablePath(path, ".csv"); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	return f, nil
}

func importWith[T any](path string, read func(io.Reader, string) (T, error)) (T, error) {
	f, err := openInput(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	return read(f, path)
}
