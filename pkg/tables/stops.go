package tables

import (
	"io"

	"github.com/matzehuels/transitnet/pkg/errors"
	"github.com/matzehuels/transitnet/pkg/network"
)

// ReadStops decodes a semicolon-delimited stop table. Coordinates may use a
// decimal comma. file is used in error messages only.
func ReadStops(r io.Reader, file string, cols StopColumns) ([]network.Stop, error) {
	t, err := readTable(r, file, semicolon)
	if err != nil {
		return nil, err
	}
	id, err := t.column(cols.ID)
	if err != nil {
		return nil, err
	}
	name, err := t.column(cols.Name, cols.NameAlias)
	if err != nil {
		return nil, err
	}
	lat, err := t.column(cols.Lat)
	if err != nil {
		return nil, err
	}
	lng, err := t.column(cols.Lng)
	if err != nil {
		return nil, err
	}

	stops := make([]network.Stop, 0, len(t.rows))
	seen := make(map[int]int, len(t.rows))
	for i := range t.rows {
		c := t.cell(i)
		s := network.Stop{Name: c.str(name)}
		if s.ID, err = c.integer(id); err != nil {
			return nil, err
		}
		if prev, dup := seen[s.ID]; dup {
			return nil, errors.Input(errors.ErrCodeDuplicateID, file, c.line(), cols.ID,
				errors.New(errors.ErrCodeDuplicateID, "stop %d already on row %d", s.ID, prev))
		}
		seen[s.ID] = c.line()
		if s.Lat, err = c.decimal(lat); err != nil {
			return nil, err
		}
		if s.Lng, err = c.decimal(lng); err != nil {
			return nil, err
		}
		stops = append(stops, s)
	}
	return stops, nil
}

// ImportStops reads the stop table at path, which must be a .csv file.
func ImportStops(path string, cols StopColumns) ([]network.Stop, error) {
	return importWith(path, func(r io.Reader, file string) ([]network.Stop, error) {
		return ReadStops(r, file, cols)
	})
}
