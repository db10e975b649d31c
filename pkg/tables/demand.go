package tables

import (
	"io"
	"strconv"

	"github.com/matzehuels/transitnet/pkg/network"
)

// ReadPopulation decodes a population center table. The delimiter is
// detected from the header and inhabitant counts may carry '.' thousand
// separators.
func ReadPopulation(r io.Reader, file string, cols PopulationColumns) ([]network.DemandPoint, error) {
	t, err := readDetected(r, file)
	if err != nil {
		return nil, err
	}
	id, err := t.column(cols.ID)
	if err != nil {
		return nil, err
	}
	pop, err := t.column(cols.Population)
	if err != nil {
		return nil, err
	}
	lat, lng, err := coordColumns(t, cols.Lat, cols.Lng)
	if err != nil {
		return nil, err
	}
	name := t.optional(cols.Name)

	points := make([]network.DemandPoint, 0, len(t.rows))
	for i := range t.rows {
		c := t.cell(i)
		p := network.DemandPoint{Type: network.NodePopulationCenter}
		if p.SourceID, err = c.required(id); err != nil {
			return nil, err
		}
		p.Name = p.SourceID
		if s := c.str(name); s != "" {
			p.Name = s
		}
		if p.Value, err = c.count(pop); err != nil {
			return nil, err
		}
		if p.Lat, p.Lng, err = coords(c, lat, lng); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// ReadFacilities decodes a facility table. The delimiter is detected from
// the header. A facility's source ID is its 1-based data row number.
func ReadFacilities(r io.Reader, file string, cols FacilityColumns) ([]network.DemandPoint, error) {
	t, err := readDetected(r, file)
	if err != nil {
		return nil, err
	}
	name, err := t.column(cols.Name)
	if err != nil {
		return nil, err
	}
	quality, err := t.column(cols.Quality)
	if err != nil {
		return nil, err
	}
	lat, lng, err := coordColumns(t, cols.Lat, cols.Lng)
	if err != nil {
		return nil, err
	}

	points := make([]network.DemandPoint, 0, len(t.rows))
	for i := range t.rows {
		c := t.cell(i)
		p := network.DemandPoint{
			SourceID: strconv.Itoa(i + 1),
			Type:     network.NodeFacility,
		}
		if p.Name, err = c.required(name); err != nil {
			return nil, err
		}
		if p.Value, err = c.decimal(quality); err != nil {
			return nil, err
		}
		if p.Lat, p.Lng, err = coords(c, lat, lng); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

func coordColumns(t *table, latName, lngName string) (int, int, error) {
	lat, err := t.column(latName)
	if err != nil {
		return 0, 0, err
	}
	lng, err := t.column(lngName)
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

func coords(c cell, lat, lng int) (float64, float64, error) {
	la, err := c.decimal(lat)
	if err != nil {
		return 0, 0, err
	}
	ln, err := c.decimal(lng)
	if err != nil {
		return 0, 0, err
	}
	return la, ln, nil
}

// ImportPopulation reads the population center table at path, which must be a .csv file.
func ImportPopulation(path string, cols PopulationColumns) ([]network.DemandPoint, error) {
	return importWith(path, func(r io.Reader, file string) ([]network.DemandPoint, error) {
		return ReadPopulation(r, file, cols)
	})
}

// ImportFacilities reads the facility table at path, which must be a .csv file.
func ImportFacilities(path string, cols FacilityColumns) ([]network.DemandPoint, error) {
	return importWith(path, func(r io.Reader, file string) ([]network.DemandPoint, error) {
		return ReadFacilities(r, file, cols)
	})
}
