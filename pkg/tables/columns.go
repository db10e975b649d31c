package tables

// StopColumns names the stop table columns. NameAlias is tried when Name
// is absent.
type StopColumns struct {
	ID        string `toml:"id" yaml:"id" validate:"required"`
	Name      string `toml:"name" yaml:"name" validate:"required"`
	NameAlias string `toml:"name_alias" yaml:"name_alias"`
	Lat       string `toml:"lat" yaml:"lat" validate:"required"`
	Lng       string `toml:"lng" yaml:"lng" validate:"required"`
}

// LineColumns names the route table columns. Name is optional.
type LineColumns struct {
	Route string `toml:"route" yaml:"route" validate:"required"`
	Name  string `toml:"name" yaml:"name"`
	Stop  string `toml:"stop" yaml:"stop" validate:"required"`
	Time  string `toml:"time" yaml:"time" validate:"required"`
}

// PopulationColumns names the population center table columns. Name is
// optional; without it the ID doubles as the node name.
type PopulationColumns struct {
	ID         string `toml:"id" yaml:"id" validate:"required"`
	Name       string `toml:"name" yaml:"name"`
	Population string `toml:"population" yaml:"population" validate:"required"`
	Lat        string `toml:"lat" yaml:"lat" validate:"required"`
	Lng        string `toml:"lng" yaml:"lng" validate:"required"`
}

// FacilityColumns names the facility table columns.
type FacilityColumns struct {
	Name    string `toml:"name" yaml:"name" validate:"required"`
	Lat     string `toml:"lat" yaml:"lat" validate:"required"`
	Lng     string `toml:"lng" yaml:"lng" validate:"required"`
	Quality string `toml:"quality" yaml:"quality" validate:"required"`
}

// Columns groups the column names of every input table.
type Columns struct {
	Stops      StopColumns       `toml:"stops" yaml:"stops"`
	Lines      LineColumns       `toml:"lines" yaml:"lines"`
	Population PopulationColumns `toml:"population" yaml:"population"`
	Facilities FacilityColumns   `toml:"facilities" yaml:"facilities"`
}

// DefaultColumns returns the column names of the reference data set.
func DefaultColumns() Columns {
	return Columns{
		Stops: StopColumns{
			ID:        "ID",
			Name:      "Halte",
			NameAlias: "Name",
			Lat:       "lat",
			Lng:       "lng",
		},
		Lines: LineColumns{
			Route: "route_ID",
			Name:  "name",
			Stop:  "StopID",
			Time:  "traveltime to next stop",
		},
		Population: PopulationColumns{
			ID:         "ID",
			Population: "Inwoners",
			Lat:        "lat",
			Lng:        "lng",
		},
		Facilities: FacilityColumns{
			Name:    "Name",
			Lat:     "lat",
			Lng:     "lng",
			Quality: "Kwaliteit",
		},
	}
}
