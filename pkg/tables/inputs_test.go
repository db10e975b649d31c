package tables

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/transitnet/pkg/errors"
	"github.com/matzehuels/transitnet/pkg/network"
)

func TestReadStops(t *testing.T) {
	cols := DefaultColumns().Stops
	tests := []struct {
		name  string
		input string
		want  []network.Stop
	}{
		{
			name:  "decimal comma",
			input: "ID;Halte;lat;lng\n1;Centraal;52,16;4,48\n2;Markt;52,2;4,5\n",
			want: []network.Stop{
				{ID: 1, Name: "Centraal", Lat: 52.16, Lng: 4.48},
				{ID: 2, Name: "Markt", Lat: 52.2, Lng: 4.5},
			},
		},
		{
			name:  "name alias and padded header",
			input: " ID ; Name ;lat;lng\n3;Station;52.1;4.3\n",
			want:  []network.Stop{{ID: 3, Name: "Station", Lat: 52.1, Lng: 4.3}},
		},
		{
			name:  "byte order mark",
			input: "\ufeffID;Halte;lat;lng\n4;Dorp;52;4\n",
			want:  []network.Stop{{ID: 4, Name: "Dorp", Lat: 52, Lng: 4}},
		},
		{
			name:  "header only",
			input: "ID;Halte;lat;lng\n",
			want:  []network.Stop{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadStops(strings.NewReader(tt.input), "stops.csv", cols)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadStopsErrors(t *testing.T) {
	cols := DefaultColumns().Stops
	tests := []struct {
		name     string
		input    string
		code     errors.Code
		contains string
	}{
		{"missing column", "ID;Halte;lat\n1;A;52\n", errors.ErrCodeMissingColumn, `"lng"`},
		{"bad number", "ID;Halte;lat;lng\n1;A;52;4\n2;B;5x;4\n", errors.ErrCodeInvalidNumber, `stops.csv:3 column "lat"`},
		{"bad id", "ID;Halte;lat;lng\nx;A;52;4\n", errors.ErrCodeInvalidNumber, `stops.csv:2 column "ID"`},
		{"missing coordinate", "ID;Halte;lat;lng\n1;A;;4\n", errors.ErrCodeReferentialIntegrity, `column "lat"`},
		{"duplicate id", "ID;Halte;lat;lng\n1;A;52;4\n1;B;52;4\n", errors.ErrCodeDuplicateID, "row 2"},
		{"empty file", "", errors.ErrCodeInvalidFormat, "no header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadStops(strings.NewReader(tt.input), "stops.csv", cols)
			if !errors.Is(err, tt.code) {
				t.Fatalf("err = %v, want code %s", err, tt.code)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("err = %q, want it to contain %q", err, tt.contains)
			}
		})
	}
}

func TestReadLines(t *testing.T) {
	input := "route_ID, StopID, traveltime to next stop\n" +
		"7,1,2.5\n" +
		"7,2,3\n" +
		"8,2,1\n" +
		"7,3,0\n" +
		"7,1,4\n"
	got, err := ReadLines(strings.NewReader(input), "lines.csv", DefaultColumns().Lines)
	if err != nil {
		t.Fatal(err)
	}
	want := []network.Line{
		{ID: 7, Stops: []network.LineStop{{StopID: 1, TravelTime: 4}, {StopID: 2, TravelTime: 3}, {StopID: 3, TravelTime: 0}}},
		{ID: 8, Stops: []network.LineStop{{StopID: 2, TravelTime: 1}}},
	}
	if !reflect.DeepEqual(got.Lines, want) {
		t.Errorf("lines = %+v, want %+v", got.Lines, want)
	}
	if len(got.Revisits) != 1 || got.Revisits[0] != (Revisit{Line: 7, Stop: 1, Row: 6}) {
		t.Errorf("revisits = %+v", got.Revisits)
	}
}

func TestReadLinesName(t *testing.T) {
	input := "route_ID,name,StopID,traveltime to next stop\n" +
		"7,,1,2\n" +
		"7,Centrum - Station,2,0\n" +
		"8,Ring,2,1\n"
	got, err := ReadLines(strings.NewReader(input), "lines.csv", DefaultColumns().Lines)
	if err != nil {
		t.Fatal(err)
	}
	names := []string{got.Lines[0].Name, got.Lines[1].Name}
	if !reflect.DeepEqual(names, []string{"Centrum - Station", "Ring"}) {
		t.Errorf("names = %q", names)
	}
}

func TestReadLinesErrors(t *testing.T) {
	cols := DefaultColumns().Lines
	_, err := ReadLines(strings.NewReader("route_ID,StopID\n1,2\n"), "lines.csv", cols)
	if !errors.Is(err, errors.ErrCodeMissingColumn) {
		t.Errorf("missing column: %v", err)
	}
	_, err = ReadLines(strings.NewReader("route_ID,StopID,traveltime to next stop\n1,2,fast\n"), "lines.csv", cols)
	if !errors.Is(err, errors.ErrCodeInvalidNumber) {
		t.Errorf("bad time: %v", err)
	}
}

func TestReadPopulation(t *testing.T) {
	cols := DefaultColumns().Population
	tests := []struct {
		name  string
		input string
		want  network.DemandPoint
	}{
		{
			name:  "semicolon with dotted thousands",
			input: "ID;Inwoners;lat;lng\nBU01;1.234;52,1;4,3\n",
			want:  network.DemandPoint{SourceID: "BU01", Name: "BU01", Type: network.NodePopulationCenter, Value: 1234, Lat: 52.1, Lng: 4.3},
		},
		{
			name:  "comma",
			input: "ID,Inwoners,lat,lng\nBU02,560,52.2,4.4\n",
			want:  network.DemandPoint{SourceID: "BU02", Name: "BU02", Type: network.NodePopulationCenter, Value: 560, Lat: 52.2, Lng: 4.4},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadPopulation(strings.NewReader(tt.input), "pop.csv", cols)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadPopulationNamed(t *testing.T) {
	cols := DefaultColumns().Population
	cols.Name = "Buurt"
	got, err := ReadPopulation(strings.NewReader("ID;Buurt;Inwoners;lat;lng\nBU01;Centrum;10;52;4\n"), "pop.csv", cols)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Name != "Centrum" || got[0].SourceID != "BU01" {
		t.Errorf("got %+v", got[0])
	}
}

func TestReadFacilities(t *testing.T) {
	input := "Name,lat,lng,Kwaliteit\nHospital,52.1,4.3,8.5\nSchool,52.2,4.4,6\n"
	got, err := ReadFacilities(strings.NewReader(input), "fac.csv", DefaultColumns().Facilities)
	if err != nil {
		t.Fatal(err)
	}
	want := []network.DemandPoint{
		{SourceID: "1", Name: "Hospital", Type: network.NodeFacility, Value: 8.5, Lat: 52.1, Lng: 4.3},
		{SourceID: "2", Name: "School", Type: network.NodeFacility, Value: 6, Lat: 52.2, Lng: 4.4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}

	_, err = ReadFacilities(strings.NewReader("Name,lat,lng,Kwaliteit\nClinic,,4.3,1\n"), "fac.csv", DefaultColumns().Facilities)
	if !errors.Is(err, errors.ErrCodeReferentialIntegrity) {
		t.Errorf("missing coordinates: %v, want REFERENTIAL_INTEGRITY", err)
	}
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		in   string
		want rune
	}{
		{"a;b;c\n1,5;2;3", ';'},
		{"a,b,c\n1;2;3", ','},
		{"single", ','},
	}
	for _, tt := range tests {
		if got := detectDelimiter([]byte(tt.in)); got != tt.want {
			t.Errorf("detectDelimiter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestImportStops(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "stops.csv")
	if err := os.WriteFile(good, []byte("ID;Halte;lat;lng\n1;A;52;4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	txt := filepath.Join(dir, "stops.txt")
	if err := os.WriteFile(txt, []byte("ID;Halte;lat;lng\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	stops, err := ImportStops(good, DefaultColumns().Stops)
	if err != nil || len(stops) != 1 {
		t.Fatalf("ImportStops = %v, %v", stops, err)
	}
	if _, err := ImportStops(txt, DefaultColumns().Stops); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("wrong extension: %v, want INVALID_FORMAT", err)
	}
	if _, err := ImportStops(filepath.Join(dir, "none.csv"), DefaultColumns().Stops); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: %v, want FILE_NOT_FOUND", err)
	}
}
