package converter_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/seacable/atlas-backend/internal/apperr"
	"github.com/seacable/atlas-backend/internal/converter"
	"github.com/seacable/atlas-backend/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <name>AlphaLink Segment 1</name>
      <LineString><coordinates>
        -5.1,50.2,-40 -5.0,50.3,-60
        -4.9,50.4
      </coordinates></LineString>
    </Placemark>
    <Placemark>
      <name>Landing point</name>
      <Point><coordinates>-5.1,50.2</coordinates></Point>
    </Placemark>
    <Folder>
      <Placemark>
        <MultiGeometry>
          <LineString><coordinates>1,1 2,2</coordinates></LineString>
          <LineString><coordinates>3,3 4,4</coordinates></LineString>
        </MultiGeometry>
      </Placemark>
    </Folder>
  </Document>
</kml>`

func TestParseKML(t *testing.T) {
	features, err := converter.ParseKML(strings.NewReader(sampleKML))
	require.NoError(t, err)
	require.Len(t, features, 2)

	assert.Equal(t, "AlphaLink Segment 1", features[0].Property(geo.KeyName))
	assert.Equal(t, geo.TypeLineString, features[0].Geometry.Type)
	assert.JSONEq(t, `[[-5.1,50.2,-40],[-5,50.3,-60],[-4.9,50.4]]`, string(features[0].Geometry.Coordinates))
	assert.Len(t, features[0].Properties, len(geo.MetadataKeys))

	// Only the first coordinates element of a placemark is read.
	assert.Equal(t, "Unnamed Placemark", features[1].Property(geo.KeyName))
	assert.JSONEq(t, `[[1,1],[2,2]]`, string(features[1].Geometry.Coordinates))
}

func TestParseKML_Rejects(t *testing.T) {
	cases := map[string]string{
		"not xml":      `<kml><Placemark>`,
		"points only":  `<kml><Placemark><Point><coordinates>1,2</coordinates></Point></Placemark></kml>`,
		"bad lat":      `<kml><Placemark><name>X</name><LineString><coordinates>0,0 0,95</coordinates></LineString></Placemark></kml>`,
		"bad tuple":    `<kml><Placemark><LineString><coordinates>0,0 a,b</coordinates></LineString></Placemark></kml>`,
		"no placemark": `<kml><Document/></kml>`,
		"one position": `<kml><Placemark><LineString><coordinates>4,4 4,4</coordinates></LineString></Placemark></kml>`,
	}
	for name, doc := range cases {
		_, err := converter.ParseKML(strings.NewReader(doc))
		assert.True(t, apperr.Is(err, apperr.KindValidation), name)
	}
}

func TestDetectColumns(t *testing.T) {
	cases := []struct {
		header []string
		cols   converter.Columns
		want   converter.ColumnMatch
	}{
		{
			header: []string{"\ufeffCable", "Latitude (deg)", "Longitude (deg)", "Water depth (m)"},
			want:   converter.ColumnMatch{Lat: 1, Lon: 2, Depth: 3, Name: 0},
		},
		{
			header: []string{"y", "x"},
			want:   converter.ColumnMatch{Lat: 0, Lon: 1, Depth: -1, Name: -1},
		},
		{
			header: []string{"lng", "lat", "seg"},
			cols:   converter.Columns{Name: "SEG"},
			want:   converter.ColumnMatch{Lat: 1, Lon: 0, Depth: -1, Name: 2},
		},
		{
			header: []string{"north", "east"},
			cols:   converter.Columns{Lat: "north", Lon: "east"},
			want:   converter.ColumnMatch{Lat: 0, Lon: 1, Depth: -1, Name: -1},
		},
	}
	for _, tc := range cases {
		got, err := converter.DetectColumns(tc.header, tc.cols)
		require.NoError(t, err, tc.header)
		assert.Equal(t, tc.want, got, tc.header)
	}
}

func TestDetectColumns_NotFound(t *testing.T) {
	_, err := converter.DetectColumns([]string{"a", "b"}, converter.Columns{})
	assert.True(t, errors.Is(err, converter.ErrColumnsNotFound))

	_, err = converter.DetectColumns([]string{"lat", "lon"}, converter.Columns{Depth: "depth"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestParseCSV_GroupsByName(t *testing.T) {
	const data = `cable,lat,lon,depth
Alpha,0,0,-10
Beta,1,5,
Alpha,0,1,-20
,,,
Beta,1,6,
Alpha,0,2,-30
`
	features, err := converter.ParseCSV(strings.NewReader(data), "upload", converter.Columns{})
	require.NoError(t, err)
	require.Len(t, features, 2)

	assert.Equal(t, "Alpha", features[0].Property(geo.KeyName))
	assert.JSONEq(t, `[[0,0,-10],[1,0,-20],[2,0,-30]]`, string(features[0].Geometry.Coordinates))
	assert.Equal(t, "Beta", features[1].Property(geo.KeyName))
	assert.JSONEq(t, `[[5,1],[6,1]]`, string(features[1].Geometry.Coordinates))
}

func TestParseCSV_DefaultName(t *testing.T) {
	features, err := converter.ParseCSV(strings.NewReader("lat,lon\n0,0\n1,1\n"), "survey_2024", converter.Columns{})
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, "survey_2024", features[0].Property(geo.KeyName))
}

func TestParseCSV_Rejects(t *testing.T) {
	cases := map[string]string{
		"header only":   "lat,lon\n",
		"no columns":    "a,b\n1,2\n3,4\n",
		"single point":  "name,lat,lon\nA,0,0\nB,1,1\nB,2,2\n",
		"not numeric":   "lat,lon\n0,zero\n1,1\n",
		"out of range":  "lat,lon\n0,0\n91,1\n",
		"no coordinate": "lat,lon\n,\n,\n",
		"one position":  "lat,lon\n1,1\n1,1\n",
	}
	for name, data := range cases {
		_, err := converter.ParseCSV(strings.NewReader(data), "x", converter.Columns{})
		assert.True(t, apperr.Is(err, apperr.KindValidation), name)
	}
}

// workbook builds an XLSX file with the given sheets. Sheet1 is always
// present and stays first.
func workbook(t *testing.T, sheets map[string][][]any) string {
	t.Helper()
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	for name, rows := range sheets {
		if name != "Sheet1" {
			_, err := wb.NewSheet(name)
			require.NoError(t, err)
		}
		for i := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, wb.SetSheetRow(name, cell, &rows[i]))
		}
	}
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	return buf.String()
}

func TestParseXLSX(t *testing.T) {
	book := workbook(t, map[string][][]any{
		"Sheet1": {{"Surveyed by", "RV Example"}},
		"Points": {
			{"cable", "lat", "lon"},
			{"Atlantis-2", 0, 0},
			{"Atlantis-2", 1, 1},
			{"Bluewater", 2, 2},
			{"Bluewater", 3, 2},
		},
	})

	features, err := converter.ParseXLSX(strings.NewReader(book), "upload", "Points", converter.Columns{Name: "cable"})
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, "Atlantis-2", features[0].Property(geo.KeyName))
	assert.JSONEq(t, `[[0,0],[1,1]]`, string(features[0].Geometry.Coordinates))
	assert.Equal(t, "Bluewater", features[1].Property(geo.KeyName))

	// The first sheet only holds a note.
	_, err = converter.ParseXLSX(strings.NewReader(book), "upload", "", converter.Columns{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = converter.ParseXLSX(strings.NewReader(book), "upload", "Missing", converter.Columns{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing")

	_, err = converter.ParseXLSX(strings.NewReader("not a zip"), "upload", "", converter.Columns{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
