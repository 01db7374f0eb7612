package converter

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/seacable/atlas-backend/internal/apperr"
	"github.com/seacable/atlas-backend/internal/geo"
)

// ParseCSV reads a point table and returns one LineString per cable. Rows
// are grouped by the name column in first-seen order and keep file order
// within a group. Without a name column every row belongs to defaultName.
// Rows with a blank latitude or longitude are skipped.
func ParseCSV(r io.Reader, defaultName string, cols Columns) ([]geo.Feature, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, apperr.Validation("invalid CSV: %v", err)
	}
	return parseTable("CSV", records, defaultName, cols)
}

// parseTable turns a header row plus data rows into cable features. format
// names the source in error messages.
func parseTable(format string, records [][]string, defaultName string, cols Columns) ([]geo.Feature, error) {
	if len(records) < 2 {
		return nil, apperr.Validation("%s has no data rows", format)
	}

	match, err := DetectColumns(records[0], cols)
	if errors.Is(err, ErrColumnsNotFound) {
		return nil, apperr.Validation("%v; choose them with lat_column and lon_column", err)
	}
	if err != nil {
		return nil, err
	}

	var order []string
	groups := map[string][][]float64{}

	for rowIdx := 1; rowIdx < len(records); rowIdx++ {
		rec := records[rowIdx]
		get := func(i int) string {
			if i < 0 || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		latRaw, lonRaw := get(match.Lat), get(match.Lon)
		if latRaw == "" || lonRaw == "" {
			continue
		}
		lat, err := strconv.ParseFloat(latRaw, 64)
		if err != nil {
			return nil, apperr.Validation("row %d: latitude %q is not numeric", rowIdx+1, latRaw)
		}
		lon, err := strconv.ParseFloat(lonRaw, 64)
		if err != nil {
			return nil, apperr.Validation("row %d: longitude %q is not numeric", rowIdx+1, lonRaw)
		}
		coord := []float64{lon, lat}
		if d := get(match.Depth); d != "" {
			depth, err := strconv.ParseFloat(d, 64)
			if err != nil {
				return nil, apperr.Validation("row %d: depth %q is not numeric", rowIdx+1, d)
			}
			coord = append(coord, depth)
		}

		name := get(match.Name)
		if name == "" {
			name = defaultName
		}
		if _, seen := groups[name]; !seen {
			order = append(order, name)
		}
		groups[name] = append(groups[name], coord)
	}

	if len(order) == 0 {
		return nil, apperr.Validation("%s has no rows with coordinates", format)
	}

	features := make([]geo.Feature, 0, len(order))
	for _, name := range order {
		coords := groups[name]
		if len(coords) < 2 {
			return nil, apperr.Validation("cable %q has %d point, a route needs at least 2", name, len(coords))
		}
		f, err := geo.NormalizeLine(coords, map[string]string{geo.KeyName: name})
		if err != nil {
			return nil, apperr.Validation("cable %q: %v", name, err)
		}
		features = append(features, f)
	}
	return features, nil
}
