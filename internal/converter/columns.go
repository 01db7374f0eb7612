// Package converter turns uploaded survey files (KML placemarks or CSV
// point tables) into cable feature collections ready for review and
// insertion.
package converter

import (
	"errors"
	"regexp"
	"strings"

	"github.com/seacable/atlas-backend/internal/apperr"
)

// ErrColumnsNotFound means no latitude/longitude pair could be identified in
// a CSV header.
var ErrColumnsNotFound = errors.New("latitude and longitude columns not found")

// ColumnMatch holds header indexes. Depth and Name are -1 when absent.
type ColumnMatch struct {
	Lat   int
	Lon   int
	Depth int
	Name  int
}

// Columns names header cells chosen by the uploader. Empty fields are
// detected from the header instead.
type Columns struct {
	Lat   string
	Lon   string
	Depth string
	Name  string
}

var (
	latRe   = regexp.MustCompile(`^(lat|latitude)(deg|dd|decimal|wgs84)?$|^y$`)
	lonRe   = regexp.MustCompile(`^(lon|lng|long|longitude)(deg|dd|decimal|wgs84)?$|^x$`)
	depthRe = regexp.MustCompile(`^(water|buried)?depth(m|meters|metres)?$|^z$`)
	nameRe  = regexp.MustCompile(`^(cable|cablename|name|featurename|segment|route)$`)
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// headerKey lowercases a header cell and drops everything but letters and
// digits, so "Latitude (deg)" and "lat_deg" compare equal.
func headerKey(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(h)), "")
}

// DetectColumns locates the coordinate columns in header. Explicit choices
// in cols win over detection and must name an existing column.
func DetectColumns(header []string, cols Columns) (ColumnMatch, error) {
	m := ColumnMatch{Lat: -1, Lon: -1, Depth: -1, Name: -1}

	pick := func(dst *int, chosen string, re *regexp.Regexp) error {
		if chosen != "" {
			want := strings.TrimSpace(chosen)
			for i, h := range header {
				if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), want) {
					*dst = i
					return nil
				}
			}
			return apperr.Validation("column %q not found in CSV header", want)
		}
		for i, h := range header {
			if re.MatchString(headerKey(h)) {
				*dst = i
				return nil
			}
		}
		return nil
	}

	if err := pick(&m.Lat, cols.Lat, latRe); err != nil {
		return m, err
	}
	if err := pick(&m.Lon, cols.Lon, lonRe); err != nil {
		return m, err
	}
	if err := pick(&m.Depth, cols.Depth, depthRe); err != nil {
		return m, err
	}
	if err := pick(&m.Name, cols.Name, nameRe); err != nil {
		return m, err
	}

	if m.Lat < 0 || m.Lon < 0 || m.Lat == m.Lon {
		return m, ErrColumnsNotFound
	}
	return m, nil
}
