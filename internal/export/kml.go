// Package export renders stored cable features for map clients: KML
// documents for desktop GIS and encoded polylines for web maps.
package export

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/seacable/atlas-backend/internal/geo"
	kml "github.com/twpayne/go-kml"
)

// UnnamedPlacemark labels features without a cable name.
const UnnamedPlacemark = "Unnamed Placemark"

// KML writes features as one KML document and returns the number of
// placemarks written. Features whose geometry cannot be expressed in KML are
// skipped. Metadata goes to ExtendedData in schema order.
func KML(w io.Writer, name string, features []geo.Feature) (int, error) {
	doc := kml.Document(kml.Name(name))

	written := 0
	for i, f := range features {
		g, err := kmlGeometry(f.Geometry)
		if err != nil {
			return written, fmt.Errorf("feature %d: %w", i, err)
		}
		if g == nil {
			continue
		}

		title := f.Property(geo.KeyName)
		if title == "" {
			title = UnnamedPlacemark
		}
		pm := kml.Placemark(kml.Name(title))
		if desc := f.Property(geo.KeyInfoText); desc != "" {
			pm.Add(kml.Description(desc))
		}
		if ext := extendedData(f); ext != nil {
			pm.Add(ext)
		}
		pm.Add(g)

		doc.Add(pm)
		written++
	}

	if err := kml.KML(doc).WriteIndent(w, "", "  "); err != nil {
		return written, fmt.Errorf("write kml: %w", err)
	}
	return written, nil
}

func extendedData(f geo.Feature) kml.Element {
	var data []kml.Element
	for _, key := range geo.MetadataKeys {
		v := f.Property(key)
		if v == "" {
			continue
		}
		d := kml.Data(kml.Value(v))
		d.Attr = append(d.Attr, xml.Attr{Name: xml.Name{Local: "name"}, Value: key})
		data = append(data, d)
	}
	if len(data) == 0 {
		return nil
	}
	return kml.ExtendedData(data...)
}

func kmlGeometry(g *geo.Geometry) (kml.Element, error) {
	if g == nil {
		return nil, nil
	}

	switch g.Type {
	case geo.TypePoint:
		var c []float64
		if err := json.Unmarshal(g.Coordinates, &c); err != nil {
			return nil, err
		}
		return kml.Point(kml.CoordinatesArray(c)), nil
	case geo.TypeLineString:
		var line [][]float64
		if err := json.Unmarshal(g.Coordinates, &line); err != nil {
			return nil, err
		}
		return lineString(line), nil
	case geo.TypeMultiLineString:
		var lines [][][]float64
		if err := json.Unmarshal(g.Coordinates, &lines); err != nil {
			return nil, err
		}
		parts := make([]kml.Element, 0, len(lines))
		for _, line := range lines {
			parts = append(parts, lineString(line))
		}
		return kml.MultiGeometry(parts...), nil
	case geo.TypePolygon:
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, err
		}
		return polygon(rings), nil
	case geo.TypeMultiPolygon:
		var polys [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return nil, err
		}
		parts := make([]kml.Element, 0, len(polys))
		for _, rings := range polys {
			parts = append(parts, polygon(rings))
		}
		return kml.MultiGeometry(parts...), nil
	default:
		return nil, nil
	}
}

func lineString(coords [][]float64) kml.Element {
	return kml.LineString(kml.CoordinatesArray(coords...))
}

func polygon(rings [][][]float64) kml.Element {
	if len(rings) == 0 {
		return kml.Polygon()
	}
	p := kml.Polygon(kml.OuterBoundaryIs(kml.LinearRing(kml.CoordinatesArray(rings[0]...))))
	for _, hole := range rings[1:] {
		p.Add(kml.InnerBoundaryIs(kml.LinearRing(kml.CoordinatesArray(hole...))))
	}
	return p
}

// Filename turns a document name into a safe attachment filename.
func Filename(name, ext string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, name)
	if clean == "" {
		clean = "cables"
	}
	return clean + "." + ext
}
