package converter

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/seacable/atlas-backend/internal/apperr"
	"github.com/seacable/atlas-backend/internal/export"
	"github.com/seacable/atlas-backend/internal/geo"
)

// node is a namespace-agnostic view of one KML element.
type node struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
	Nodes   []node `xml:",any"`
}

func (n node) child(local string) (node, bool) {
	for _, c := range n.Nodes {
		if c.XMLName.Local == local {
			return c, true
		}
	}
	return node{}, false
}

// find returns the first descendant named local in document order.
func (n node) find(local string) (node, bool) {
	for _, c := range n.Nodes {
		if c.XMLName.Local == local {
			return c, true
		}
		if found, ok := c.find(local); ok {
			return found, true
		}
	}
	return node{}, false
}

// ParseKML returns one LineString feature per placemark whose first
// coordinates element holds more than one position. Placemarks without a
// name are called "Unnamed Placemark".
func ParseKML(r io.Reader) ([]geo.Feature, error) {
	dec := xml.NewDecoder(r)

	var features []geo.Feature
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.Validation("invalid KML: %v", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Placemark" {
			continue
		}

		var pm node
		if err := dec.DecodeElement(&pm, &start); err != nil {
			return nil, apperr.Validation("invalid KML placemark: %v", err)
		}

		name := export.UnnamedPlacemark
		if n, ok := pm.child("name"); ok && strings.TrimSpace(n.Text) != "" {
			name = strings.TrimSpace(n.Text)
		}

		c, ok := pm.find("coordinates")
		if !ok {
			continue
		}
		coords, err := geo.ParseCoordinates(c.Text)
		if err != nil {
			return nil, apperr.Validation("placemark %q: %v", name, err)
		}
		if len(coords) < 2 {
			continue
		}

		f, err := geo.NormalizeLine(coords, map[string]string{geo.KeyName: name})
		if err != nil {
			return nil, apperr.Validation("placemark %q: %v", name, err)
		}
		features = append(features, f)
	}

	if len(features) == 0 {
		return nil, apperr.Validation("KML holds no placemark with a line of 2 or more coordinates")
	}
	return features, nil
}
