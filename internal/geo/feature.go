// Package geo is the spatial core of the cable atlas: it normalizes survey
// coordinates into GeoJSON features, aggregates cable fragments, loads
// maritime zone datasets, computes crossings and measures them in
// kilometres.
package geo

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"
	"github.com/peterstace/simplefeatures/geom"
	"github.com/seacable/atlas-backend/internal/apperr"
)

// GeoJSON geometry type names.
const (
	TypePoint              = "Point"
	TypeMultiPoint         = "MultiPoint"
	TypeLineString         = "LineString"
	TypeMultiLineString    = "MultiLineString"
	TypePolygon            = "Polygon"
	TypeMultiPolygon       = "MultiPolygon"
	TypeGeometryCollection = "GeometryCollection"
)

// Geometry is a GeoJSON geometry object. Coordinates are kept verbatim so
// that optional depth values survive a read/write cycle.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
	Geometries  []*Geometry     `json:"geometries,omitempty"`
}

// Decode converts g into a two-dimensional simplefeatures geometry. opts
// relax validation, e.g. geom.OmitInvalid.
func (g *Geometry) Decode(opts ...geom.ConstructorOption) (geom.Geometry, error) {
	if g == nil {
		return geom.Geometry{}, fmt.Errorf("geometry is null")
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("encode %s: %w", g.Type, err)
	}
	decoded, err := geom.UnmarshalGeoJSON(raw, opts...)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("decode %s: %w", g.Type, err)
	}
	return decoded.Force2D(), nil
}

// Feature is a GeoJSON feature with string-or-null properties.
type Feature struct {
	Type       string             `json:"type"`
	Geometry   *Geometry          `json:"geometry"`
	Properties geojson.Properties `json:"properties"`
}

// NewFeature returns a Feature with the GeoJSON type member set.
func NewFeature(g *Geometry, props geojson.Properties) Feature {
	if props == nil {
		props = geojson.Properties{}
	}
	return Feature{Type: "Feature", Geometry: g, Properties: props}
}

// Property returns the string value stored under key. Missing keys, null
// values and non-string values all read as "". Properties.MustString would
// panic on numbers, which zone datasets use freely.
func (f Feature) Property(key string) string {
	s, _ := f.Properties[key].(string)
	return s
}

// FeatureCollection is an ordered list of features.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection wraps features, never encoding a null feature list.
func NewFeatureCollection(features []Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}

// DecodeRecord turns one persisted record into its features. A record may
// hold a FeatureCollection, a bare array of features or a single feature.
func DecodeRecord(raw []byte) ([]Feature, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, apperr.Validation("empty feature record")
	}

	switch trimmed[0] {
	case '[':
		var features []Feature
		if err := json.Unmarshal(trimmed, &features); err != nil {
			return nil, apperr.Validation("invalid feature list: %v", err)
		}
		return features, nil
	case '{':
		var envelope struct {
			Type     string          `json:"type"`
			Features json.RawMessage `json:"features"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, apperr.Validation("invalid feature record: %v", err)
		}
		if envelope.Type == "Feature" {
			var f Feature
			if err := json.Unmarshal(trimmed, &f); err != nil {
				return nil, apperr.Validation("invalid feature: %v", err)
			}
			return []Feature{f}, nil
		}
		if len(envelope.Features) == 0 || string(envelope.Features) == "null" {
			return []Feature{}, nil
		}
		var features []Feature
		if err := json.Unmarshal(envelope.Features, &features); err != nil {
			return nil, apperr.Validation("invalid feature collection: %v", err)
		}
		return features, nil
	default:
		return nil, apperr.Validation("feature record must be a JSON object or array")
	}
}

func geometryFromGeom(g geom.Geometry) (json.RawMessage, error) {
	raw, err := g.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geometry: %w", err)
	}
	return raw, nil
}
