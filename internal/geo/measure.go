package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
	"github.com/peterstace/simplefeatures/geom"
	"github.com/seacable/atlas-backend/internal/apperr"
)

// LengthKM projects g to Web Mercator (EPSG:3857) and sums the planar length
// of its line parts, in kilometres rounded by RoundKM. Points and polygons
// add nothing. Mercator stretches distances by 1/cos(latitude); the figure
// is meant for reporting, not surveying.
func LengthKM(g geom.Geometry) (float64, error) {
	og, err := toOrb(g)
	if err != nil {
		return 0, apperr.Computation(err, "convert geometry for projection")
	}
	projected := project.Geometry(og, project.WGS84.ToMercator)
	return RoundKM(lineLength(projected) / 1000), nil
}

// RoundKM rounds to three decimals, half to even.
func RoundKM(km float64) float64 {
	return math.RoundToEven(km*1000) / 1000
}

// LineParts returns every line part of g in geographic coordinates.
func LineParts(g geom.Geometry) ([]orb.LineString, error) {
	og, err := toOrb(g)
	if err != nil {
		return nil, err
	}
	return collectLines(og, nil), nil
}

func collectLines(g orb.Geometry, acc []orb.LineString) []orb.LineString {
	switch v := g.(type) {
	case orb.LineString:
		return append(acc, v)
	case orb.MultiLineString:
		return append(acc, v...)
	case orb.Collection:
		for _, part := range v {
			acc = collectLines(part, acc)
		}
	}
	return acc
}

func lineLength(g orb.Geometry) float64 {
	switch v := g.(type) {
	case orb.LineString:
		return planar.Length(v)
	case orb.MultiLineString:
		var total float64
		for _, ls := range v {
			total += planar.Length(ls)
		}
		return total
	case orb.Collection:
		var total float64
		for _, part := range v {
			total += lineLength(part)
		}
		return total
	default:
		return 0
	}
}

func toOrb(g geom.Geometry) (orb.Geometry, error) {
	switch g.Type() {
	case geom.TypePoint:
		xy, ok := g.MustAsPoint().XY()
		if !ok {
			return orb.Collection{}, nil
		}
		return orb.Point{xy.X, xy.Y}, nil
	case geom.TypeMultiPoint:
		mp := g.MustAsMultiPoint()
		out := make(orb.MultiPoint, 0, mp.NumPoints())
		for i := 0; i < mp.NumPoints(); i++ {
			if xy, ok := mp.PointN(i).XY(); ok {
				out = append(out, orb.Point{xy.X, xy.Y})
			}
		}
		return out, nil
	case geom.TypeLineString:
		return lineToOrb(g.MustAsLineString()), nil
	case geom.TypeMultiLineString:
		mls := g.MustAsMultiLineString()
		out := make(orb.MultiLineString, 0, mls.NumLineStrings())
		for i := 0; i < mls.NumLineStrings(); i++ {
			out = append(out, lineToOrb(mls.LineStringN(i)))
		}
		return out, nil
	case geom.TypePolygon:
		return polygonToOrb(g.MustAsPolygon()), nil
	case geom.TypeMultiPolygon:
		mp := g.MustAsMultiPolygon()
		out := make(orb.MultiPolygon, 0, mp.NumPolygons())
		for i := 0; i < mp.NumPolygons(); i++ {
			out = append(out, polygonToOrb(mp.PolygonN(i)))
		}
		return out, nil
	case geom.TypeGeometryCollection:
		gc := g.MustAsGeometryCollection()
		out := make(orb.Collection, 0, gc.NumGeometries())
		for i := 0; i < gc.NumGeometries(); i++ {
			part, err := toOrb(gc.GeometryN(i))
			if err != nil {
				return nil, err
			}
			out = append(out, part)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %s", g.Type())
	}
}

func lineToOrb(ls geom.LineString) orb.LineString {
	seq := ls.Coordinates()
	out := make(orb.LineString, seq.Length())
	for i := range out {
		xy := seq.GetXY(i)
		out[i] = orb.Point{xy.X, xy.Y}
	}
	return out
}

func polygonToOrb(p geom.Polygon) orb.Polygon {
	out := orb.Polygon{orb.Ring(lineToOrb(p.ExteriorRing()))}
	for i := 0; i < p.NumInteriorRings(); i++ {
		out = append(out, orb.Ring(lineToOrb(p.InteriorRingN(i))))
	}
	return out
}
